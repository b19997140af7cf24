package memory

import (
	"context"
	"testing"
	"time"

	"ridehail/internal/domain/entities"
	"ridehail/internal/repository"
)

func TestRideRepository_ReadsAreCopies(t *testing.T) {
	repo := NewRideRepository()
	ctx := context.Background()
	ride := entities.NewRide("ride-1", "rider-1", "A", "B", entities.TransportTaxi, time.Now())
	if err := repo.Create(ctx, ride); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Neither the caller's value nor a read may alias the stored ride.
	ride.Origin = "changed"
	read, _ := repo.GetByID(ctx, "ride-1")
	read.Status = entities.RideStatusCompleted

	stored, _ := repo.GetByID(ctx, "ride-1")
	if stored.Status != entities.RideStatusRequested || stored.Origin != "A" {
		t.Errorf("Expected stored ride to be unaffected, got %+v", stored)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}

	tests := []struct {
		page repository.Page
		want int
	}{
		{repository.Page{Offset: 0, Limit: 2}, 2},
		{repository.Page{Offset: 4, Limit: 2}, 1},
		{repository.Page{Offset: 5, Limit: 2}, 0},
		{repository.Page{Offset: -3, Limit: 2}, 2},
		{repository.Page{Offset: 1}, 4},
	}
	for _, tt := range tests {
		if got := paginate(items, tt.page); len(got) != tt.want {
			t.Errorf("paginate(%+v): expected %d items, got %d", tt.page, tt.want, len(got))
		}
	}
}
