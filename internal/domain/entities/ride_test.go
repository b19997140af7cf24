package entities

import (
	"errors"
	"testing"
	"time"
)

func TestRide_Transitions(t *testing.T) {
	tests := []struct {
		from RideStatus
		to   RideStatus
		ok   bool
	}{
		{RideStatusRequested, RideStatusAssigned, true},
		{RideStatusRequested, RideStatusCompleted, true},
		{RideStatusAssigned, RideStatusCompleted, true},
		{RideStatusAssigned, RideStatusRequested, false},
		{RideStatusCompleted, RideStatusAssigned, false},
		{RideStatusCompleted, RideStatusRequested, false},
		{RideStatusCancelled, RideStatusCompleted, false},
		{RideStatusRequested, RideStatusCancelled, false},
	}

	for _, tt := range tests {
		ride := &Ride{Status: tt.from}
		if got := ride.CanTransitionTo(tt.to); got != tt.ok {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.ok, got)
		}
	}
}

func TestRide_AssignDriver(t *testing.T) {
	at := time.Now()
	ride := NewRide("ride-1", "rider-1", "A", "B", TransportTaxi, at)

	if err := ride.AssignDriver("driver-1", at); err != nil {
		t.Fatalf("AssignDriver failed: %v", err)
	}
	if ride.Status != RideStatusAssigned || ride.DriverID != "driver-1" || ride.AssignedAt == nil {
		t.Errorf("Unexpected ride after assign: %+v", ride)
	}

	if err := ride.AssignDriver("driver-2", at); !errors.Is(err, ErrRideAlreadyAssigned) {
		t.Errorf("Expected ErrRideAlreadyAssigned, got %v", err)
	}
	if ride.DriverID != "driver-1" {
		t.Errorf("Expected driver to stay driver-1, got %s", ride.DriverID)
	}
}

func TestRide_CompleteTwiceKeepsTimestamp(t *testing.T) {
	first := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	ride := NewRide("ride-1", "rider-1", "A", "B", TransportBike, first)

	if err := ride.Complete(first); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if err := ride.Complete(first.Add(time.Hour)); !errors.Is(err, ErrRideAlreadyCompleted) {
		t.Errorf("Expected ErrRideAlreadyCompleted, got %v", err)
	}
	if !ride.CompletedAt.Equal(first) {
		t.Errorf("Expected completed_at %v, got %v", first, ride.CompletedAt)
	}
	if !ride.IsCompleted() {
		t.Error("Expected IsCompleted to be true")
	}
}

func TestParseTransportType(t *testing.T) {
	if tt, _ := ParseTransportType(""); tt != TransportTaxi {
		t.Errorf("Expected empty transport to default to taxi, got %s", tt)
	}
	if _, err := ParseTransportType("boat"); err == nil {
		t.Error("Expected error for unknown transport type")
	}
}
