// Package repotest holds the behaviour every repository backend must share.
// Each backend's tests call Run with a factory for an empty store, so the
// memory and postgres implementations are checked against the same cases.
//
// Go Learning Note — Shared Test Suites:
// A non-test package may import "testing" and export helpers that take a
// *testing.T; net/http/httptest and testing/fstest are standard examples.
// Rides reference users by foreign key in postgres, so every case creates
// real accounts before it creates rides or vehicles.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ridehail/internal/domain/entities"
	"ridehail/internal/repository"
)

type Backend struct {
	Users    repository.UserRepository
	Rides    repository.RideRepository
	Vehicles repository.VehicleRepository
}

// Factory returns an empty backend. It is called once per case.
type Factory func(t *testing.T) Backend

func Run(t *testing.T, newBackend Factory) {
	cases := []struct {
		name string
		fn   func(t *testing.T, b Backend)
	}{
		{"CreateAccount_DuplicateUsernameCreatesNothing", testDuplicateUsername},
		{"Usernames_AreCaseSensitive", testUsernameCase},
		{"ApproveDrivers_IgnoresNonDrivers", testApproveDrivers},
		{"AssignDriver_ConcurrentExactlyOneWinner", testConcurrentAssign},
		{"AssignDriver_NotFound", testAssignNotFound},
		{"CompleteRide_SetOnce", testCompleteSetOnce},
		{"CompleteMany_SkipsCompleted", testCompleteMany},
		{"Listings_NewestFirstWithPaging", testListings},
		{"Vehicles_CRUD", testVehicles},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newBackend(t))
		})
	}
}

func account(t *testing.T, b Backend, id, username string, role entities.Role) {
	t.Helper()
	user := entities.NewUser(id, username, username+"@example.com", []byte("hash"), time.Now())
	profile := &entities.Profile{Role: role, FullName: "Full " + username}
	if err := b.Users.CreateAccount(context.Background(), user, profile); err != nil {
		t.Fatalf("CreateAccount(%s) failed: %v", username, err)
	}
}

func ride(t *testing.T, b Backend, id, riderID string, at time.Time) {
	t.Helper()
	r := entities.NewRide(id, riderID, "A", "B", entities.TransportTaxi, at)
	if err := b.Rides.Create(context.Background(), r); err != nil {
		t.Fatalf("Create(%s) failed: %v", id, err)
	}
}

func testDuplicateUsername(t *testing.T, b Backend) {
	ctx := context.Background()
	account(t, b, "u1", "alice", entities.RoleRider)

	dup := entities.NewUser("u2", "alice", "", []byte("hash"), time.Now())
	err := b.Users.CreateAccount(ctx, dup, &entities.Profile{Role: entities.RoleDriver})
	if !errors.Is(err, repository.ErrUsernameTaken) {
		t.Fatalf("Expected ErrUsernameTaken, got %v", err)
	}
	if _, err := b.Users.GetByID(ctx, "u2"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected no user stored, got %v", err)
	}
	if _, err := b.Users.GetProfile(ctx, "u2"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected no profile stored, got %v", err)
	}

	original, err := b.Users.GetByUsername(ctx, "alice")
	if err != nil || original.ID != "u1" {
		t.Errorf("Expected alice to still be u1, got %+v (%v)", original, err)
	}
}

func testUsernameCase(t *testing.T, b Backend) {
	ctx := context.Background()
	account(t, b, "u1", "alice", entities.RoleRider)

	if exists, _ := b.Users.UsernameExists(ctx, "Alice"); exists {
		t.Error("Expected Alice to be distinct from alice")
	}
	if exists, _ := b.Users.UsernameExists(ctx, "alice"); !exists {
		t.Error("Expected alice to exist")
	}
}

func testApproveDrivers(t *testing.T, b Backend) {
	ctx := context.Background()
	account(t, b, "d1", "dan", entities.RoleDriver)
	account(t, b, "d2", "dora", entities.RoleDriver)
	account(t, b, "r1", "rita", entities.RoleRider)

	n, err := b.Users.ApproveDrivers(ctx, []string{"d1", "r1", "d1", "missing"})
	if err != nil {
		t.Fatalf("ApproveDrivers failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 approved driver, got %d", n)
	}

	if rider, _ := b.Users.GetProfile(ctx, "r1"); rider.IsDriverApproved {
		t.Error("Expected rider profile to stay unapproved")
	}

	pending := false
	role := entities.RoleDriver
	accounts, err := b.Users.ListProfiles(ctx, repository.ProfileFilter{Role: &role, Approved: &pending})
	if err != nil {
		t.Fatalf("ListProfiles failed: %v", err)
	}
	if len(accounts) != 1 || accounts[0].User.Username != "dora" {
		t.Errorf("Expected only dora pending, got %d accounts", len(accounts))
	}
}

func testConcurrentAssign(t *testing.T, b Backend) {
	ctx := context.Background()
	account(t, b, "rider-1", "rita", entities.RoleRider)
	ride(t, b, "ride-1", "rider-1", time.Now())

	const drivers = 20
	ids := make([]string, drivers)
	for i := range ids {
		ids[i] = fmt.Sprintf("driver-%d", i)
		account(t, b, ids[i], ids[i], entities.RoleDriver)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []string
		conflicts int
	)
	start := make(chan struct{})
	for _, id := range ids {
		wg.Add(1)
		go func(driverID string) {
			defer wg.Done()
			<-start
			current, err := b.Rides.AssignDriver(ctx, "ride-1", driverID, time.Now())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, driverID)
			case errors.Is(err, repository.ErrConflict):
				conflicts++
				if current == nil || current.Status != entities.RideStatusAssigned {
					t.Errorf("Expected conflict to carry the assigned ride, got %+v", current)
				}
			default:
				t.Errorf("Unexpected error: %v", err)
			}
		}(id)
	}
	close(start)
	wg.Wait()

	if len(winners) != 1 {
		t.Fatalf("Expected exactly one winner, got %d", len(winners))
	}
	if conflicts != drivers-1 {
		t.Errorf("Expected %d conflicts, got %d", drivers-1, conflicts)
	}

	stored, err := b.Rides.GetByID(ctx, "ride-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.DriverID != winners[0] {
		t.Errorf("Expected driver %s, got %s", winners[0], stored.DriverID)
	}
	if stored.Status != entities.RideStatusAssigned || stored.AssignedAt == nil {
		t.Errorf("Expected assigned ride with assigned_at, got %+v", stored)
	}
}

func testAssignNotFound(t *testing.T, b Backend) {
	ctx := context.Background()
	account(t, b, "driver-1", "dan", entities.RoleDriver)

	if _, err := b.Rides.AssignDriver(ctx, "missing", "driver-1", time.Now()); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from AssignDriver, got %v", err)
	}
	if _, err := b.Rides.CompleteRide(ctx, "missing", time.Now()); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from CompleteRide, got %v", err)
	}
}

func testCompleteSetOnce(t *testing.T, b Backend) {
	ctx := context.Background()
	account(t, b, "rider-1", "rita", entities.RoleRider)
	account(t, b, "driver-1", "dan", entities.RoleDriver)
	ride(t, b, "ride-1", "rider-1", time.Now())

	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if _, err := b.Rides.CompleteRide(ctx, "ride-1", first); err != nil {
		t.Fatalf("CompleteRide failed: %v", err)
	}

	current, err := b.Rides.CompleteRide(ctx, "ride-1", first.Add(time.Hour))
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}
	if current.CompletedAt == nil || !current.CompletedAt.Equal(first) {
		t.Errorf("Expected completed_at %v, got %v", first, current.CompletedAt)
	}

	current, err = b.Rides.AssignDriver(ctx, "ride-1", "driver-1", time.Now())
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("Expected ErrConflict assigning a completed ride, got %v", err)
	}
	if current.Status != entities.RideStatusCompleted || current.DriverID != "" {
		t.Errorf("Expected untouched completed ride, got %+v", current)
	}
}

func testCompleteMany(t *testing.T, b Backend) {
	ctx := context.Background()
	account(t, b, "rider-1", "rita", entities.RoleRider)
	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	ride(t, b, "ride-1", "rider-1", first)
	ride(t, b, "ride-2", "rider-1", first)
	if _, err := b.Rides.CompleteRide(ctx, "ride-1", first); err != nil {
		t.Fatalf("CompleteRide failed: %v", err)
	}

	changed, err := b.Rides.CompleteMany(ctx, []string{"ride-1", "ride-2", "missing"}, first.Add(time.Hour))
	if err != nil {
		t.Fatalf("CompleteMany failed: %v", err)
	}
	if changed != 1 {
		t.Errorf("Expected 1 changed ride, got %d", changed)
	}

	ride1, _ := b.Rides.GetByID(ctx, "ride-1")
	if !ride1.CompletedAt.Equal(first) {
		t.Errorf("Expected ride-1 completed_at unchanged, got %v", ride1.CompletedAt)
	}
	ride2, _ := b.Rides.GetByID(ctx, "ride-2")
	if !ride2.IsCompleted() {
		t.Errorf("Expected ride-2 completed, got %s", ride2.Status)
	}
}

func testListings(t *testing.T, b Backend) {
	ctx := context.Background()
	account(t, b, "rider-1", "rita", entities.RoleRider)
	account(t, b, "driver-1", "dan", entities.RoleDriver)

	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		ride(t, b, fmt.Sprintf("ride-%d", i), "rider-1", base.Add(time.Duration(i)*time.Minute))
	}
	if _, err := b.Rides.AssignDriver(ctx, "ride-4", "driver-1", base); err != nil {
		t.Fatalf("AssignDriver failed: %v", err)
	}

	available, total, err := b.Rides.ListAvailable(ctx, repository.Page{Offset: 0, Limit: 2})
	if err != nil {
		t.Fatalf("ListAvailable failed: %v", err)
	}
	if total != 4 {
		t.Errorf("Expected 4 available rides, got %d", total)
	}
	if len(available) != 2 || available[0].ID != "ride-3" {
		t.Errorf("Expected newest available ride first, got %+v", available)
	}

	last, total, _ := b.Rides.List(ctx, repository.Page{Offset: 4, Limit: 2})
	if total != 5 || len(last) != 1 || last[0].ID != "ride-0" {
		t.Errorf("Unexpected last page: total=%d rides=%+v", total, last)
	}

	// A zero limit means no limit.
	all, _, _ := b.Rides.List(ctx, repository.Page{})
	if len(all) != 5 {
		t.Errorf("Expected all 5 rides without a limit, got %d", len(all))
	}

	past, total, _ := b.Rides.List(ctx, repository.Page{Offset: 10, Limit: 2})
	if total != 5 || len(past) != 0 {
		t.Errorf("Expected an empty page past the end, got total=%d rides=%d", total, len(past))
	}

	byRider, _ := b.Rides.ListByRider(ctx, "rider-1")
	if len(byRider) != 5 {
		t.Errorf("Expected 5 rides for the rider, got %d", len(byRider))
	}
	byDriver, _ := b.Rides.ListByDriver(ctx, "driver-1")
	if len(byDriver) != 1 || byDriver[0].ID != "ride-4" {
		t.Errorf("Expected ride-4 for the driver, got %+v", byDriver)
	}
}

func testVehicles(t *testing.T, b Backend) {
	ctx := context.Background()
	account(t, b, "owner-1", "olga", entities.RoleDriver)

	v := &entities.Vehicle{ID: "veh-1", OwnerID: "owner-1", Make: "Toyota", Model: "Corolla", Plate: "LAG-1"}
	if err := b.Vehicles.Create(ctx, v); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	v.Make = "Honda"
	if err := b.Vehicles.Update(ctx, v); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	stored, err := b.Vehicles.GetByID(ctx, "veh-1")
	if err != nil || stored.Make != "Honda" || stored.OwnerID != "owner-1" {
		t.Errorf("Unexpected stored vehicle %+v (%v)", stored, err)
	}

	list, total, _ := b.Vehicles.List(ctx, repository.Page{Limit: 10})
	if total != 1 || len(list) != 1 {
		t.Errorf("Expected one vehicle, got total=%d len=%d", total, len(list))
	}

	missing := &entities.Vehicle{ID: "veh-2", OwnerID: "owner-1", Make: "Kia"}
	if err := b.Vehicles.Update(ctx, missing); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound updating a missing vehicle, got %v", err)
	}

	if err := b.Vehicles.Delete(ctx, "veh-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := b.Vehicles.Delete(ctx, "veh-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
	}
	if _, err := b.Vehicles.GetByID(ctx, "veh-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}
