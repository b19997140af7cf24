package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ridehail/internal/access"
	"ridehail/internal/domain/entities"
	"ridehail/internal/notify"
	"ridehail/pkg/logger"
)

func TestRideService_FullLifecycle(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	rider := env.account(t, "rita", entities.RoleRider, false)
	driver := env.account(t, "dan", entities.RoleDriver, true)

	ride := env.createRide(t, rider)
	if ride.Status != entities.RideStatusRequested || ride.DriverID != "" || ride.DriverInfo != nil {
		t.Fatalf("Expected requested ride without driver, got %+v", ride)
	}
	if ride.TransportType != entities.TransportTaxi {
		t.Errorf("Expected taxi by default, got %s", ride.TransportType)
	}

	accepted, err := env.rideService.AcceptRide(ctx, driver, ride.ID)
	if err != nil {
		t.Fatalf("AcceptRide failed: %v", err)
	}
	if accepted.Status != entities.RideStatusAssigned || accepted.DriverID != driver.UserID || accepted.AssignedAt == nil {
		t.Errorf("Unexpected accepted ride: %+v", accepted)
	}
	if accepted.DriverInfo == nil || accepted.DriverInfo.Username != "dan" || accepted.DriverInfo.Phone != "+1-dan" {
		t.Errorf("Expected driver_info for dan, got %+v", accepted.DriverInfo)
	}

	_, err = env.rideService.AcceptRide(ctx, driver, ride.ID)
	var conflict *ConflictError
	if !errors.As(err, &conflict) || !errors.Is(err, entities.ErrRideAlreadyAssigned) {
		t.Fatalf("Expected already-assigned conflict, got %v", err)
	}
	if conflict.Status != entities.RideStatusAssigned {
		t.Errorf("Expected current status assigned, got %s", conflict.Status)
	}

	completed, err := env.rideService.CompleteRide(ctx, rider, ride.ID)
	if err != nil {
		t.Fatalf("CompleteRide failed: %v", err)
	}
	if !completed.IsCompleted || completed.CompletedAt == nil {
		t.Errorf("Expected completed ride, got %+v", completed)
	}
	if env.notifier.count() != 1 {
		t.Fatalf("Expected 1 notification, got %d", env.notifier.count())
	}
	event := env.notifier.events[0].(notify.RideCompleted)
	if event.Rider != "rita" || event.CompletedBy != "rita" || event.DriverName != "Full dan" {
		t.Errorf("Unexpected notification: %+v", event)
	}

	_, err = env.rideService.CompleteRide(ctx, rider, ride.ID)
	if !errors.Is(err, entities.ErrRideAlreadyCompleted) {
		t.Errorf("Expected ErrRideAlreadyCompleted, got %v", err)
	}
	if env.notifier.count() != 1 {
		t.Errorf("Expected no second notification, got %d", env.notifier.count())
	}

	status, err := env.rideService.RideStatus(ctx, driver, ride.ID)
	if err != nil {
		t.Fatalf("RideStatus failed: %v", err)
	}
	if status.Status != entities.RideStatusCompleted || !status.IsCompleted {
		t.Errorf("Unexpected status view: %+v", status)
	}
}

func TestRideService_ConcurrentAccept(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	rider := env.account(t, "rita", entities.RoleRider, false)
	ride := env.createRide(t, rider)

	const n = 20
	drivers := make([]*access.Identity, n)
	for i := range drivers {
		drivers[i] = env.account(t, fmt.Sprintf("driver%d", i), entities.RoleDriver, true)
	}

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
		winner    atomic.Value
	)
	for _, d := range drivers {
		wg.Add(1)
		go func(d *access.Identity) {
			defer wg.Done()
			_, err := env.rideService.AcceptRide(ctx, d, ride.ID)
			switch {
			case err == nil:
				successes.Add(1)
				winner.Store(d.UserID)
			case errors.Is(err, entities.ErrRideAlreadyAssigned):
				conflicts.Add(1)
			default:
				t.Errorf("Unexpected error: %v", err)
			}
		}(d)
	}
	wg.Wait()

	if successes.Load() != 1 || conflicts.Load() != n-1 {
		t.Fatalf("Expected 1 success and %d conflicts, got %d and %d", n-1, successes.Load(), conflicts.Load())
	}
	stored, _ := env.rides.GetByID(ctx, ride.ID)
	if stored.DriverID != winner.Load().(string) {
		t.Errorf("Expected stored driver to be the winner")
	}
}

func TestRideService_AcceptDeniedForUnapprovedDriver(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	rider := env.account(t, "rita", entities.RoleRider, false)
	pending := env.account(t, "dora", entities.RoleDriver, false)
	ride := env.createRide(t, rider)

	_, err := env.rideService.AcceptRide(ctx, pending, ride.ID)
	if !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("Expected ErrNotPermitted, got %v", err)
	}

	_, err = env.rideService.AcceptRide(ctx, rider, ride.ID)
	if !errors.Is(err, ErrNotPermitted) {
		t.Errorf("Expected ErrNotPermitted for rider, got %v", err)
	}

	stored, _ := env.rides.GetByID(ctx, ride.ID)
	if stored.Status != entities.RideStatusRequested || stored.DriverID != "" {
		t.Errorf("Expected ride unchanged, got %+v", stored)
	}
}

func TestRideService_AcceptUnknownRide(t *testing.T) {
	env := setupServices(t)
	driver := env.account(t, "dan", entities.RoleDriver, true)

	_, err := env.rideService.AcceptRide(context.Background(), driver, "missing")
	if !errors.Is(err, ErrRideNotFound) {
		t.Errorf("Expected ErrRideNotFound, got %v", err)
	}
}

func TestRideService_AcceptCompletedUnassignedRide(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	rider := env.account(t, "rita", entities.RoleRider, false)
	driver := env.account(t, "dan", entities.RoleDriver, true)
	ride := env.createRide(t, rider)

	if _, err := env.rideService.CompleteRide(ctx, rider, ride.ID); err != nil {
		t.Fatalf("CompleteRide failed: %v", err)
	}

	_, err := env.rideService.AcceptRide(ctx, driver, ride.ID)
	var conflict *ConflictError
	if !errors.As(err, &conflict) || conflict.Status != entities.RideStatusCompleted {
		t.Errorf("Expected conflict with completed status, got %v", err)
	}
}

func TestRideService_CreateEntryPoints(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	driver := env.account(t, "dan", entities.RoleDriver, true)
	req := CreateRideRequest{Origin: "A", Destination: "B", TransportType: "bike"}

	if _, err := env.rideService.CreateRide(ctx, driver, req, EntryForm); !errors.Is(err, ErrNotPermitted) {
		t.Errorf("Expected form entry to reject a driver, got %v", err)
	}

	view, err := env.rideService.CreateRide(ctx, driver, req, EntryAPI)
	if err != nil {
		t.Fatalf("Expected API entry to accept any authenticated caller, got %v", err)
	}
	if view.RiderID != driver.UserID || view.TransportType != entities.TransportBike {
		t.Errorf("Unexpected ride: %+v", view)
	}

	if _, err := env.rideService.CreateRide(ctx, &access.Identity{}, req, EntryAPI); !errors.Is(err, ErrNotPermitted) {
		t.Errorf("Expected anonymous caller to be rejected, got %v", err)
	}
}

func TestRideService_CreateValidation(t *testing.T) {
	env := setupServices(t)
	rider := env.account(t, "rita", entities.RoleRider, false)

	_, err := env.rideService.CreateRide(context.Background(), rider,
		CreateRideRequest{Origin: "  ", TransportType: "boat"}, EntryForm)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if len(verr.Messages) != 3 {
		t.Errorf("Expected 3 messages, got %v", verr.Messages)
	}
}

func TestRideService_CompletePermissions(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	rider := env.account(t, "rita", entities.RoleRider, false)
	other := env.account(t, "olga", entities.RoleRider, false)
	driver := env.account(t, "dan", entities.RoleDriver, true)
	ride := env.createRide(t, rider)

	if _, err := env.rideService.CompleteRide(ctx, other, ride.ID); !errors.Is(err, ErrNotPermitted) {
		t.Errorf("Expected stranger to be rejected, got %v", err)
	}
	if _, err := env.rideService.CompleteRide(ctx, driver, ride.ID); !errors.Is(err, ErrNotPermitted) {
		t.Errorf("Expected unassigned driver to be rejected, got %v", err)
	}

	env.rideService.AcceptRide(ctx, driver, ride.ID)
	if _, err := env.rideService.CompleteRide(ctx, driver, ride.ID); err != nil {
		t.Errorf("Expected assigned driver to complete, got %v", err)
	}
}

func TestRideService_CompleteRequiresRiderGateForCreator(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	admin := env.account(t, "root", entities.RoleAdmin, false)
	pending := env.account(t, "dan", entities.RoleDriver, false)

	for _, creator := range []*access.Identity{admin, pending} {
		ride, err := env.rideService.CreateRide(ctx, creator, CreateRideRequest{Origin: "A", Destination: "B"}, EntryAPI)
		if err != nil {
			t.Fatalf("CreateRide via API failed for %s: %v", creator.Username, err)
		}

		if _, err := env.rideService.CompleteRide(ctx, creator, ride.ID); !errors.Is(err, ErrNotPermitted) {
			t.Errorf("Expected %s to be refused completing their own API ride, got %v", creator.Username, err)
		}
		stored, _ := env.rides.GetByID(ctx, ride.ID)
		if stored.IsCompleted() {
			t.Errorf("Expected ride created by %s to stay open", creator.Username)
		}
	}
}

func TestRideService_CompleteTwiceKeepsCompletedAt(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	rider := env.account(t, "rita", entities.RoleRider, false)
	ride := env.createRide(t, rider)

	first := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	env.rideService.now = func() time.Time { return first }
	if _, err := env.rideService.CompleteRide(ctx, rider, ride.ID); err != nil {
		t.Fatalf("CompleteRide failed: %v", err)
	}

	env.rideService.now = func() time.Time { return first.Add(time.Hour) }
	_, err := env.rideService.CompleteRide(ctx, rider, ride.ID)
	var conflict *ConflictError
	if !errors.As(err, &conflict) || conflict.Status != entities.RideStatusCompleted {
		t.Fatalf("Expected completed conflict, got %v", err)
	}

	stored, _ := env.rides.GetByID(ctx, ride.ID)
	if !stored.CompletedAt.Equal(first) {
		t.Errorf("Expected completed_at %v, got %v", first, stored.CompletedAt)
	}
}

type brokenSender struct{ calls atomic.Int32 }

func (s *brokenSender) Name() string { return "broken" }

func (s *brokenSender) Send(ctx context.Context, event notify.Event) error {
	s.calls.Add(1)
	return errors.New("mail server unreachable")
}

func TestRideService_NotificationFailureIsSwallowed(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	sender := &brokenSender{}
	dispatcher := notify.NewDispatcher(logger.NewNop(), time.Second, sender)
	env.rideService = NewRideService(env.rides, env.users, dispatcher, logger.NewNop(), env.cfg)

	rider := env.account(t, "rita", entities.RoleRider, false)
	ride := env.createRide(t, rider)

	if _, err := env.rideService.CompleteRide(ctx, rider, ride.ID); err != nil {
		t.Fatalf("Expected completion to succeed despite notification failure, got %v", err)
	}
	dispatcher.Wait()

	if sender.calls.Load() != 1 {
		t.Errorf("Expected one send attempt, got %d", sender.calls.Load())
	}
	stored, _ := env.rides.GetByID(ctx, ride.ID)
	if !stored.IsCompleted() {
		t.Error("Expected ride to stay completed")
	}
}

func TestRideService_Listings(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	rider := env.account(t, "rita", entities.RoleRider, false)
	driver := env.account(t, "dan", entities.RoleDriver, true)

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, env.createRide(t, rider).ID)
	}
	env.rideService.AcceptRide(ctx, driver, ids[0])

	available, err := env.rideService.ListAvailable(ctx, rider, PageRequest{})
	if err != nil {
		t.Fatalf("Expected riders to list available rides, got %v", err)
	}
	if available.Count != 2 {
		t.Errorf("Expected 2 available rides, got %d", available.Count)
	}
	for _, r := range available.Results {
		if r.ID == ids[0] {
			t.Error("Expected assigned ride to be excluded")
		}
	}

	all, _ := env.rideService.ListRides(ctx, driver, PageRequest{Page: 2, PageSize: 2})
	if all.Count != 3 || len(all.Results) != 1 || all.Page != 2 {
		t.Errorf("Unexpected second page: %+v", all)
	}

	dash, err := env.rideService.DriverDashboard(ctx, driver)
	if err != nil {
		t.Fatalf("DriverDashboard failed: %v", err)
	}
	if len(dash.Available) != 2 || len(dash.Assigned) != 1 {
		t.Errorf("Unexpected dashboard: %d available, %d assigned", len(dash.Available), len(dash.Assigned))
	}

	mine, err := env.rideService.RiderDashboard(ctx, rider)
	if err != nil || len(mine) != 3 {
		t.Errorf("Expected 3 rider rides, got %d (%v)", len(mine), err)
	}
	if _, err := env.rideService.RiderDashboard(ctx, driver); !errors.Is(err, ErrNotPermitted) {
		t.Errorf("Expected driver to be denied rider dashboard, got %v", err)
	}
}
