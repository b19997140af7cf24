package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/crypto/bcrypt"

	"ridehail/internal/access"
	"ridehail/internal/blob"
	"ridehail/internal/config"
	"ridehail/internal/domain/entities"
	"ridehail/internal/notify"
	"ridehail/internal/repository/memory"
	"ridehail/pkg/logger"
	"ridehail/pkg/token"
	"ridehail/pkg/utils"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Fire(event notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type testEnv struct {
	cfg      *config.Config
	fs       afero.Fs
	users    *memory.UserRepository
	rides    *memory.RideRepository
	vehicles *memory.VehicleRepository
	notifier *recordingNotifier

	registration   *RegistrationService
	rideService    *RideService
	vehicleService *VehicleService
	admin          *AdminService
	auth           *AuthService
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.NewDefaultConfig()
	cfg.Auth.BcryptCost = bcrypt.MinCost
	log := logger.NewNop()

	env := &testEnv{
		cfg:      cfg,
		fs:       afero.NewMemMapFs(),
		users:    memory.NewUserRepository(),
		rides:    memory.NewRideRepository(),
		vehicles: memory.NewVehicleRepository(),
		notifier: &recordingNotifier{},
	}
	blobs := blob.NewStore(env.fs)

	env.registration = NewRegistrationService(env.users, blobs, log, cfg)
	env.rideService = NewRideService(env.rides, env.users, env.notifier, log, cfg)
	env.vehicleService = NewVehicleService(env.vehicles, env.users, log, cfg)
	env.admin = NewAdminService(env.users, env.rides, blobs, log)
	env.auth = NewAuthService(env.users, token.NewJWTService("test-secret", time.Hour), log)
	return env
}

// account stores a user directly and returns its identity as the auth
// middleware would build it.
func (e *testEnv) account(t *testing.T, username string, role entities.Role, approved bool) *access.Identity {
	t.Helper()
	ctx := context.Background()

	hash, _ := utils.HashPassword("pw", bcrypt.MinCost)
	user := entities.NewUser(utils.GenerateID(), username, username+"@example.com", hash, time.Now())
	profile := &entities.Profile{
		Role:     role,
		FullName: "Full " + username,
		Phone:    "+1-" + username,
	}
	if err := e.users.CreateAccount(ctx, user, profile); err != nil {
		t.Fatalf("CreateAccount(%s) failed: %v", username, err)
	}
	if approved {
		e.users.ApproveDrivers(ctx, []string{user.ID})
	}

	stored, _ := e.users.GetProfile(ctx, user.ID)
	return &access.Identity{UserID: user.ID, Username: username, Profile: stored}
}

func (e *testEnv) createRide(t *testing.T, rider *access.Identity) *RideView {
	t.Helper()
	view, err := e.rideService.CreateRide(context.Background(), rider, CreateRideRequest{Origin: "A", Destination: "B"}, EntryForm)
	if err != nil {
		t.Fatalf("CreateRide failed: %v", err)
	}
	return view
}
