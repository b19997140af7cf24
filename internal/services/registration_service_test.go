package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"ridehail/internal/blob"
	"ridehail/internal/domain/entities"
	"ridehail/internal/repository"
	"ridehail/internal/repository/memory"
	"ridehail/pkg/logger"
)

func driverRequest(username string) RegistrationRequest {
	return RegistrationRequest{
		Username:      username,
		Password:      "secret",
		Role:          "driver",
		FullName:      "Dan Driver",
		Phone:         "+100",
		VehicleType:   "bike",
		IDType:        "passport",
		IDNumber:      "P123",
		IDDocument:    &Upload{Filename: "id.png", Content: strings.NewReader("id")},
		DriverLicense: &Upload{Filename: "license.png", Content: strings.NewReader("lic")},
	}
}

func countFiles(t *testing.T, fs afero.Fs) int {
	t.Helper()
	n := 0
	for _, dir := range []string{blob.PrefixIDs, blob.PrefixLicenses} {
		entries, _ := afero.ReadDir(fs, dir)
		n += len(entries)
	}
	return n
}

func TestRegistration_DriverStartsUnapproved(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	summary, err := env.registration.Register(ctx, driverRequest("dan"), EntryForm)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if summary.Role != entities.RoleDriver || summary.IsDriverApproved || !summary.PendingApproval {
		t.Errorf("Expected pending driver, got %+v", summary)
	}

	profile, _ := env.users.GetProfile(ctx, summary.ID)
	if profile.IsDriverApproved {
		t.Error("Expected stored profile to be unapproved")
	}
	if !strings.HasPrefix(profile.IDDocument, "ids/") || !strings.HasPrefix(profile.DriverLicense, "licenses/") {
		t.Errorf("Unexpected document refs: %q %q", profile.IDDocument, profile.DriverLicense)
	}
	if profile.VehicleType != entities.TransportBike || profile.IDType != entities.IDTypePassport {
		t.Errorf("Unexpected profile fields: %+v", profile)
	}

	user, _ := env.users.GetByUsername(ctx, "dan")
	if string(user.PasswordHash) == "secret" {
		t.Error("Expected password to be hashed")
	}
}

func TestRegistration_ReportsEveryMissingField(t *testing.T) {
	env := setupServices(t)

	_, err := env.registration.Register(context.Background(), RegistrationRequest{Role: "driver"}, EntryForm)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	want := []string{
		"Username is required",
		"Password is required",
		"Full name is required",
		"Phone number is required",
		"ID type is required for drivers",
		"ID number is required for drivers",
		"Please upload a photo of your ID (NIN or passport)",
		"Please upload your driver license",
	}
	if len(verr.Messages) != len(want) {
		t.Fatalf("Expected %d messages, got %v", len(want), verr.Messages)
	}
	for i := range want {
		if verr.Messages[i] != want[i] {
			t.Errorf("Message %d: expected %q, got %q", i, want[i], verr.Messages[i])
		}
	}
}

func TestRegistration_APIEntryIsLenient(t *testing.T) {
	env := setupServices(t)

	summary, err := env.registration.Register(context.Background(),
		RegistrationRequest{Username: "rita", Password: "pw"}, EntryAPI)
	if err != nil {
		t.Fatalf("Expected API registration without name or phone to succeed, got %v", err)
	}
	if summary.Role != entities.RoleRider {
		t.Errorf("Expected default role rider, got %s", summary.Role)
	}

	_, err = env.registration.Register(context.Background(),
		RegistrationRequest{Username: "dora", Password: "pw", Role: "driver"}, EntryAPI)
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Messages) != 4 {
		t.Errorf("Expected the 4 driver messages on the API entry, got %v", err)
	}
}

func TestRegistration_DuplicateUsernameCreatesNothing(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	if _, err := env.registration.Register(ctx, driverRequest("dan"), EntryAPI); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	before := countFiles(t, env.fs)

	_, err := env.registration.Register(ctx, driverRequest("dan"), EntryAPI)
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("Expected ErrUsernameTaken, got %v", err)
	}

	accounts, _ := env.users.ListProfiles(ctx, repository.ProfileFilter{})
	if len(accounts) != 1 {
		t.Errorf("Expected 1 account, got %d", len(accounts))
	}
	if after := countFiles(t, env.fs); after != before {
		t.Errorf("Expected no new uploads, had %d now %d", before, after)
	}
}

func TestRegistration_FormListsTakenUsernameWithOtherErrors(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	env.account(t, "rita", entities.RoleRider, false)

	_, err := env.registration.Register(ctx, RegistrationRequest{Username: "rita"}, EntryForm)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	last := verr.Messages[len(verr.Messages)-1]
	if last != "Username already taken" {
		t.Errorf("Expected taken username in the list, got %v", verr.Messages)
	}
}

// racingUsers reports usernames as free but fails the write, as happens
// when another registration wins between the check and the insert.
type racingUsers struct {
	*memory.UserRepository
}

func (r racingUsers) CreateAccount(ctx context.Context, user *entities.User, profile *entities.Profile) error {
	return repository.ErrUsernameTaken
}

func TestRegistration_FailedWriteRemovesUploads(t *testing.T) {
	env := setupServices(t)
	svc := NewRegistrationService(racingUsers{memory.NewUserRepository()}, blob.NewStore(env.fs), logger.NewNop(), env.cfg)

	_, err := svc.Register(context.Background(), driverRequest("dan"), EntryForm)
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("Expected ErrUsernameTaken, got %v", err)
	}
	if n := countFiles(t, env.fs); n != 0 {
		t.Errorf("Expected uploads to be removed, found %d", n)
	}
}

func TestRegistration_AdminSignupDisabledByDefault(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	_, err := env.registration.Register(ctx, RegistrationRequest{Username: "root", Password: "pw", Role: "admin"}, EntryAPI)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}

	created, err := env.registration.EnsureAdmin(ctx, "root", "pw")
	if err != nil || !created {
		t.Fatalf("Expected admin to be created, got %v %v", created, err)
	}
	created, err = env.registration.EnsureAdmin(ctx, "root", "pw")
	if err != nil || created {
		t.Errorf("Expected second EnsureAdmin to be a no-op, got %v %v", created, err)
	}
}

func TestRegistration_InvalidChoices(t *testing.T) {
	env := setupServices(t)

	req := RegistrationRequest{Username: "x", Password: "pw", Role: "pilot", IDType: "licence", VehicleType: "boat"}
	_, err := env.registration.Register(context.Background(), req, EntryAPI)

	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Messages) != 3 {
		t.Errorf("Expected 3 choice errors, got %v", err)
	}
}
