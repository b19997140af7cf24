package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"ridehail/internal/blob"
	"ridehail/internal/config"
	"ridehail/internal/domain/entities"
	"ridehail/internal/repository"
	"ridehail/pkg/logger"
	"ridehail/pkg/utils"
)

// Entry identifies which surface a request came through. The web-form
// surface validates more strictly than the bare API.
type Entry int

const (
	EntryAPI Entry = iota
	EntryForm
)

// BlobStore is the part of blob.Store the services use.
type BlobStore interface {
	Put(ctx context.Context, prefix, filename string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

// Upload is a file supplied with a registration.
type Upload struct {
	Filename string
	Content  io.Reader
}

type RegistrationRequest struct {
	Username      string
	Email         string
	Password      string
	Role          string
	FullName      string
	Phone         string
	City          string
	VehicleType   string
	IDType        string
	IDNumber      string
	IDDocument    *Upload
	DriverLicense *Upload
}

type UserSummary struct {
	ID               string        `json:"id"`
	Username         string        `json:"username"`
	Email            string        `json:"email"`
	Role             entities.Role `json:"role"`
	IsDriverApproved bool          `json:"is_driver_approved"`
	PendingApproval  bool          `json:"pending_approval"`
}

func newUserSummary(user *entities.User, profile *entities.Profile) *UserSummary {
	s := &UserSummary{ID: user.ID, Username: user.Username, Email: user.Email}
	if profile != nil {
		s.Role = profile.Role
		s.IsDriverApproved = profile.IsDriverApproved
		s.PendingApproval = profile.AwaitingApproval()
	}
	return s
}

type RegistrationService struct {
	users            repository.UserRepository
	blobs            BlobStore
	log              logger.ILogger
	bcryptCost       int
	allowAdminSignup bool
	now              func() time.Time
}

func NewRegistrationService(
	users repository.UserRepository,
	blobs BlobStore,
	log logger.ILogger,
	cfg *config.Config,
) *RegistrationService {
	return &RegistrationService{
		users:            users,
		blobs:            blobs,
		log:              log,
		bcryptCost:       cfg.Auth.BcryptCost,
		allowAdminSignup: cfg.Auth.AllowAdminSignup,
		now:              time.Now,
	}
}

// Register validates the request and creates the user and profile together.
// Either both exist afterwards or neither does, and no uploaded blob is left
// behind on failure.
func (s *RegistrationService) Register(ctx context.Context, req RegistrationRequest, entry Entry) (*UserSummary, error) {
	req = trimRequest(req)

	role, profile, verr := s.validate(req, entry)

	taken, err := s.users.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if verr != nil {
		if taken && entry == EntryForm {
			verr.messages = append(verr.messages, "Username already taken")
		}
		return nil, verr.err()
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var stored []string
	cleanup := func() {
		for _, ref := range stored {
			if err := s.blobs.Delete(context.WithoutCancel(ctx), ref); err != nil {
				s.log.Warning("failed to remove orphaned upload", logger.String("ref", ref), logger.Error(err))
			}
		}
	}

	if role == entities.RoleDriver {
		ref, err := s.blobs.Put(ctx, blob.PrefixIDs, req.IDDocument.Filename, req.IDDocument.Content)
		if err != nil {
			return nil, fmt.Errorf("store id document: %w", err)
		}
		stored = append(stored, ref)
		profile.IDDocument = ref

		ref, err = s.blobs.Put(ctx, blob.PrefixLicenses, req.DriverLicense.Filename, req.DriverLicense.Content)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("store driver license: %w", err)
		}
		stored = append(stored, ref)
		profile.DriverLicense = ref
	}

	now := s.now()
	user := entities.NewUser(utils.GenerateID(), req.Username, req.Email, hash, now)
	profile.UserID = user.ID
	profile.CreatedAt = now
	profile.IsDriverApproved = false

	if err := s.users.CreateAccount(ctx, user, profile); err != nil {
		cleanup()
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.log.Info("account registered",
		logger.String("user_id", user.ID),
		logger.String("username", user.Username),
		logger.String("role", role.String()),
	)
	return newUserSummary(user, profile), nil
}

// validate checks every field and builds the profile to store. It reports
// all problems, not just the first.
func (s *RegistrationService) validate(req RegistrationRequest, entry Entry) (entities.Role, *entities.Profile, *validation) {
	v := &validation{}

	v.require(req.Username != "", "Username is required")
	v.require(req.Password != "", "Password is required")
	if entry == EntryForm {
		v.require(req.FullName != "", "Full name is required")
		v.require(req.Phone != "", "Phone number is required")
	}

	role, err := entities.ParseRole(req.Role)
	v.require(err == nil, "Role must be rider, driver or admin")
	if role == entities.RoleAdmin {
		v.require(s.allowAdminSignup, "Admin accounts cannot be self-registered")
	}

	var vehicleType entities.TransportType
	if req.VehicleType != "" {
		vehicleType, err = entities.ParseTransportType(req.VehicleType)
		v.require(err == nil, "Vehicle type must be taxi or bike")
	}

	idType, err := entities.ParseIDType(req.IDType)
	v.require(err == nil, "ID type must be nin or passport")

	if role == entities.RoleDriver {
		v.require(req.IDType != "", "ID type is required for drivers")
		v.require(req.IDNumber != "", "ID number is required for drivers")
		v.require(req.IDDocument != nil, "Please upload a photo of your ID (NIN or passport)")
		v.require(req.DriverLicense != nil, "Please upload your driver license")
	}

	profile := &entities.Profile{
		Role:        role,
		Phone:       req.Phone,
		City:        req.City,
		FullName:    req.FullName,
		VehicleType: vehicleType,
		IDType:      idType,
		IDNumber:    req.IDNumber,
	}

	if len(v.messages) == 0 {
		return role, profile, nil
	}
	return role, profile, v
}

// EnsureAdmin creates an admin account unless the username already exists.
// It reports whether an account was created.
func (s *RegistrationService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, &ValidationError{Messages: []string{"Admin username and password are required"}}
	}
	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return false, nil
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := entities.NewUser(utils.GenerateID(), username, "", hash, now)
	profile := &entities.Profile{UserID: user.ID, Role: entities.RoleAdmin, CreatedAt: now}
	if err := s.users.CreateAccount(ctx, user, profile); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}
	s.log.Info("admin account created", logger.String("username", username))
	return true, nil
}

func trimRequest(req RegistrationRequest) RegistrationRequest {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Role = strings.TrimSpace(req.Role)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.City = strings.TrimSpace(req.City)
	req.VehicleType = strings.TrimSpace(req.VehicleType)
	req.IDType = strings.TrimSpace(req.IDType)
	req.IDNumber = strings.TrimSpace(req.IDNumber)
	return req
}
