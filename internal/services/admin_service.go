package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ridehail/internal/access"
	"ridehail/internal/domain/entities"
	"ridehail/internal/repository"
	"ridehail/pkg/logger"
)

// Document kinds accepted by OpenDocument.
const (
	DocumentID            = "id_document"
	DocumentDriverLicense = "driver_license"
)

// AdminService covers the administrative actions: reviewing profiles,
// approving drivers, closing rides in bulk and reading uploaded documents.
type AdminService struct {
	users repository.UserRepository
	rides repository.RideRepository
	blobs BlobStore
	log   logger.ILogger
	now   func() time.Time
}

func NewAdminService(
	users repository.UserRepository,
	rides repository.RideRepository,
	blobs BlobStore,
	log logger.ILogger,
) *AdminService {
	return &AdminService{
		users: users,
		rides: rides,
		blobs: blobs,
		log:   log,
		now:   time.Now,
	}
}

type ProfileView struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	entities.Profile
}

func (s *AdminService) ListProfiles(ctx context.Context, caller *access.Identity, filter repository.ProfileFilter) ([]*ProfileView, error) {
	if err := access.Check(access.AdminGate, caller); err != nil {
		return nil, err
	}
	accounts, err := s.users.ListProfiles(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	views := make([]*ProfileView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, &ProfileView{Username: a.User.Username, Email: a.User.Email, Profile: *a.Profile})
	}
	return views, nil
}

// ApproveDrivers approves every listed driver and returns how many matched.
func (s *AdminService) ApproveDrivers(ctx context.Context, caller *access.Identity, userIDs []string) (int, error) {
	if err := access.Check(access.AdminGate, caller); err != nil {
		return 0, err
	}
	if len(userIDs) == 0 {
		return 0, &ValidationError{Messages: []string{"At least one user id is required"}}
	}
	n, err := s.users.ApproveDrivers(ctx, userIDs)
	if err != nil {
		return 0, fmt.Errorf("approve drivers: %w", err)
	}
	s.log.Info("drivers approved", logger.Int("count", n), logger.String("admin_id", caller.UserID))
	return n, nil
}

// ApproveDriver approves a single driver. Non-drivers are reported as not
// found.
func (s *AdminService) ApproveDriver(ctx context.Context, caller *access.Identity, userID string) error {
	n, err := s.ApproveDrivers(ctx, caller, []string{userID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CompleteRides marks rides completed in bulk. Rides that are already
// completed keep their original completed_at.
func (s *AdminService) CompleteRides(ctx context.Context, caller *access.Identity, rideIDs []string) (int, error) {
	if err := access.Check(access.AdminGate, caller); err != nil {
		return 0, err
	}
	if len(rideIDs) == 0 {
		return 0, &ValidationError{Messages: []string{"At least one ride id is required"}}
	}
	n, err := s.rides.CompleteMany(ctx, rideIDs, s.now())
	if err != nil {
		return 0, fmt.Errorf("complete rides: %w", err)
	}
	s.log.Info("rides completed by admin", logger.Int("count", n), logger.String("admin_id", caller.UserID))
	return n, nil
}

// OpenDocument streams one of a user's uploaded documents. The caller closes
// the reader.
func (s *AdminService) OpenDocument(ctx context.Context, caller *access.Identity, userID, kind string) (io.ReadCloser, string, error) {
	if err := access.Check(access.AdminGate, caller); err != nil {
		return nil, "", err
	}
	profile, err := s.users.GetProfile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrUserNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("get profile: %w", err)
	}

	var ref string
	switch kind {
	case DocumentID:
		ref = profile.IDDocument
	case DocumentDriverLicense:
		ref = profile.DriverLicense
	default:
		return nil, "", &ValidationError{Messages: []string{"Document kind must be id_document or driver_license"}}
	}
	if ref == "" {
		return nil, "", ErrDocumentNotFound
	}

	rc, err := s.blobs.Open(ctx, ref)
	if err != nil {
		s.log.Warning("stored document unreadable", logger.String("user_id", userID), logger.String("ref", ref), logger.Error(err))
		return nil, "", ErrDocumentNotFound
	}
	return rc, ref, nil
}
