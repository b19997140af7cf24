// Package repository declares the storage contracts used by the services.
// Two backends implement them: memory (development and tests) and postgres.
//
// Go Learning Note — Interfaces Belong to the Consumer:
// The services only ever see these interfaces, so the backend is chosen once
// in main() and nothing else changes. Conditional writes such as AssignDriver
// are part of the contract: each backend must apply them atomically.
package repository

import (
	"context"
	"errors"
	"time"

	"ridehail/internal/domain/entities"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already taken")
	// ErrConflict is returned by a conditional write whose guard no longer
	// holds. The returned ride carries the current state.
	ErrConflict = errors.New("conditional update rejected")
)

// Page is an offset/limit window over an ordered listing.
type Page struct {
	Offset int
	Limit  int
}

// ProfileFilter narrows ListProfiles. Nil fields match everything.
type ProfileFilter struct {
	Role     *entities.Role
	Approved *bool
}

// Account is a user joined with its profile.
type Account struct {
	User    *entities.User
	Profile *entities.Profile
}

type UserRepository interface {
	// CreateAccount stores the user and its profile in one atomic write.
	// A duplicate username yields ErrUsernameTaken and stores nothing.
	CreateAccount(ctx context.Context, user *entities.User, profile *entities.Profile) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	GetProfile(ctx context.Context, userID string) (*entities.Profile, error)
	ListProfiles(ctx context.Context, filter ProfileFilter) ([]*Account, error)
	// ApproveDrivers flags the given driver profiles as approved and returns
	// how many driver profiles matched. Non-driver ids are ignored.
	ApproveDrivers(ctx context.Context, userIDs []string) (int, error)
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *entities.Vehicle) error
	GetByID(ctx context.Context, id string) (*entities.Vehicle, error)
	List(ctx context.Context, page Page) ([]*entities.Vehicle, int, error)
	Update(ctx context.Context, vehicle *entities.Vehicle) error
	Delete(ctx context.Context, id string) error
}

type RideRepository interface {
	Create(ctx context.Context, ride *entities.Ride) error
	GetByID(ctx context.Context, id string) (*entities.Ride, error)
	// List returns one page of rides, newest first, plus the total count.
	List(ctx context.Context, page Page) ([]*entities.Ride, int, error)
	ListAvailable(ctx context.Context, page Page) ([]*entities.Ride, int, error)
	ListByRider(ctx context.Context, riderID string) ([]*entities.Ride, error)
	ListByDriver(ctx context.Context, driverID string) ([]*entities.Ride, error)

	// AssignDriver sets driver, status=assigned and assigned_at only if the
	// ride has no driver and is still requested. When the guard fails it
	// returns the current ride and ErrConflict.
	AssignDriver(ctx context.Context, rideID, driverID string, at time.Time) (*entities.Ride, error)
	// CompleteRide sets status=completed and completed_at only if the ride is
	// not already completed. When the guard fails it returns the current
	// ride and ErrConflict.
	CompleteRide(ctx context.Context, rideID string, at time.Time) (*entities.Ride, error)
	// CompleteMany completes every listed ride that is not yet completed and
	// returns how many were changed.
	CompleteMany(ctx context.Context, rideIDs []string, at time.Time) (int, error)
}
