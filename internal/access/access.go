// Package access holds the role gates every protected operation runs through.
//
// Go Learning Note — Explicit Caller Identity:
// Services receive the caller as an ordinary Identity argument instead of
// digging it out of a request. That keeps the gates pure functions that are
// trivial to test, and the same predicates back both the gin middleware and
// the service-level checks.
package access

import (
	"errors"

	"ridehail/internal/domain/entities"
)

var ErrNotPermitted = errors.New("not permitted")

// Identity is the authenticated caller. Profile is nil for a user that has
// no profile row.
type Identity struct {
	UserID   string
	Username string
	Profile  *entities.Profile
}

func (id *Identity) Authenticated() bool {
	return id != nil && id.UserID != ""
}

// Role returns the caller's role, or RoleUnknown without a profile.
func (id *Identity) Role() entities.Role {
	if !id.Authenticated() || id.Profile == nil {
		return entities.RoleUnknown
	}
	return id.Profile.Role
}

// Gate decides whether an identity may proceed.
type Gate func(id *Identity) bool

// DriverGate admits approved drivers only.
func DriverGate(id *Identity) bool {
	switch id.Role() {
	case entities.RoleDriver:
		return id.Profile.IsDriverApproved
	case entities.RoleRider, entities.RoleAdmin:
		return false
	}
	return false
}

func RiderGate(id *Identity) bool {
	switch id.Role() {
	case entities.RoleRider:
		return true
	case entities.RoleDriver, entities.RoleAdmin:
		return false
	}
	return false
}

func AdminGate(id *Identity) bool {
	switch id.Role() {
	case entities.RoleAdmin:
		return true
	case entities.RoleRider, entities.RoleDriver:
		return false
	}
	return false
}

// Authenticated admits any caller with a user id.
func Authenticated(id *Identity) bool {
	return id.Authenticated()
}

// Check runs the gate and returns ErrNotPermitted when it refuses.
func Check(gate Gate, id *Identity) error {
	if !gate(id) {
		return ErrNotPermitted
	}
	return nil
}
