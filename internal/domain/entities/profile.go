// Package entities defines the core domain models for the ride-hailing system:
// users and their profiles, vehicles, and ride requests. They have no
// dependencies on databases, HTTP, or external services.
//
// Go Learning Note — "internal/" directory:
// Packages under internal/ cannot be imported by code outside this module. Go
// enforces this at the compiler level.
package entities

import (
	"fmt"
	"time"
)

// Role is a closed set of account roles.
//
// Go Learning Note — Closed Enums:
// Go has no sum types, so a small integer type with unexported zero value is
// the usual way to get a closed variant. The zero value is RoleUnknown, which
// never passes any gate, and every switch over Role lists all three real
// roles so a new role forces a review of each gate.
type Role int

const (
	RoleUnknown Role = iota
	RoleRider
	RoleDriver
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleRider:
		return "rider"
	case RoleDriver:
		return "driver"
	case RoleAdmin:
		return "admin"
	}
	return "unknown"
}

// ParseRole maps the wire name to a Role. An empty string defaults to rider.
func ParseRole(s string) (Role, error) {
	switch s {
	case "", "rider":
		return RoleRider, nil
	case "driver":
		return RoleDriver, nil
	case "admin":
		return RoleAdmin, nil
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// IDType is the kind of identity document a driver supplies.
type IDType string

const (
	IDTypeNone     IDType = ""
	IDTypeNIN      IDType = "nin"
	IDTypePassport IDType = "passport"
)

func ParseIDType(s string) (IDType, error) {
	switch IDType(s) {
	case IDTypeNone, IDTypeNIN, IDTypePassport:
		return IDType(s), nil
	}
	return IDTypeNone, fmt.Errorf("unknown id type %q", s)
}

// Profile is the one-to-one extension of a User carrying role and identity
// data. IDDocument and DriverLicense hold blob references.
type Profile struct {
	UserID           string        `json:"user_id"`
	Role             Role          `json:"role"`
	Phone            string        `json:"phone"`
	City             string        `json:"city"`
	FullName         string        `json:"full_name"`
	VehicleType      TransportType `json:"vehicle_type"`
	IDType           IDType        `json:"id_type"`
	IDNumber         string        `json:"id_number"`
	IDDocument       string        `json:"id_document,omitempty"`
	DriverLicense    string        `json:"driver_license,omitempty"`
	IsDriverApproved bool          `json:"is_driver_approved"`
	CreatedAt        time.Time     `json:"created"`
}

// AwaitingApproval reports whether a driver still needs an admin's approval.
func (p *Profile) AwaitingApproval() bool {
	return p.Role == RoleDriver && !p.IsDriverApproved
}
