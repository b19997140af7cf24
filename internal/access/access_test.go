package access

import (
	"errors"
	"testing"

	"ridehail/internal/domain/entities"
)

func identity(role entities.Role, approved bool) *Identity {
	return &Identity{
		UserID:   "u1",
		Username: "user",
		Profile:  &entities.Profile{UserID: "u1", Role: role, IsDriverApproved: approved},
	}
}

func TestGates(t *testing.T) {
	tests := []struct {
		name   string
		id     *Identity
		driver bool
		rider  bool
		admin  bool
	}{
		{"anonymous", nil, false, false, false},
		{"empty identity", &Identity{}, false, false, false},
		{"no profile", &Identity{UserID: "u1"}, false, false, false},
		{"rider", identity(entities.RoleRider, false), false, true, false},
		{"pending driver", identity(entities.RoleDriver, false), false, false, false},
		{"approved driver", identity(entities.RoleDriver, true), true, false, false},
		{"admin", identity(entities.RoleAdmin, false), false, false, true},
		{"approved rider flag is ignored", identity(entities.RoleRider, true), false, true, false},
		{"unknown role", identity(entities.RoleUnknown, true), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DriverGate(tt.id); got != tt.driver {
				t.Errorf("DriverGate: expected %v, got %v", tt.driver, got)
			}
			if got := RiderGate(tt.id); got != tt.rider {
				t.Errorf("RiderGate: expected %v, got %v", tt.rider, got)
			}
			if got := AdminGate(tt.id); got != tt.admin {
				t.Errorf("AdminGate: expected %v, got %v", tt.admin, got)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	if err := Check(RiderGate, identity(entities.RoleDriver, true)); !errors.Is(err, ErrNotPermitted) {
		t.Errorf("Expected ErrNotPermitted, got %v", err)
	}
	if err := Check(Authenticated, &Identity{UserID: "u1"}); err != nil {
		t.Errorf("Expected authenticated caller to pass, got %v", err)
	}
}
