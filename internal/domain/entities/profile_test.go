package entities

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"", RoleRider, false},
		{"rider", RoleRider, false},
		{"driver", RoleDriver, false},
		{"admin", RoleAdmin, false},
		{"Driver", RoleUnknown, true},
		{"superuser", RoleUnknown, true},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRole(%q): unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestRole_TextRoundTrip(t *testing.T) {
	text, _ := RoleDriver.MarshalText()
	var r Role
	if err := r.UnmarshalText(text); err != nil || r != RoleDriver {
		t.Errorf("Expected driver, got %s (%v)", r, err)
	}
}

func TestProfile_AwaitingApproval(t *testing.T) {
	driver := &Profile{Role: RoleDriver}
	if !driver.AwaitingApproval() {
		t.Error("Expected new driver to await approval")
	}
	driver.IsDriverApproved = true
	if driver.AwaitingApproval() {
		t.Error("Expected approved driver not to await approval")
	}
	rider := &Profile{Role: RoleRider}
	if rider.AwaitingApproval() {
		t.Error("Expected rider never to await approval")
	}
}
