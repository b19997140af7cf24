package token

import (
	"errors"
	"testing"
	"time"
)

func TestJWTService_IssueAndSubject(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	issued, err := svc.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if issued.JTI == "" || issued.SignedToken == "" {
		t.Fatal("Expected signed token and jti")
	}

	sub, err := svc.Subject(issued.SignedToken)
	if err != nil {
		t.Fatalf("Subject failed: %v", err)
	}
	if sub != "user-1" {
		t.Errorf("Expected user-1, got %s", sub)
	}
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	issued, _ := NewJWTService("secret", time.Hour).Issue("user-1")

	_, err := NewJWTService("other", time.Hour).Subject(issued.SignedToken)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := NewJWTService("secret", time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	issued, _ := svc.Issue("user-1")

	svc.now = time.Now
	if _, err := svc.Subject(issued.SignedToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	if _, err := svc.Subject("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}
