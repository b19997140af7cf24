package memory

import (
	"context"
	"testing"
	"time"

	"ridehail/internal/domain/entities"
)

func TestUserRepository_ReadsAreCopies(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	user := entities.NewUser("u1", "alice", "", []byte("hash"), time.Now())
	if err := repo.CreateAccount(ctx, user, &entities.Profile{Role: entities.RoleDriver}); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	read, _ := repo.GetByID(ctx, "u1")
	read.PasswordHash[0] = 'X'
	profile, _ := repo.GetProfile(ctx, "u1")
	profile.IsDriverApproved = true

	stored, _ := repo.GetByUsername(ctx, "alice")
	if string(stored.PasswordHash) != "hash" {
		t.Errorf("Expected stored hash to be unaffected, got %q", stored.PasswordHash)
	}
	if p, _ := repo.GetProfile(ctx, "u1"); p.IsDriverApproved {
		t.Error("Expected stored profile to stay unapproved")
	}
}
