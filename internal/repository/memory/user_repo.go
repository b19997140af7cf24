package memory

import (
	"context"
	"sort"
	"sync"

	"ridehail/internal/domain/entities"
	"ridehail/internal/repository"
)

// UserRepository keeps users and their profiles behind a single mutex, so an
// account is either fully stored or not stored at all.
type UserRepository struct {
	mu         sync.RWMutex
	users      map[string]*entities.User
	byUsername map[string]string
	profiles   map[string]*entities.Profile
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:      make(map[string]*entities.User),
		byUsername: make(map[string]string),
		profiles:   make(map[string]*entities.Profile),
	}
}

func (r *UserRepository) CreateAccount(ctx context.Context, user *entities.User, profile *entities.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[user.Username]; taken {
		return repository.ErrUsernameTaken
	}

	r.users[user.ID] = cloneUser(user)
	r.byUsername[user.Username] = user.ID
	p := *profile
	p.UserID = user.ID
	r.profiles[user.ID] = &p
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, repository.ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byUsername[username]
	if !exists {
		return nil, repository.ErrNotFound
	}
	return cloneUser(r.users[id]), nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.byUsername[username]
	return exists, nil
}

func (r *UserRepository) GetProfile(ctx context.Context, userID string) (*entities.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, exists := r.profiles[userID]
	if !exists {
		return nil, repository.ErrNotFound
	}
	p := *profile
	return &p, nil
}

func (r *UserRepository) ListProfiles(ctx context.Context, filter repository.ProfileFilter) ([]*repository.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var accounts []*repository.Account
	for id, profile := range r.profiles {
		if filter.Role != nil && profile.Role != *filter.Role {
			continue
		}
		if filter.Approved != nil && profile.IsDriverApproved != *filter.Approved {
			continue
		}
		p := *profile
		accounts = append(accounts, &repository.Account{User: cloneUser(r.users[id]), Profile: &p})
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].User.Username < accounts[j].User.Username
	})
	return accounts, nil
}

func (r *UserRepository) ApproveDrivers(ctx context.Context, userIDs []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := 0
	seen := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		profile, exists := r.profiles[id]
		if !exists || profile.Role != entities.RoleDriver {
			continue
		}
		profile.IsDriverApproved = true
		matched++
	}
	return matched, nil
}

func cloneUser(u *entities.User) *entities.User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &c
}
