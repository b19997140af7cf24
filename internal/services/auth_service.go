package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ridehail/internal/access"
	"ridehail/internal/domain/entities"
	"ridehail/internal/repository"
	"ridehail/pkg/logger"
	"ridehail/pkg/token"
	"ridehail/pkg/utils"
)

// Landing pages a client should open after login, by role.
const (
	LandingAdmin   = "/admin/profiles"
	LandingPending = "/pending"
	LandingDriver  = "/driver/dashboard"
	LandingRider   = "/rider/dashboard"
)

type TokenIssuer interface {
	Issue(userID string) (*token.Issued, error)
	Subject(tokenStr string) (string, error)
}

// AuthService checks credentials, issues bearer tokens and resolves a token
// back into a caller identity.
type AuthService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	log    logger.ILogger
}

func NewAuthService(users repository.UserRepository, tokens TokenIssuer, log logger.ILogger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Landing   string       `json:"landing"`
	User      *UserSummary `json:"user"`
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidLogin
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		s.log.Debug("login rejected", logger.String("username", username))
		return nil, ErrInvalidLogin
	}

	profile, err := s.users.GetProfile(ctx, user.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	issued, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     issued.SignedToken,
		ExpiresAt: issued.ExpiresAt,
		Landing:   landingFor(profile),
		User:      newUserSummary(user, profile),
	}, nil
}

// Identify resolves a bearer token into the caller. Role and approval are
// read from storage on every call, so an approval takes effect immediately.
func (s *AuthService) Identify(ctx context.Context, bearer string) (*access.Identity, error) {
	userID, err := s.tokens.Subject(bearer)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, token.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	id := &access.Identity{UserID: user.ID, Username: user.Username}
	profile, err := s.users.GetProfile(ctx, user.ID)
	switch {
	case err == nil:
		id.Profile = profile
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return id, nil
}

// Me describes the caller for GET /me.
func (s *AuthService) Me(ctx context.Context, caller *access.Identity) (*UserSummary, string, error) {
	if err := access.Check(access.Authenticated, caller); err != nil {
		return nil, "", err
	}
	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, "", ErrUserNotFound
	}
	return newUserSummary(user, caller.Profile), landingFor(caller.Profile), nil
}

func landingFor(profile *entities.Profile) string {
	if profile == nil {
		return LandingRider
	}
	switch profile.Role {
	case entities.RoleAdmin:
		return LandingAdmin
	case entities.RoleDriver:
		if !profile.IsDriverApproved {
			return LandingPending
		}
		return LandingDriver
	case entities.RoleRider:
		return LandingRider
	}
	return LandingRider
}
