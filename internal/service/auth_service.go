package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/config"
	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/repository"
	"github.com/spec-kit/booking-service/pkg/util"
)

// AuthService coordinates registration and login flows for participants.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the underlying manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// RegisterParticipant creates a provider or requester account. SYSTEM is not
// a registrable role.
func (s *AuthService) RegisterParticipant(ctx context.Context, name, email, password string, role domain.ActorRole) (*domain.User, string, time.Time, error) {
	if role != domain.RoleProvider && role != domain.RoleRequester {
		return nil, "", time.Time{}, util.NewValidationError("role must be PROVIDER or REQUESTER", nil)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, util.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// LoginParticipant authenticates a participant and issues a role-bearing token.
func (s *AuthService) LoginParticipant(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, util.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, "", time.Time{}, util.NewForbidden("participant suspended")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, util.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}
