package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/pet-adoption/internal/auth"
	"github.com/spec-kit/pet-adoption/internal/config"
	"github.com/spec-kit/pet-adoption/internal/domain"
	"github.com/spec-kit/pet-adoption/internal/repository"
	apperrors "github.com/spec-kit/pet-adoption/pkg/util"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

const invalidCredentials = "invalid credentials"

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	dummyHash  string
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, store repository.Store) (*AuthService, error) {
	// compared against on unknown emails so both login failures cost one bcrypt run
	dummy, err := auth.HashPassword("pet-adoption-dummy-password", cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:      store.Users(),
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		dummyHash:  dummy,
	}, nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a USER account and issues its first token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, domain.Token, error) {
	name := strings.TrimSpace(input.Name)
	email := NormalizeEmail(input.Email)
	if name == "" || email == "" {
		return nil, domain.Token{}, apperrors.NewValidationError("name and email are required", nil)
	}
	if err := checkPasswordLength(input.Password); err != nil {
		return nil, domain.Token{}, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.Token{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, domain.Token{}, apperrors.NewInternalError(err)
	}

	user, err := s.createUser(ctx, name, email, input.Password, domain.RoleUser)
	if err != nil {
		return nil, domain.Token{}, err
	}
	token, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, domain.Token{}, apperrors.NewInternalError(err)
	}
	return user, token, nil
}

// Login authenticates a user. Unknown emails and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, domain.Token, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Token{}, apperrors.NewInternalError(err)
		}
		_ = auth.ComparePassword(s.dummyHash, password)
		return nil, domain.Token{}, apperrors.NewUnauthorized(invalidCredentials)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, domain.Token{}, apperrors.NewUnauthorized(invalidCredentials)
	}

	token, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, domain.Token{}, apperrors.NewInternalError(err)
	}
	return user, token, nil
}

// EnsureAdmin creates an ADMIN account for email unless one is registered.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = NormalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	if _, err := s.createUser(ctx, strings.TrimSpace(name), email, password, domain.RoleAdmin); err != nil {
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, passwordTooLong()
		}
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

func checkPasswordLength(password string) error {
	if len(password) < MinPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{
			"password": "must be at least 8 characters",
		})
	}
	if len(password) > auth.MaxPasswordBytes {
		return passwordTooLong()
	}
	return nil
}

func passwordTooLong() error {
	return apperrors.NewValidationError("password too long", map[string]any{
		"password": fmt.Sprintf("must not exceed %d bytes", auth.MaxPasswordBytes),
	})
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
