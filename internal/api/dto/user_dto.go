package dto

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/spec-kit/pet-adoption/internal/auth"
	"github.com/spec-kit/pet-adoption/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Validate checks the registration payload.
func (r UserRegisterRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 0), validation.By(maxPasswordBytes)),
	)
}

// bcrypt reads at most 72 bytes; Length counts runes.
func maxPasswordBytes(value interface{}) error {
	password, _ := value.(string)
	if len(password) > auth.MaxPasswordBytes {
		return fmt.Errorf("must not exceed %d bytes", auth.MaxPasswordBytes)
	}
	return nil
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Validate checks the login payload.
func (r UserLoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// NewAuthResponse maps a user and token.
func NewAuthResponse(user *domain.User, token domain.Token) AuthResponse {
	return AuthResponse{
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
		User: UserResponse{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	}
}
