package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_Taxonomy(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"validation", NewValidationError("bad", nil), CodeValidation, http.StatusBadRequest},
		{"not found", NewNotFound("pet", nil), CodeNotFound, http.StatusNotFound},
		{"invalid state", NewInvalidState("pet not available", nil), CodeInvalidState, http.StatusConflict},
		{"conflict", NewConflict("already applied", nil), CodeConflict, http.StatusConflict},
		{"unauthorized", NewUnauthorized("invalid token"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", NewForbidden("insufficient role"), CodeForbidden, http.StatusForbidden},
		{"wrapped", fmt.Errorf("apply: %w", NewConflict("dup", nil)), CodeConflict, http.StatusConflict},
		{"fiber not found", fiber.ErrNotFound, CodeNotFound, http.StatusNotFound},
		{"fiber bad request", fiber.NewError(http.StatusBadRequest, "invalid payload"), CodeValidation, http.StatusBadRequest},
		{"unknown", errors.New("connection reset"), CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDomainError(tc.err)
			require.NotNil(t, got)
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.status, got.HTTPStatus)
		})
	}
}

func TestToDomainError_HidesInternalDetails(t *testing.T) {
	got := ToDomainError(errors.New("pq: relation pets does not exist"))
	assert.Equal(t, "internal server error", got.Message)
	assert.ErrorContains(t, got, "relation pets")
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("decide: %w", NewConflict("application already decided", nil))
	assert.True(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeConflict))
}
