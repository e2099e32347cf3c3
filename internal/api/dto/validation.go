package dto

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"

	apperrors "github.com/spec-kit/pet-adoption/pkg/util"
)

// Validatable is implemented by request payloads.
type Validatable interface {
	Validate() error
}

// ValidateRequest runs payload validation and converts field errors into a
// VALIDATION_FAILED error carrying one detail per field.
func ValidateRequest(payload Validatable) error {
	err := payload.Validate()
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]any, len(fieldErrs))
		for field, fieldErr := range fieldErrs {
			details[field] = fieldErr.Error()
		}
		return apperrors.NewValidationError("validation failed", details)
	}
	return apperrors.NewValidationError(err.Error(), nil)
}
