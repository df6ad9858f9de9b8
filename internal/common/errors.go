// Package common defines shared constants and sentinel errors used across
// the sitekeeper server, its repositories and the admin CLI. Callers should
// use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound   = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrStoreFailure = errors.New("store failure")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrRateLimited    = errors.New("too many attempts")

	// Validation errors. ValidationError values match ErrValidation.
	ErrValidation = errors.New("validation error")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Account state errors.
	ErrEmailNotVerified = errors.New("email not verified")
	ErrInvalidTOTP      = errors.New("invalid authentication code")
	ErrTwoFANotEnabled  = errors.New("two-factor authentication is not enabled")

	// Outbound mail errors.
	ErrDeliveryFailure = errors.New("mail delivery failed")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) true for any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
