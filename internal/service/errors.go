package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Common service errors
var (
	// ErrForbidden is returned when the actor lacks the capability, or the
	// record lies outside the actor's visibility scope
	ErrForbidden = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails outside a single field
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrInvalidCredentials is returned for a failed login or a wrong current password
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRegistrationDisabled is returned when self-service sign-up is turned off
	ErrRegistrationDisabled = errors.New("registration is disabled")

	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
	ErrClientNotFound = fmt.Errorf("client %w", ErrNotFound)
	ErrLeadNotFound   = fmt.Errorf("lead %w", ErrNotFound)
	ErrEventNotFound  = fmt.Errorf("event %w", ErrNotFound)
)

// notFound maps gorm's missing-row error to the given sentinel and wraps
// anything else.
func notFound(err error, sentinel error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}
