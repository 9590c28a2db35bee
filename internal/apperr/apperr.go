package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the inventory core. Services wrap these with context via
// fmt.Errorf("...: %w", err); handlers map them to HTTP statuses with
// StatusCode and never leak storage internals.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("resource not found")
	ErrAlreadyExists       = errors.New("resource already exists")
	ErrNoOpAdjustment      = errors.New("adjustment would not change the quantity")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrConcurrencyConflict = errors.New("record was modified concurrently, re-fetch and retry")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
)

// Validationf builds a field-level validation error.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf builds a not-found error naming the missing resource.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// StatusCode maps an error to its HTTP status. Unknown errors are treated as
// system errors (500); the handler logs them and returns a generic message.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNoOpAdjustment):
		return 400
	case errors.Is(err, ErrUnauthorized):
		return 401
	case errors.Is(err, ErrForbidden):
		return 403
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrConcurrencyConflict):
		return 409
	default:
		return 500
	}
}

// IsRecoverable reports whether the caller can fix the request and retry.
func IsRecoverable(err error) bool {
	return StatusCode(err) != 500
}
