package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// trip, activity, or traveler does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrStore is returned when the underlying persistence tier fails.
// The in-memory state is never modified when a store call fails.
// Handlers should map this to HTTP 503 with a generic message.
var ErrStore = errors.New("store error")

// FieldError is a validation failure attributable to one input field, so a
// caller can render the message next to that field.
// errors.Is(err, ErrValidation) holds for every FieldError.
type FieldError struct {
	Field   string
	Message string
}

// Invalid builds a FieldError for field with a formatted message.
func Invalid(field, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrValidation }

// NotFoundError names the kind of entity that was missing ("trip",
// "activity", "traveler") without echoing any identifier.
// errors.Is(err, ErrNotFound) holds for every NotFoundError.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
