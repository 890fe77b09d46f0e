package domain

import (
	"errors"
	"fmt"
)

// ErrValidation matches every *ValidationError with errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError is a client-side precondition failure, reported before any
// network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ErrMalformed wraps schema violations in decoded API payloads.
var ErrMalformed = errors.New("malformed payload")

func malformed(entity, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrMalformed, entity, reason)
}
