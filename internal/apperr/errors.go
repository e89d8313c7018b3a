// Package apperr holds the client-facing error types shared by the identity and user services.
package apperr

import (
	"errors"
	"fmt"
)

// ErrConflict matches every *ConflictError through errors.Is.
var ErrConflict = errors.New("conflict")

// ConflictError reports a uniqueness collision on Field, or an active session blocking login.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already in use", e.Field)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ValidationError is returned by request Validate methods before any core logic runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// Invalid returns a *ValidationError for field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
