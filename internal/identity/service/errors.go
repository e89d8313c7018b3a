package service

import (
	"errors"

	"unipos-auth/internal/apperr"
)

// Sentinel errors for the auth service; the HTTP layer maps them to status codes.
var (
	// ErrInvalidCredentials covers both an unknown identifier and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidToken       = errors.New("invalid token")
	// ErrSessionExpired means the token verified but its session is revoked, expired, unknown,
	// or belongs to a deactivated user.
	ErrSessionExpired  = errors.New("session expired")
	ErrUserNotFound    = errors.New("user not found")
	ErrTooManyAttempts = errors.New("too many login attempts")

	// ErrSessionAlreadyActive blocks a login while the user still has an unrevoked session.
	ErrSessionAlreadyActive error = &apperr.ConflictError{Field: "session", Message: "session already active"}
	// ErrAlreadyRegistered is returned when the email and national id pair is taken.
	ErrAlreadyRegistered error = &apperr.ConflictError{Field: "user", Message: "user already registered"}
)

// outcomeOf turns an operation result into the label used for metrics and audit rows.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountDisabled):
		return "disabled"
	case errors.Is(err, ErrTooManyAttempts):
		return "throttled"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	}
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return "invalid_request"
	}
	return "error"
}
