package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"unipos-auth/internal/apperr"
	"unipos-auth/internal/user/domain"
)

// Unique fields probed by Exists and reported by DuplicateError.
const (
	FieldUsername   = "username"
	FieldEmail      = "email"
	FieldNationalID = "nationalId"
)

// ErrNotFound is returned by writes that matched no active user.
var ErrNotFound = errors.New("user not found")

// DuplicateError is returned by Create and Update when a unique column already holds the value.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

// AsConflict converts a *DuplicateError into the client-facing *apperr.ConflictError.
// Other errors are returned unchanged.
func AsConflict(err error) error {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return &apperr.ConflictError{Field: dup.Field}
	}
	return err
}

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByIdentifier matches identifier against username or email.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	GetByEmailAndNationalID(ctx context.Context, email, nationalID string) (*domain.User, error)
	// Exists reports whether any user (active or not) holds value in field.
	Exists(ctx context.Context, field, value string) (bool, error)
	Create(ctx context.Context, u *domain.User) error
	// Update writes profile columns only. Returns ErrNotFound when the user is missing or inactive.
	Update(ctx context.Context, u *domain.User) error
	// UpdatePassword replaces the hash only if it still equals oldHash. Returns false otherwise.
	UpdatePassword(ctx context.Context, id, oldHash, newHash string, at time.Time) (bool, error)
}
