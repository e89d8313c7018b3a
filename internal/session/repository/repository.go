package repository

import (
	"context"
	"time"

	"unipos-auth/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	// InTx runs fn in one transaction; the session insert commits only if fn returns nil.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	// GetLiveByJTI returns the unrevoked, unexpired session for jti, or nil.
	GetLiveByJTI(ctx context.Context, jti string, now time.Time) (*domain.Session, error)
	// RevokeByJTI revokes the session only if it is still unrevoked. Returns whether a row changed.
	RevokeByJTI(ctx context.Context, jti, reason string, at time.Time) (bool, error)
	// CloseAccount deactivates the user and revokes every unrevoked session of theirs in one
	// transaction. closed is false, and nothing is written, when the user was missing or already inactive.
	CloseAccount(ctx context.Context, userID, reason string, at time.Time) (closed bool, revoked int64, err error)
	// TouchLastSeen sets last_seen_at on an unrevoked session. Missing or revoked rows are not an error.
	TouchLastSeen(ctx context.Context, id int64, at time.Time) error
}

// Tx is the transactional view used by login.
type Tx interface {
	// LockUser takes a row lock on the user so concurrent logins and CloseAccount serialize.
	// It reports whether the user still exists and is active.
	LockUser(ctx context.Context, userID string) (active bool, err error)
	// RevokeExpired revokes the user's unrevoked sessions whose expiry is before now.
	RevokeExpired(ctx context.Context, userID, reason string, now time.Time) (int64, error)
	// HasOpenSession reports whether userID has any unrevoked session, expired or not.
	HasOpenSession(ctx context.Context, userID string) (bool, error)
	// Create inserts s and fills ID and LoginAt.
	Create(ctx context.Context, s *domain.Session) error
}
