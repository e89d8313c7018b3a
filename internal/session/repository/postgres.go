package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"unipos-auth/internal/db"
	"unipos-auth/internal/session/domain"
)

const sessionColumns = `id, user_id, jti, device_id, company_id, login_at, logout_at, last_seen_at,
	expires_at, revoked_at, revoked_reason, ip, user_agent`

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// InTx runs fn inside db.WithTx.
func (r *PostgresRepository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&postgresTx{tx: tx})
	})
}

// GetLiveByJTI returns the session for jti when unrevoked and expires_at >= now, or nil otherwise.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetLiveByJTI(ctx context.Context, jti string, now time.Time) (*domain.Session, error) {
	var s domain.Session
	err := r.db.GetContext(ctx, &s, `SELECT `+sessionColumns+` FROM sessions
		WHERE jti = $1 AND revoked_at IS NULL AND expires_at >= $2`, jti, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// RevokeByJTI marks the session revoked and logged out. A second call is a no-op and returns false.
func (r *PostgresRepository) RevokeByJTI(ctx context.Context, jti, reason string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions
		SET revoked_at = $2, revoked_reason = $3, logout_at = $2
		WHERE jti = $1 AND revoked_at IS NULL`, jti, at, reason)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CloseAccount soft-deletes the user and revokes their open sessions in one transaction,
// so a failed revoke leaves the account active and the call can be retried.
func (r *PostgresRepository) CloseAccount(ctx context.Context, userID, reason string, at time.Time) (closed bool, revoked int64, err error) {
	err = db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE users
			SET is_active = FALSE, deleted_at = $2, updated_at = $2
			WHERE id = $1 AND is_active`, userID, at)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil || n == 0 {
			return err
		}
		closed = true
		revoked, err = revokeOpen(ctx, tx, `user_id = $1`, userID, reason, at)
		return err
	})
	if err != nil {
		return false, 0, err
	}
	return closed, revoked, nil
}

func revokeOpen(ctx context.Context, ex sqlx.ExecerContext, where, userID, reason string, at time.Time) (int64, error) {
	res, err := ex.ExecContext(ctx, `UPDATE sessions
		SET revoked_at = $2, revoked_reason = $3
		WHERE `+where+` AND revoked_at IS NULL`, userID, at, reason)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// TouchLastSeen sets the session's last-seen timestamp if it is still unrevoked.
func (r *PostgresRepository) TouchLastSeen(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET last_seen_at = $2
		WHERE id = $1 AND revoked_at IS NULL`, id, at)
	return err
}

type postgresTx struct {
	tx *sqlx.Tx
}

func (t *postgresTx) LockUser(ctx context.Context, userID string) (bool, error) {
	var active bool
	err := t.tx.GetContext(ctx, &active, `SELECT is_active FROM users WHERE id = $1 FOR UPDATE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return active, err
}

func (t *postgresTx) RevokeExpired(ctx context.Context, userID, reason string, now time.Time) (int64, error) {
	return revokeOpen(ctx, t.tx, `user_id = $1 AND expires_at < $2`, userID, reason, now)
}

func (t *postgresTx) HasOpenSession(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := t.tx.GetContext(ctx, &exists, `SELECT EXISTS (
		SELECT 1 FROM sessions WHERE user_id = $1 AND revoked_at IS NULL)`, userID)
	return exists, err
}

func (t *postgresTx) Create(ctx context.Context, s *domain.Session) error {
	return t.tx.QueryRowxContext(ctx, `INSERT INTO sessions
		(user_id, jti, device_id, company_id, expires_at, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, login_at`,
		s.UserID, s.JTI, s.DeviceID, s.CompanyID, s.ExpiresAt, s.IP, s.UserAgent,
	).Scan(&s.ID, &s.LoginAt)
}
