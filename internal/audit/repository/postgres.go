package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"unipos-auth/internal/audit/domain"
)

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO audit_logs
		(id, user_id, session_id, action, outcome, ip, user_agent, detail, created_at)
		VALUES (:id, :user_id, :session_id, :action, :outcome, :ip, :user_agent, :detail, :created_at)`, a)
	return err
}

// ListByUser returns the newest audit logs for userID, at most limit rows.
// Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var out []*domain.AuditLog
	err := r.db.SelectContext(ctx, &out, `SELECT id, user_id, session_id, action, outcome,
			COALESCE(ip, '') AS ip, COALESCE(user_agent, '') AS user_agent, COALESCE(detail, '') AS detail, created_at
		FROM audit_logs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	return out, nil
}
