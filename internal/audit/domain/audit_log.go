package domain

import "time"

// AuditLog is one persisted security event (login, logout, password change, ...).
type AuditLog struct {
	ID        string    `db:"id"`
	UserID    *string   `db:"user_id"`
	SessionID *int64    `db:"session_id"`
	Action    string    `db:"action"`
	Outcome   string    `db:"outcome"`
	IP        string    `db:"ip"`
	UserAgent string    `db:"user_agent"`
	Detail    string    `db:"detail"`
	CreatedAt time.Time `db:"created_at"`
}
