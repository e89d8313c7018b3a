package domain

import "time"

// Revocation reasons recorded in revoked_reason.
const (
	ReasonLogout             = "logout"
	ReasonAccountDeactivated = "account_deactivated"
	ReasonExpired            = "expired"
)

// Session is the server-side record a token pair is bound to through its jti.
// Rows are never deleted; revocation stamps RevokedAt.
type Session struct {
	ID            int64      `db:"id"`
	UserID        string     `db:"user_id"`
	JTI           string     `db:"jti"`
	DeviceID      *string    `db:"device_id"`
	CompanyID     *int64     `db:"company_id"`
	LoginAt       time.Time  `db:"login_at"`
	LogoutAt      *time.Time `db:"logout_at"`
	LastSeenAt    *time.Time `db:"last_seen_at"`
	ExpiresAt     time.Time  `db:"expires_at"`
	RevokedAt     *time.Time `db:"revoked_at"` // nil when not revoked
	RevokedReason *string    `db:"revoked_reason"`
	IP            *string    `db:"ip"`
	UserAgent     *string    `db:"user_agent"`
}

// IsLive reports whether the session is unrevoked and not yet past its expiry at now.
func (s *Session) IsLive(now time.Time) bool {
	return s.RevokedAt == nil && !s.ExpiresAt.Before(now)
}

// IsOpen reports whether the session has not been revoked, regardless of expiry.
func (s *Session) IsOpen() bool {
	return s.RevokedAt == nil
}
