package domain

// Identity is the caller resolved from a bearer token and its live session.
type Identity struct {
	UserID    string
	Username  string
	SessionID int64
	JTI       string
	// TenantID is the company the session was opened for, nil when none was given at login.
	TenantID  *int64
	SuperRoot bool
}
