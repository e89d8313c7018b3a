package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unipos-auth/internal/audit/domain"
	auditrepo "unipos-auth/internal/audit/repository"
)

// Actions recorded by the auth and user services.
const (
	ActionLogin          = "login"
	ActionRefresh        = "refresh"
	ActionLogout         = "logout"
	ActionRegister       = "register"
	ActionProfileUpdate  = "profile_update"
	ActionPasswordChange = "password_change"
	ActionDeactivate     = "deactivate"
)

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ClientExtractor returns the client IP and user agent carried by the request context.
type ClientExtractor func(context.Context) (ip, userAgent string)

// Event is what callers hand to LogEvent. UserID and SessionID may be empty/zero.
type Event struct {
	UserID    string
	SessionID int64
	Action    string
	Outcome   string
	Detail    string
}

// AuditLogger writes a single audit event. Used by auth and user code paths.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, ev Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) LogEvent(context.Context, Event) {}

// Logger implements AuditLogger using the audit repository and an optional client extractor.
type Logger struct {
	repo      auditrepo.Repository
	extractor ClientExtractor
	log       *zap.Logger
}

// NewLogger returns an AuditLogger that persists to repo. extractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, extractor ClientExtractor, log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{repo: repo, extractor: extractor, log: log}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, ev Event) {
	if l.repo == nil {
		return
	}
	ip, ua := "unknown", ""
	if l.extractor != nil {
		ip, ua = l.extractor(ctx)
	}
	outcome := ev.Outcome
	if outcome == "" {
		outcome = OutcomeSuccess
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		Action:    ev.Action,
		Outcome:   outcome,
		IP:        ip,
		UserAgent: ua,
		Detail:    ev.Detail,
		CreatedAt: time.Now().UTC(),
	}
	if ev.UserID != "" {
		uid := ev.UserID
		entry.UserID = &uid
	}
	if ev.SessionID != 0 {
		sid := ev.SessionID
		entry.SessionID = &sid
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.Warn("audit: failed to log event",
			zap.String("action", ev.Action),
			zap.String("outcome", outcome),
			zap.Error(err))
	}
}
