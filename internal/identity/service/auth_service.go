package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unipos-auth/internal/audit"
	"unipos-auth/internal/metrics"
	"unipos-auth/internal/security"
	sessiondomain "unipos-auth/internal/session/domain"
	sessionrepo "unipos-auth/internal/session/repository"
	userdomain "unipos-auth/internal/user/domain"
	userrepo "unipos-auth/internal/user/repository"
)

// LoginResult is returned by Login. ExpiresAt is the session expiry, which matches the refresh token's.
type LoginResult struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	ExpiresAt    time.Time         `json:"expiresAt"`
	User         userdomain.Summary `json:"user"`
}

// RefreshResult carries only a new access token; the refresh token is not rotated.
type RefreshResult struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type RegisterResult struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*userdomain.User, error)
	GetByEmailAndNationalID(ctx context.Context, email, nationalID string) (*userdomain.User, error)
	Exists(ctx context.Context, field, value string) (bool, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	InTx(ctx context.Context, fn func(tx sessionrepo.Tx) error) error
	GetLiveByJTI(ctx context.Context, jti string, now time.Time) (*sessiondomain.Session, error)
	RevokeByJTI(ctx context.Context, jti, reason string, at time.Time) (bool, error)
	TouchLastSeen(ctx context.Context, id int64, at time.Time) error
}

// TokenIssuer signs and verifies the access/refresh pair. *security.TokenProvider implements it.
type TokenIssuer interface {
	IssueAccess(jti string, sub security.Subject) (string, time.Time, error)
	IssueRefresh(jti string, sub security.Subject) (string, time.Time, error)
	ValidateAccess(token string) (*security.Claims, error)
	ValidateRefresh(token string) (*security.Claims, error)
}

// PasswordHasher is implemented by *security.Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
	CompareDecoy(password string)
}

// LoginLimiter throttles failed logins per identifier. See package ratelimit.
type LoginLimiter interface {
	Allow(ctx context.Context, identifier string) (bool, error)
	Fail(ctx context.Context, identifier string) error
	Reset(ctx context.Context, identifier string) error
}

type noLimit struct{}

func (noLimit) Allow(context.Context, string) (bool, error) { return true, nil }
func (noLimit) Fail(context.Context, string) error          { return nil }
func (noLimit) Reset(context.Context, string) error         { return nil }

// Option configures an AuthService.
type Option func(*AuthService)

// WithSingleSession turns the one-open-session-per-user rule on or off. It is on by default.
func WithSingleSession(on bool) Option {
	return func(s *AuthService) { s.singleSession = on }
}

// WithReclaimExpired controls whether a single-session login with the correct password revokes
// the user's sessions that are past expiry but were never logged out. It is on by default; when
// off such a session blocks login until an operator revokes it.
func WithReclaimExpired(on bool) Option {
	return func(s *AuthService) { s.reclaimExpired = on }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *AuthService) {
		if log != nil {
			s.log = log
		}
	}
}

func WithAuditLogger(a audit.AuditLogger) Option {
	return func(s *AuthService) {
		if a != nil {
			s.audit = a
		}
	}
}

func WithLoginLimiter(l LoginLimiter) Option {
	return func(s *AuthService) {
		if l != nil {
			s.limiter = l
		}
	}
}

func WithMetrics(m *metrics.AuthMetrics) Option {
	return func(s *AuthService) { s.metrics = m }
}

// WithClock overrides the time source used for session expiry and liveness checks.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// WithTouchTimeout bounds the background last-seen write made by Authenticate.
func WithTouchTimeout(d time.Duration) Option {
	return func(s *AuthService) {
		if d > 0 {
			s.touchTimeout = d
		}
	}
}

// AuthService implements login, refresh, logout, me, register, availability and bearer authentication.
type AuthService struct {
	users          UserRepo
	sessions       SessionRepo
	hasher         PasswordHasher
	tokens         TokenIssuer
	refreshTTL     time.Duration
	singleSession  bool
	reclaimExpired bool
	log            *zap.Logger
	audit          audit.AuditLogger
	limiter        LoginLimiter
	metrics        *metrics.AuthMetrics
	now            func() time.Time
	touchTimeout   time.Duration

	touches sync.WaitGroup
}

// NewAuthService returns an AuthService with the given dependencies. refreshTTL is the session lifetime.
func NewAuthService(users UserRepo, sessions SessionRepo, hasher PasswordHasher, tokens TokenIssuer, refreshTTL time.Duration, opts ...Option) *AuthService {
	s := &AuthService{
		users:          users,
		sessions:       sessions,
		hasher:         hasher,
		tokens:         tokens,
		refreshTTL:     refreshTTL,
		singleSession:  true,
		reclaimExpired: true,
		log:            zap.NewNop(),
		audit:          audit.Nop{},
		limiter:        noLimit{},
		now:            func() time.Time { return time.Now().UTC() },
		touchTimeout:   5 * time.Second,
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = security.DefaultTTL
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies credentials, opens a session and issues an access/refresh pair sharing one jti.
// The session insert and token signing run in one transaction: nothing persists if either fails.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (res *LoginResult, err error) {
	var userID string
	var sessionID int64
	defer func() {
		s.metrics.RecordLogin(ctx, outcomeOf(err))
		ev := audit.Event{UserID: userID, SessionID: sessionID, Action: audit.ActionLogin, Outcome: audit.OutcomeSuccess}
		if err != nil {
			ev.Outcome, ev.Detail = audit.OutcomeFailure, outcomeOf(err)
		}
		s.audit.LogEvent(ctx, ev)
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	identifier := normalizeIdentifier(req.Identifier)
	allowed, err := s.limiter.Allow(ctx, identifier)
	if err != nil {
		s.log.Warn("login limiter unavailable", zap.Error(err))
	} else if !allowed {
		return nil, ErrTooManyAttempts
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		s.hasher.CompareDecoy(req.Password)
		s.recordFailure(ctx, identifier)
		return nil, ErrInvalidCredentials
	}
	userID = user.ID
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.recordFailure(ctx, identifier)
		return nil, ErrInvalidCredentials
	}
	// Checked after the password so only the owner learns the account is disabled.
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	if err := s.limiter.Reset(ctx, identifier); err != nil {
		s.log.Warn("login limiter reset failed", zap.Error(err))
	}

	now := s.now()
	sess := &sessiondomain.Session{
		UserID:    user.ID,
		JTI:       uuid.NewString(),
		DeviceID:  req.DeviceID,
		CompanyID: req.CompanyID,
		ExpiresAt: now.Add(s.refreshTTL),
		IP:        optional(req.IP),
		UserAgent: optional(req.UserAgent),
	}
	sub := subjectOf(user)
	var access, refresh string
	err = s.sessions.InTx(ctx, func(tx sessionrepo.Tx) error {
		active, err := tx.LockUser(ctx, user.ID)
		if err != nil {
			return err
		}
		if !active {
			return ErrAccountDisabled
		}
		if s.singleSession {
			if s.reclaimExpired {
				n, err := tx.RevokeExpired(ctx, user.ID, sessiondomain.ReasonExpired, now)
				if err != nil {
					return fmt.Errorf("revoke expired sessions: %w", err)
				}
				if n > 0 {
					s.log.Info("reclaimed expired sessions", zap.String("user_id", user.ID), zap.Int64("count", n))
				}
			}
			open, err := tx.HasOpenSession(ctx, user.ID)
			if err != nil {
				return err
			}
			if open {
				return ErrSessionAlreadyActive
			}
		}
		if err := tx.Create(ctx, sess); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		if access, _, err = s.tokens.IssueAccess(sess.JTI, sub); err != nil {
			return fmt.Errorf("sign access token: %w", err)
		}
		if refresh, _, err = s.tokens.IssueRefresh(sess.JTI, sub); err != nil {
			return fmt.Errorf("sign refresh token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sessionID = sess.ID
	s.log.Info("login", zap.String("user_id", user.ID), zap.Int64("session_id", sess.ID))
	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    sess.ExpiresAt,
		User:         user.Summary(),
	}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, identifier string) {
	if err := s.limiter.Fail(ctx, identifier); err != nil {
		s.log.Warn("login limiter record failed", zap.Error(err))
	}
}

// Refresh exchanges a refresh token for a new access token bound to the same jti and session.
// Neither the refresh token nor the session expiry changes.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (res *RefreshResult, err error) {
	defer func() { s.metrics.RecordRefresh(ctx, outcomeOf(err)) }()

	claims, err := s.tokens.ValidateRefresh(strings.TrimSpace(refreshToken))
	if err != nil {
		return nil, ErrInvalidToken
	}
	sess, err := s.liveSession(ctx, claims)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, ErrSessionExpired
	}
	access, exp, err := s.tokens.IssueAccess(claims.ID, subjectOf(user))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	s.audit.LogEvent(ctx, audit.Event{UserID: user.ID, SessionID: sess.ID, Action: audit.ActionRefresh, Outcome: audit.OutcomeSuccess})
	return &RefreshResult{AccessToken: access, ExpiresAt: exp}, nil
}

// Logout revokes the session for jti. Unknown or already revoked sessions are not an error.
func (s *AuthService) Logout(ctx context.Context, jti, reason string) error {
	if reason == "" {
		reason = sessiondomain.ReasonLogout
	}
	if _, err := uuid.Parse(jti); err != nil {
		return nil
	}
	changed, err := s.sessions.RevokeByJTI(ctx, jti, reason, s.now())
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if changed {
		s.audit.LogEvent(ctx, audit.Event{Action: audit.ActionLogout, Outcome: audit.OutcomeSuccess, Detail: reason})
	}
	return nil
}

// Me returns the redacted profile of userID.
func (s *AuthService) Me(ctx context.Context, userID string) (*userdomain.Summary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	sum := user.Summary()
	return &sum, nil
}

// Register creates an active user with a username derived from the names and national id.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	email := normalizeIdentifier(req.Email)
	nationalID := strings.TrimSpace(req.NationalID)
	existing, err := s.users.GetByEmailAndNationalID(ctx, email, nationalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}
	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	user := &userdomain.User{
		ID:           uuid.NewString(),
		Username:     DeriveUsername(req.FirstName, req.LastName, nationalID),
		Email:        email,
		PasswordHash: hashed,
		NationalID:   nationalID,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PhoneNumber:  trimmedOrNil(req.PhoneNumber),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, userrepo.AsConflict(err)
	}
	s.audit.LogEvent(ctx, audit.Event{UserID: user.ID, Action: audit.ActionRegister, Outcome: audit.OutcomeSuccess})
	return &RegisterResult{UserID: user.ID, Username: user.Username}, nil
}

// Availability probes username, email and national id in that order and
// returns a ConflictError naming the first field already taken.
func (s *AuthService) Availability(ctx context.Context, req AvailabilityRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	probes := []struct{ field, value string }{
		{userrepo.FieldUsername, normalizeIdentifier(req.Username)},
		{userrepo.FieldEmail, normalizeIdentifier(req.Email)},
		{userrepo.FieldNationalID, strings.TrimSpace(req.NationalID)},
	}
	for _, p := range probes {
		taken, err := s.users.Exists(ctx, p.field, p.value)
		if err != nil {
			return err
		}
		if taken {
			return userrepo.AsConflict(&userrepo.DuplicateError{Field: p.field})
		}
	}
	return nil
}

// liveSession resolves the session behind claims, failing with ErrSessionExpired unless it is live
// and owned by the token's subject.
func (s *AuthService) liveSession(ctx context.Context, claims *security.Claims) (*sessiondomain.Session, error) {
	if _, err := uuid.Parse(claims.ID); err != nil {
		return nil, ErrInvalidToken
	}
	sess, err := s.sessions.GetLiveByJTI(ctx, claims.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if sess == nil || sess.UserID != claims.Subject {
		return nil, ErrSessionExpired
	}
	return sess, nil
}

func subjectOf(u *userdomain.User) security.Subject {
	return security.Subject{UserID: u.ID, Username: u.Username, SuperRoot: u.IsSuperRoot}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func trimmedOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	return optional(strings.TrimSpace(*p))
}

// IsClientError reports whether err is one of the expected, client-caused failures.
func IsClientError(err error) bool {
	return outcomeOf(err) != "error"
}
