// Package service implements profile self-service for the authenticated caller.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"unipos-auth/internal/audit"
	auditdomain "unipos-auth/internal/audit/domain"
	sessiondomain "unipos-auth/internal/session/domain"
	"unipos-auth/internal/user/domain"
	userrepo "unipos-auth/internal/user/repository"
)

var (
	// ErrForbidden is returned when the request targets a user other than the caller.
	ErrForbidden       = errors.New("cannot act on another user")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("current password is invalid")
)

const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100
)

type UserRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, id, oldHash, newHash string, at time.Time) (bool, error)
}

// AccountCloser deactivates a user and revokes their sessions as one unit.
type AccountCloser interface {
	CloseAccount(ctx context.Context, userID, reason string, at time.Time) (closed bool, revoked int64, err error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type ActivityReader interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]*auditdomain.AuditLog, error)
}

// Service handles update, password change, deactivation and activity for the caller's own account.
type Service struct {
	users    UserRepo
	accounts AccountCloser
	hasher   PasswordHasher
	activity ActivityReader
	audit    audit.AuditLogger
	log      *zap.Logger
	now      func() time.Time
}

// NewService returns a Service. activity may be nil, in which case Activity returns an empty list.
func NewService(users UserRepo, accounts AccountCloser, hasher PasswordHasher, activity ActivityReader, auditLog audit.AuditLogger, log *zap.Logger) *Service {
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:    users,
		accounts: accounts,
		hasher:   hasher,
		activity: activity,
		audit:    auditLog,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Update applies the non-nil fields of req to the caller's profile.
func (s *Service) Update(ctx context.Context, callerID string, req UpdateRequest) (*domain.Summary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.IDUser) != callerID {
		return nil, ErrForbidden
	}
	u, err := s.load(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.NationalID != nil {
		u.NationalID = strings.TrimSpace(*req.NationalID)
	}
	if req.PhoneNumber != nil {
		if p := strings.TrimSpace(*req.PhoneNumber); p != "" {
			u.PhoneNumber = &p
		} else {
			u.PhoneNumber = nil
		}
	}
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, userrepo.AsConflict(err)
	}
	s.audit.LogEvent(ctx, audit.Event{UserID: u.ID, Action: audit.ActionProfileUpdate, Outcome: audit.OutcomeSuccess})
	sum := u.Summary()
	return &sum, nil
}

// ChangePassword replaces the caller's password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, callerID string, req ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	u, err := s.load(ctx, callerID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(u.PasswordHash, req.OldPassword); err != nil {
		s.audit.LogEvent(ctx, audit.Event{UserID: u.ID, Action: audit.ActionPasswordChange, Outcome: audit.OutcomeFailure})
		return ErrInvalidPassword
	}
	hashed, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	// A concurrent change that landed after our read makes the swap miss.
	changed, err := s.users.UpdatePassword(ctx, u.ID, u.PasswordHash, hashed, s.now())
	if err != nil {
		return err
	}
	if !changed {
		s.audit.LogEvent(ctx, audit.Event{UserID: u.ID, Action: audit.ActionPasswordChange, Outcome: audit.OutcomeFailure})
		return ErrInvalidPassword
	}
	s.audit.LogEvent(ctx, audit.Event{UserID: u.ID, Action: audit.ActionPasswordChange, Outcome: audit.OutcomeSuccess})
	return nil
}

// Deactivate soft-deletes the caller's account and revokes every open session it has.
// Only self-deactivation is allowed.
func (s *Service) Deactivate(ctx context.Context, callerID string, req DeleteRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	target := strings.TrimSpace(req.IDUser)
	if target != callerID {
		return ErrForbidden
	}
	closed, n, err := s.accounts.CloseAccount(ctx, target, sessiondomain.ReasonAccountDeactivated, s.now())
	if err != nil {
		return fmt.Errorf("close account: %w", err)
	}
	if !closed {
		return ErrUserNotFound
	}
	s.log.Info("user deactivated", zap.String("user_id", target), zap.Int64("sessions_revoked", n))
	s.audit.LogEvent(ctx, audit.Event{UserID: target, Action: audit.ActionDeactivate, Outcome: audit.OutcomeSuccess})
	return nil
}

// Activity returns the caller's most recent audit entries, newest first.
func (s *Service) Activity(ctx context.Context, callerID string, limit int) ([]*auditdomain.AuditLog, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}
	if s.activity == nil {
		return []*auditdomain.AuditLog{}, nil
	}
	return s.activity.ListByUser(ctx, callerID, limit)
}

func (s *Service) load(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive {
		return nil, ErrUserNotFound
	}
	return u, nil
}
