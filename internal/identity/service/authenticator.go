package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"unipos-auth/internal/identity/domain"
)

// Authenticate resolves a bearer access token into the caller's identity. The token must verify
// and its session must be live. The last-seen write happens in the background and never affects
// the result.
func (s *AuthService) Authenticate(ctx context.Context, token string) (id *domain.Identity, err error) {
	defer func() { s.metrics.RecordAuthenticate(ctx, outcomeOf(err)) }()

	claims, err := s.tokens.ValidateAccess(strings.TrimSpace(token))
	if err != nil {
		return nil, ErrInvalidToken
	}
	sess, err := s.liveSession(ctx, claims)
	if err != nil {
		return nil, err
	}
	s.touch(sess.ID)
	return &domain.Identity{
		UserID:    claims.Subject,
		Username:  claims.Username,
		SessionID: sess.ID,
		JTI:       sess.JTI,
		TenantID:  sess.CompanyID,
		SuperRoot: claims.SuperRoot,
	}, nil
}

// touch records activity on the session without holding up the request. It uses its own
// context because the request context ends when the handler returns.
func (s *AuthService) touch(sessionID int64) {
	s.touches.Add(1)
	go func() {
		defer s.touches.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.touchTimeout)
		defer cancel()
		if err := s.sessions.TouchLastSeen(ctx, sessionID, s.now()); err != nil {
			s.log.Warn("touch last seen failed", zap.Int64("session_id", sessionID), zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight last-seen writes finish. Called on shutdown and in tests.
func (s *AuthService) Wait() {
	s.touches.Wait()
}
