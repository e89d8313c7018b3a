package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"unipos-auth/internal/identity/domain"
	"unipos-auth/internal/server/respond"
)

const bearerPrefix = "bearer "

// Authenticator is implemented by the identity AuthService.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
}

// RequireAuth rejects requests without a valid bearer access token bound to a live session,
// and stores the resolved identity in the context for the handler.
func RequireAuth(auth Authenticator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r.Header.Get("Authorization"))
			if token == "" {
				respond.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			id, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				respond.ServiceError(w, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// extractBearer returns the token from an Authorization header value, or "" if missing or malformed.
func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
