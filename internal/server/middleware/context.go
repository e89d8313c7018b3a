// Package middleware holds the chi middleware that resolves the caller and observes each request.
package middleware

import (
	"context"
	"sync"

	"unipos-auth/internal/identity/domain"
)

type contextKey struct{ name string }

var (
	identityKey = contextKey{"identity"}
	clientKey   = contextKey{"client"}
	slotKey     = contextKey{"identity-slot"}
)

// identitySlot lets an outer middleware see the identity resolved further down the chain.
type identitySlot struct {
	mu sync.Mutex
	id *domain.Identity
}

func (s *identitySlot) get() *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func withIdentitySlot(ctx context.Context) (context.Context, *identitySlot) {
	s := &identitySlot{}
	return context.WithValue(ctx, slotKey, s), s
}

// Client is the remote address and user agent of the request.
type Client struct {
	IP        string
	UserAgent string
}

// WithIdentity returns a context carrying the authenticated caller. Handlers read it via IdentityFrom.
func WithIdentity(ctx context.Context, id *domain.Identity) context.Context {
	if s, ok := ctx.Value(slotKey).(*identitySlot); ok {
		s.mu.Lock()
		s.id = id
		s.mu.Unlock()
	}
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the caller set by RequireAuth, or nil, false on public routes.
func IdentityFrom(ctx context.Context) (*domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*domain.Identity)
	return id, ok && id != nil
}

func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey, c)
}

// ClientFrom returns the client stored by ClientInfo. IP is "unknown" when unset.
func ClientFrom(ctx context.Context) Client {
	c, _ := ctx.Value(clientKey).(Client)
	if c.IP == "" {
		c.IP = "unknown"
	}
	return c
}

// ClientInfo has the shape of audit.ClientExtractor.
func ClientInfo(ctx context.Context) (ip, userAgent string) {
	c := ClientFrom(ctx)
	return c.IP, c.UserAgent
}
