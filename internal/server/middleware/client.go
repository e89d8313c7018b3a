package middleware

import (
	"net"
	"net/http"
	"strings"
	"unicode/utf8"
)

const maxUserAgentBytes = 512

// ClientIP returns the client IP taken from r.RemoteAddr, or "unknown" when it
// is not a parseable address. Forwarding headers are honoured only through
// chi's RealIP, which must run earlier in the chain.
func ClientIP(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	if ip == nil {
		return "unknown"
	}
	return ip.String()
}

// truncateUTF8 drops invalid sequences and NUL bytes, then cuts s to at most
// max bytes without splitting a rune.
func truncateUTF8(s string, max int) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\x00", "")
	if len(s) <= max {
		return s
	}
	i := max
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i]
}

// ClientInfoMiddleware stores the caller's IP and user agent in the request context.
func ClientInfoMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := truncateUTF8(r.UserAgent(), maxUserAgentBytes)
		ctx := WithClient(r.Context(), Client{IP: ClientIP(r), UserAgent: ua})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
