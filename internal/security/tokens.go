package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeRefresh is the typ claim carried by refresh tokens. Access tokens carry no typ.
const TokenTypeRefresh = "refresh"

var (
	// ErrInvalidToken is returned when a token is malformed, expired, wrongly signed, or of the wrong type.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the payload of both token kinds. Access and refresh tokens of one
// login share the same jti, which names the session row.
type Claims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	SuperRoot bool   `json:"super,omitempty"`
	Type      string `json:"typ,omitempty"`
}

// Subject is the user data embedded in issued tokens.
type Subject struct {
	UserID    string
	Username  string
	SuperRoot bool
}

// TokenProvider issues and validates HS256 access and refresh tokens with a symmetric secret.
type TokenProvider struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenProvider returns a TokenProvider signing with secret. issuer and
// audience are set on claims and enforced on validation.
func NewTokenProvider(secret []byte, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:     secret,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock overrides the clock used for iat/exp and validation. For tests.
func (p *TokenProvider) WithClock(now func() time.Time) *TokenProvider {
	p.now = now
	return p
}

// AccessTTL returns the configured access token lifetime.
func (p *TokenProvider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (p *TokenProvider) RefreshTTL() time.Duration { return p.refreshTTL }

// IssueAccess issues a short-lived access JWT bound to jti. Returns the token and its expiry.
func (p *TokenProvider) IssueAccess(jti string, sub Subject) (string, time.Time, error) {
	return p.issue(jti, sub, "", p.accessTTL)
}

// IssueRefresh issues a long-lived refresh JWT (typ "refresh") bound to jti.
func (p *TokenProvider) IssueRefresh(jti string, sub Subject) (string, time.Time, error) {
	return p.issue(jti, sub, TokenTypeRefresh, p.refreshTTL)
}

func (p *TokenProvider) issue(jti string, sub Subject, typ string, ttl time.Duration) (string, time.Time, error) {
	if jti == "" || sub.UserID == "" {
		return "", time.Time{}, ErrInvalidToken
	}
	now := p.now().UTC()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   sub.UserID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username:  sub.Username,
		SuperRoot: sub.SuperRoot,
		Type:      typ,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ValidateAccess parses and validates an access token (signature, exp, iss, aud).
// Refresh tokens are rejected so they cannot be used as bearer credentials.
func (p *TokenProvider) ValidateAccess(tokenString string) (*Claims, error) {
	claims, err := p.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateRefresh parses and validates a refresh token and requires typ "refresh".
func (p *TokenProvider) ValidateRefresh(tokenString string) (*Claims, error) {
	claims, err := p.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *TokenProvider) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
