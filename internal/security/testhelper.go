package security

import "time"

// testSecret signs tokens in unit tests only. Do not use in production.
const testSecret = "test-secret-do-not-use"

// NewTestTokenProvider returns a TokenProvider using the test secret.
// For unit tests only. Callers must not use in production.
func NewTestTokenProvider() *TokenProvider {
	return NewTokenProvider([]byte(testSecret), "test-issuer", "test-audience", 15*time.Minute, 24*time.Hour)
}
