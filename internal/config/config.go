// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"unipos-auth/internal/security"
)

// Session policies accepted by SESSION_POLICY.
const (
	SessionPolicySingle = "single"
	SessionPolicyMulti  = "multi"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN. Ignored when the server runs with -dev.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret is the HS256 signing secret. No default; the server refuses to start without it.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim (e.g. "unipos-auth").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "unipos-api").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime in the compact form "15m", "12h", "7d".
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// JWTRefreshTTL is the refresh token and session lifetime, same format as JWTAccessTTL.
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 10.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// SessionPolicy is "single" (one open session per user) or "multi".
	SessionPolicy string `mapstructure:"SESSION_POLICY"`
	// SessionReclaimExpired lets a correct-password login revoke the user's expired but
	// never logged out sessions under the single policy. Default true.
	SessionReclaimExpired bool `mapstructure:"SESSION_RECLAIM_EXPIRED"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	// Env is the application environment ("development", "production").
	Env string `mapstructure:"APP_ENV"`
	// CORSAllowedOrigins is a comma-separated origin list; "*" when empty.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// RedisURL enables login throttling when set (e.g. redis://localhost:6379/0).
	RedisURL string `mapstructure:"REDIS_URL"`
	// LoginMaxAttempts is the number of failed logins per identifier allowed inside LoginAttemptWindow.
	LoginMaxAttempts int `mapstructure:"LOGIN_MAX_ATTEMPTS"`
	// LoginAttemptWindow is a Go duration (e.g. "15m").
	LoginAttemptWindow string `mapstructure:"LOGIN_ATTEMPT_WINDOW"`

	// OTLPEndpoint enables OpenTelemetry export when set (e.g. localhost:4317).
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the OTel service.name resource attribute.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
// JWT_SECRET is not checked here so tooling like cmd/migrate can load config without it; use RequireSecret.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "unipos-auth")
	v.SetDefault("JWT_AUDIENCE", "unipos-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "7d")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("SESSION_POLICY", SessionPolicySingle)
	v.SetDefault("SESSION_RECLAIM_EXPIRED", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("LOGIN_MAX_ATTEMPTS", 10)
	v.SetDefault("LOGIN_ATTEMPT_WINDOW", "15m")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", true)
	v.SetDefault("OTEL_SERVICE_NAME", "unipos-auth")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 10
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	cfg.SessionPolicy = strings.ToLower(strings.TrimSpace(cfg.SessionPolicy))
	switch cfg.SessionPolicy {
	case "":
		cfg.SessionPolicy = SessionPolicySingle
	case SessionPolicySingle, SessionPolicyMulti:
	default:
		return nil, errors.New("config: SESSION_POLICY must be \"single\" or \"multi\"")
	}

	if cfg.LoginMaxAttempts < 0 {
		return nil, errors.New("config: LOGIN_MAX_ATTEMPTS must not be negative")
	}

	return &cfg, nil
}

// RequireSecret returns an error when JWT_SECRET is empty. The server calls it before wiring auth.
func (c *Config) RequireSecret() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	return nil
}

// AccessTTL parses JWTAccessTTL with security.ParseTTL. Returns 15m if unset.
func (c *Config) AccessTTL() time.Duration {
	if strings.TrimSpace(c.JWTAccessTTL) == "" {
		return 15 * time.Minute
	}
	return security.ParseTTL(c.JWTAccessTTL)
}

// RefreshTTL parses JWTRefreshTTL with security.ParseTTL (unrecognized values fall back to 7 days).
func (c *Config) RefreshTTL() time.Duration {
	return security.ParseTTL(c.JWTRefreshTTL)
}

// SingleSession reports whether login must refuse users that still hold an open session.
func (c *Config) SingleSession() bool {
	return c.SessionPolicy != SessionPolicyMulti
}

// LoginWindow parses LoginAttemptWindow as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) LoginWindow() time.Duration {
	d, err := time.ParseDuration(c.LoginAttemptWindow)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// AllowedOrigins returns CORS origins from the comma-separated config, or ["*"] when none are set.
func (c *Config) AllowedOrigins() []string {
	if c == nil || c.CORSAllowedOrigins == "" {
		return []string{"*"}
	}
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
