package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "unipos-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "unipos-auth")
	}
	if cfg.JWTAudience != "unipos-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "unipos-api")
	}
	if cfg.JWTAccessTTL != "15m" {
		t.Errorf("JWTAccessTTL = %q, want %q", cfg.JWTAccessTTL, "15m")
	}
	if cfg.JWTRefreshTTL != "7d" {
		t.Errorf("JWTRefreshTTL = %q, want %q", cfg.JWTRefreshTTL, "7d")
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
	if cfg.SessionPolicy != SessionPolicySingle {
		t.Errorf("SessionPolicy = %q, want %q", cfg.SessionPolicy, SessionPolicySingle)
	}
	if !cfg.SingleSession() {
		t.Error("SingleSession should default to true")
	}
	if !cfg.SessionReclaimExpired {
		t.Error("SessionReclaimExpired should default to true")
	}
	if cfg.JWTSecret != "" {
		t.Error("JWTSecret must have no default")
	}
	if cfg.LoginMaxAttempts != 10 {
		t.Errorf("LoginMaxAttempts = %d, want 10", cfg.LoginMaxAttempts)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "12")
	os.Setenv("SESSION_POLICY", "Multi")
	os.Setenv("SESSION_RECLAIM_EXPIRED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.SingleSession() {
		t.Error("SESSION_POLICY=Multi should disable the single-session check")
	}
	if cfg.SessionReclaimExpired {
		t.Error("SESSION_RECLAIM_EXPIRED=false should disable reclaiming")
	}
}

func TestLoad_BCRYPT_COSTRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"valid middle", "12", 12, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
		{"zero", "0", 10, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("BCRYPT_COST", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestLoad_InvalidSessionPolicy(t *testing.T) {
	os.Clearenv()
	os.Setenv("SESSION_POLICY", "sometimes")

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load should reject unknown SESSION_POLICY")
	}
	if cfg != nil {
		t.Error("Load should return nil config on error")
	}
}

func TestRequireSecret(t *testing.T) {
	os.Clearenv()
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.RequireSecret(); err == nil {
		t.Fatal("RequireSecret should fail without JWT_SECRET")
	}

	os.Setenv("JWT_SECRET", "s3cr3t")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.RequireSecret(); err != nil {
		t.Fatalf("RequireSecret: %v", err)
	}
}

func TestTTLs(t *testing.T) {
	testCases := []struct {
		name        string
		access      string
		refresh     string
		wantAccess  time.Duration
		wantRefresh time.Duration
	}{
		{"defaults", "", "", 15 * time.Minute, 7 * 24 * time.Hour},
		{"compact units", "30m", "14d", 30 * time.Minute, 14 * 24 * time.Hour},
		{"seconds and hours", "45s", "12h", 45 * time.Second, 12 * time.Hour},
		{"unrecognized falls back to a week", "bogus", "1w", 7 * 24 * time.Hour, 7 * 24 * time.Hour},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{JWTAccessTTL: tc.access, JWTRefreshTTL: tc.refresh}
			if got := cfg.AccessTTL(); got != tc.wantAccess {
				t.Errorf("AccessTTL = %v, want %v", got, tc.wantAccess)
			}
			if got := cfg.RefreshTTL(); got != tc.wantRefresh {
				t.Errorf("RefreshTTL = %v, want %v", got, tc.wantRefresh)
			}
		})
	}
}

func TestLoginWindow_InvalidDuration(t *testing.T) {
	cfg := &Config{LoginAttemptWindow: "invalid"}
	if got := cfg.LoginWindow(); got != 15*time.Minute {
		t.Errorf("LoginWindow = %v, want %v (default)", got, 15*time.Minute)
	}
	cfg.LoginAttemptWindow = "2m"
	if got := cfg.LoginWindow(); got != 2*time.Minute {
		t.Errorf("LoginWindow = %v, want %v", got, 2*time.Minute)
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{}
	if got := cfg.AllowedOrigins(); len(got) != 1 || got[0] != "*" {
		t.Errorf("AllowedOrigins empty = %v, want [*]", got)
	}
	cfg.CORSAllowedOrigins = " https://a.example , ,https://b.example"
	got := cfg.AllowedOrigins()
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", got)
	}
}
