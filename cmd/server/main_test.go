package main

import (
	"strings"
	"testing"
)

// run must hand startup failures back to main instead of exiting, so deferred cleanups run.
func TestRun_ReturnsStartupErrors(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET"},
		{"bad bcrypt cost", map[string]string{"BCRYPT_COST": "2"}, "BCRYPT_COST"},
		{"no database", map[string]string{"JWT_SECRET": "test-secret", "DATABASE_URL": ""}, "db:"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
			t.Setenv("REDIS_URL", "")
			t.Setenv("BCRYPT_COST", "10")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			err := run(false, false)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("run err = %v, want it to mention %q", err, tc.want)
			}
		})
	}
}
