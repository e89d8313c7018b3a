// Package dbtest opens a migrated Postgres database for repository integration tests.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"

	"unipos-auth/internal/db"
	"unipos-auth/internal/db/migrate"
)

// Open connects to DATABASE_URL, applies migrations and empties the auth tables.
// The test is skipped when DATABASE_URL is unset or unreachable.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	conn, err := db.Open(context.Background(), dsn)
	if err != nil {
		t.Skipf("Database connection failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Run(dsn, "up"); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if _, err := conn.Exec(`TRUNCATE audit_logs, sessions, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return conn
}
