package db

import "embed"

// MigrationFS embeds the users, sessions and audit_logs schema from internal/db/migrations.
// Applied by cmd/migrate and by cmd/server when started with -migrate or -dev.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
