package db

import (
	"fmt"
	"os"
	"path/filepath"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
)

const (
	devPort     = 5433
	devUser     = "unipos"
	devPassword = "unipos_dev"
	devDatabase = "unipos_auth"
)

// DevDatabase is a throwaway Postgres started in-process for local development.
type DevDatabase struct {
	pg  *embeddedpostgres.EmbeddedPostgres
	DSN string
}

// StartDev starts embedded Postgres with its data under dataDir so dev sessions survive restarts.
func StartDev(dataDir string) (*DevDatabase, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pgdata dir: %w", err)
	}
	pg := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(devPort).
			Username(devUser).
			Password(devPassword).
			Database(devDatabase).
			DataPath(dataDir).
			RuntimePath(filepath.Join(os.TempDir(), "unipos-auth-pg-runtime")),
	)
	if err := pg.Start(); err != nil {
		return nil, fmt.Errorf("start embedded postgres: %w", err)
	}
	return &DevDatabase{
		pg:  pg,
		DSN: fmt.Sprintf("postgres://%s:%s@localhost:%d/%s?sslmode=disable", devUser, devPassword, devPort, devDatabase),
	}, nil
}

func (d *DevDatabase) Stop() error {
	return d.pg.Stop()
}
