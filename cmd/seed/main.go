// seed inserts the development user alice (password secret123).
// Idempotent: does nothing when a user named alice already exists.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unipos-auth/internal/config"
	"unipos-auth/internal/db"
	"unipos-auth/internal/db/migrate"
	"unipos-auth/internal/logging"
	"unipos-auth/internal/security"
	"unipos-auth/internal/user/domain"
	userrepo "unipos-auth/internal/user/repository"
)

const (
	devUsername   = "alice"
	devEmail      = "alice@example.com"
	devNationalID = "V-00000001"
	devPassword   = "secret123"
)

func main() {
	withMigrate := flag.Bool("migrate", false, "apply migrations before seeding")
	flag.Parse()

	if err := run(*withMigrate); err != nil {
		log.Fatal(err)
	}
}

func run(withMigrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set; create a .env or set DATABASE_URL")
	}
	if withMigrate {
		if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	existing, err := users.GetByIdentifier(ctx, devUsername)
	if err != nil {
		return fmt.Errorf("seed check: %w", err)
	}
	if existing != nil {
		logger.Info("seed already applied, skipping", zap.String("username", devUsername))
		return nil
	}

	hash, err := security.NewHasher(cfg.BcryptCost).Hash(devPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     devUsername,
		Email:        devEmail,
		PasswordHash: hash,
		NationalID:   devNationalID,
		FirstName:    "Alice",
		LastName:     "Liddell",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, u); err != nil {
		return fmt.Errorf("create dev user: %w", err)
	}
	logger.Info("seed completed", zap.String("login", devUsername+" / "+devPassword))
	return nil
}
