package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"unipos-auth/internal/audit"
	auditrepo "unipos-auth/internal/audit/repository"
	"unipos-auth/internal/config"
	"unipos-auth/internal/db"
	"unipos-auth/internal/db/migrate"
	identityservice "unipos-auth/internal/identity/service"
	"unipos-auth/internal/logging"
	"unipos-auth/internal/metrics"
	"unipos-auth/internal/ratelimit"
	"unipos-auth/internal/security"
	"unipos-auth/internal/server"
	"unipos-auth/internal/server/middleware"
	sessionrepo "unipos-auth/internal/session/repository"
	"unipos-auth/internal/telemetry"
	otelsetup "unipos-auth/internal/telemetry/otel"
	userrepo "unipos-auth/internal/user/repository"
	userservice "unipos-auth/internal/user/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	dev := flag.Bool("dev", false, "run against an embedded Postgres under ./.pgdata (implies -migrate)")
	withMigrate := flag.Bool("migrate", false, "apply schema migrations before serving")
	flag.Parse()

	if err := run(*dev, *withMigrate); err != nil {
		log.Fatal(err)
	}
}

// run wires and serves until SIGINT or SIGTERM. Every failure is returned so the deferred
// cleanups (embedded Postgres, pool, Redis client) run before main exits.
func run(dev, withMigrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	if err := cfg.RequireSecret(); err != nil {
		return fmt.Errorf("refusing to start: %w", err)
	}

	if dev {
		devDB, err := db.StartDev(filepath.Join(".", ".pgdata"))
		if err != nil {
			return fmt.Errorf("embedded postgres: %w", err)
		}
		defer func() {
			if err := devDB.Stop(); err != nil {
				logger.Error("embedded postgres stop", zap.Error(err))
			}
		}()
		cfg.DatabaseURL = devDB.DSN
		withMigrate = true
		logger.Info("embedded postgres running")
	}
	if withMigrate {
		if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied")
	}

	ctx := context.Background()
	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()
	reg := metrics.NewRegistry()
	authMetrics, err := metrics.NewAuthMetrics(providers.Meter(), reg)
	if err != nil {
		return fmt.Errorf("auth metrics: %w", err)
	}

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)
	auditRepo := auditrepo.NewPostgresRepository(conn)
	auditLog := audit.NewLogger(auditRepo, middleware.ClientInfo, logger)
	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())

	var limiter identityservice.LoginLimiter = ratelimit.Nop{}
	if cfg.RedisURL != "" {
		rl, err := ratelimit.NewRedis(ctx, cfg.RedisURL, cfg.LoginMaxAttempts, cfg.LoginWindow())
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer func() { _ = rl.Close() }()
		limiter = rl
	}

	authSvc := identityservice.NewAuthService(users, sessions, hasher, tokens, cfg.RefreshTTL(),
		identityservice.WithSingleSession(cfg.SingleSession()),
		identityservice.WithReclaimExpired(cfg.SessionReclaimExpired),
		identityservice.WithLogger(logger),
		identityservice.WithAuditLogger(auditLog),
		identityservice.WithLoginLimiter(limiter),
		identityservice.WithMetrics(authMetrics),
	)
	userSvc := userservice.NewService(users, sessions, hasher, auditRepo, auditLog, logger)

	handler := server.NewRouter(server.Deps{
		Auth:           authSvc,
		Users:          userSvc,
		Pinger:         conn,
		Registry:       reg,
		HTTPMetrics:    metrics.NewHTTPMetrics(reg),
		Emitter:        otelsetup.NewEventEmitter(providers.LoggerProvider),
		Tracer:         providers.Tracer(),
		Log:            logger,
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("session_policy", cfg.SessionPolicy),
			zap.Bool("login_throttle", cfg.RedisURL != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	var runErr error
	select {
	case <-quit:
	case err := <-serveErr:
		runErr = fmt.Errorf("serve: %w", err)
	}

	logger.Info("shutting down http server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	authSvc.Wait()
	// Async telemetry emits run on detached contexts; give them their timeout before flushing exporters.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("otel shutdown", zap.Error(err))
	}
	logger.Info("http server stopped")
	return runErr
}
