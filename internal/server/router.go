// Package server assembles the HTTP router for the auth service.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	healthhandler "unipos-auth/internal/health/handler"
	identityhandler "unipos-auth/internal/identity/handler"
	"unipos-auth/internal/metrics"
	"unipos-auth/internal/server/middleware"
	"unipos-auth/internal/telemetry"
	userhandler "unipos-auth/internal/user/handler"
)

const defaultRequestTimeout = 15 * time.Second

// AuthAPI is what the auth routes and the bearer middleware need from the identity service.
type AuthAPI interface {
	identityhandler.Auth
	middleware.Authenticator
}

// Deps holds the dependencies for the HTTP router. Auth and Users are required; the rest may be nil.
type Deps struct {
	Auth   AuthAPI
	Users  userhandler.Users
	Pinger healthhandler.Pinger

	// Registry backs /metrics and HTTPMetrics. When nil a fresh registry is created.
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics
	Emitter     telemetry.EventEmitter
	Tracer      trace.Tracer
	Log         *zap.Logger

	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter returns the service's HTTP handler: /api/v1 auth and user routes plus health and metrics.
func NewRouter(deps Deps) http.Handler {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	reg := deps.Registry
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	httpMetrics := deps.HTTPMetrics
	if httpMetrics == nil {
		httpMetrics = metrics.NewHTTPMetrics(reg)
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	observer := middleware.Observer{
		Tracer:  deps.Tracer,
		Metrics: httpMetrics,
		Emitter: deps.Emitter,
		Log:     log,
		Skip:    map[string]bool{"/healthz": true, "/readyz": true, "/metrics": true},
	}
	requireAuth := middleware.RequireAuth(deps.Auth, log)
	auth := identityhandler.NewAuthHandler(deps.Auth, log)
	users := userhandler.NewUserHandler(deps.Users, log)
	health := healthhandler.New(deps.Pinger, log)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.ClientInfoMiddleware)
	r.Use(observer.Middleware)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", health.Live)
	r.Get("/readyz", health.Ready)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(reg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", auth.Login)
			r.Post("/refresh", auth.Refresh)
			r.Post("/register", auth.Register)
			r.Post("/availability", auth.Availability)
			r.With(requireAuth).Post("/logout", auth.Logout)
			r.With(requireAuth).Get("/me", auth.Me)
		})
		r.Route("/users/me", func(r chi.Router) {
			r.Use(requireAuth)
			r.Patch("/update", users.Update)
			r.Patch("/change-password", users.ChangePassword)
			r.Delete("/delete", users.Delete)
			r.Get("/activity", users.Activity)
		})
	})
	return r
}
