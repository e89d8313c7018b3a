// Package handler serves liveness and readiness probes.
package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"unipos-auth/internal/server/respond"
)

const pingTimeout = 2 * time.Second

// Pinger is implemented by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	db  Pinger
	log *zap.Logger
}

// New returns a health handler. db may be nil; then readiness skips the database ping.
func New(db Pinger, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{db: db, log: log}
}

type status struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// Live always reports ok while the process serves HTTP.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, status{Status: "ok"})
}

// Ready reports 503 when the database does not answer a ping.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respond.JSON(w, http.StatusOK, status{Status: "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		h.log.Warn("readiness ping failed", zap.Error(err))
		respond.JSON(w, http.StatusServiceUnavailable, status{Status: "unavailable", Database: "down"})
		return
	}
	respond.JSON(w, http.StatusOK, status{Status: "ok", Database: "up"})
}
