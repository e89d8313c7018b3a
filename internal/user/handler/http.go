// Package handler exposes the caller's own account endpoints under /api/v1/users/me.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"unipos-auth/internal/apperr"
	auditdomain "unipos-auth/internal/audit/domain"
	"unipos-auth/internal/identity/service"
	"unipos-auth/internal/server/middleware"
	"unipos-auth/internal/server/respond"
	"unipos-auth/internal/user/domain"
	userservice "unipos-auth/internal/user/service"
)

// Users is the subset of *userservice.Service the handlers call.
type Users interface {
	Update(ctx context.Context, callerID string, req userservice.UpdateRequest) (*domain.Summary, error)
	ChangePassword(ctx context.Context, callerID string, req userservice.ChangePasswordRequest) error
	Deactivate(ctx context.Context, callerID string, req userservice.DeleteRequest) error
	Activity(ctx context.Context, callerID string, limit int) ([]*auditdomain.AuditLog, error)
}

type UserHandler struct {
	users Users
	log   *zap.Logger
}

func NewUserHandler(users Users, log *zap.Logger) *UserHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserHandler{users: users, log: log}
}

// ActivityEntry is one audit row as returned by GET /users/me/activity.
type ActivityEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"`
	SessionID *int64    `json:"sessionId,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *UserHandler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respond.ServiceError(w, h.log, service.ErrInvalidToken)
		return "", false
	}
	return id.UserID, true
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req userservice.UpdateRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	sum, err := h.users.Update(r.Context(), callerID, req)
	if err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, sum)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req userservice.ChangePasswordRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	if err := h.users.ChangePassword(r.Context(), callerID, req); err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.OK{OK: true, Message: "password updated"})
}

// Delete soft-deletes the caller and revokes every session they hold.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req userservice.DeleteRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	if err := h.users.Deactivate(r.Context(), callerID, req); err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.OK{OK: true, Message: "account deleted"})
}

func (h *UserHandler) Activity(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.ServiceError(w, h.log, apperr.Invalid("limit", "must be a positive integer"))
			return
		}
		limit = n
	}
	logs, err := h.users.Activity(r.Context(), callerID, limit)
	if err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	out := make([]ActivityEntry, 0, len(logs))
	for _, l := range logs {
		out = append(out, ActivityEntry{
			ID: l.ID, Action: l.Action, Outcome: l.Outcome, SessionID: l.SessionID,
			IP: l.IP, UserAgent: l.UserAgent, Detail: l.Detail, CreatedAt: l.CreatedAt,
		})
	}
	respond.JSON(w, http.StatusOK, out)
}
