// Package handler exposes the auth endpoints under /api/v1/auth.
package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"unipos-auth/internal/identity/service"
	"unipos-auth/internal/server/middleware"
	"unipos-auth/internal/server/respond"
	sessiondomain "unipos-auth/internal/session/domain"
	userdomain "unipos-auth/internal/user/domain"
)

// Auth is the subset of *service.AuthService the handlers call.
type Auth interface {
	Login(ctx context.Context, req service.LoginRequest) (*service.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*service.RefreshResult, error)
	Logout(ctx context.Context, jti, reason string) error
	Me(ctx context.Context, userID string) (*userdomain.Summary, error)
	Register(ctx context.Context, req service.RegisterRequest) (*service.RegisterResult, error)
	Availability(ctx context.Context, req service.AvailabilityRequest) error
}

type AuthHandler struct {
	auth Auth
	log  *zap.Logger
}

func NewAuthHandler(auth Auth, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{auth: auth, log: log}
}

// Login handles POST /auth/login. Client IP and user agent come from the request, never the body.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	client := middleware.ClientFrom(r.Context())
	req.IP, req.UserAgent = client.IP, client.UserAgent
	res, err := h.auth.Login(r.Context(), req)
	if err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req service.RefreshRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	if err := req.Validate(); err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	res, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

// Logout revokes the session behind the bearer token. Must run behind RequireAuth.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respond.ServiceError(w, h.log, service.ErrInvalidToken)
		return
	}
	if err := h.auth.Logout(r.Context(), id.JTI, sessiondomain.ReasonLogout); err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.OK{OK: true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respond.ServiceError(w, h.log, service.ErrInvalidToken)
		return
	}
	sum, err := h.auth.Me(r.Context(), id.UserID)
	if err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, sum)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	res, err := h.auth.Register(r.Context(), req)
	if err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, res)
}

// Availability answers 200 when username, email and nationalId are all free, 409 naming the first taken field otherwise.
func (h *AuthHandler) Availability(w http.ResponseWriter, r *http.Request) {
	var req service.AvailabilityRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	if err := h.auth.Availability(r.Context(), req); err != nil {
		respond.ServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.OK{OK: true, Message: "available"})
}
