// Package respond writes JSON bodies and maps service errors to HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"unipos-auth/internal/apperr"
	identityservice "unipos-auth/internal/identity/service"
	userservice "unipos-auth/internal/user/service"
)

const maxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response. Field names the offending input when known.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// OK is the acknowledgement body for operations that return no data.
type OK struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Error: msg})
}

// Decode reads a JSON body of at most 1 MiB into v. An empty body leaves v untouched.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperr.Invalid("body", fmt.Sprintf("invalid JSON: %v", err))
}

// Status returns the HTTP status for err.
func Status(err error) int {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, identityservice.ErrInvalidCredentials),
		errors.Is(err, identityservice.ErrInvalidToken),
		errors.Is(err, identityservice.ErrSessionExpired),
		errors.Is(err, identityservice.ErrUserNotFound),
		errors.Is(err, userservice.ErrUserNotFound),
		errors.Is(err, userservice.ErrInvalidPassword):
		return http.StatusUnauthorized
	case errors.Is(err, identityservice.ErrAccountDisabled),
		errors.Is(err, userservice.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, identityservice.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// ServiceError writes err with the status from Status. Internal errors are logged and replaced by a
// generic message so storage details never reach the client.
func ServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := Status(err)
	body := ErrorBody{Error: err.Error()}
	var ve *apperr.ValidationError
	var ce *apperr.ConflictError
	switch {
	case errors.As(err, &ve):
		body.Field = ve.Field
	case errors.As(err, &ce):
		body.Field = ce.Field
	}
	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		body = ErrorBody{Error: "internal server error"}
	}
	JSON(w, status, body)
}
