package telemetry

import (
	"context"
	"time"
)

// EventHTTPRequest is the Type of events emitted by the HTTP telemetry middleware.
const EventHTTPRequest = "http_request"

// Event is one observed request. Zero-valued fields are omitted from the exported record.
type Event struct {
	Type      string
	UserID    string
	SessionID int64
	RequestID string
	Method    string
	Route     string
	Status    int
	Duration  time.Duration
	IP        string
	CreatedAt time.Time
}

// EventEmitter emits telemetry events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}
