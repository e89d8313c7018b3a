package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"unipos-auth/internal/telemetry"
)

// RecordEmitter is the subset of otellog.Logger used by the emitter.
type RecordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger(InstrumentationName + ".http"))
}

// NewEventEmitterWithLogger wraps any record emitter; tests pass a capturing fake.
func NewEventEmitterWithLogger(logger RecordEmitter) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.Event) error { return nil }

type otelEmitter struct {
	logger RecordEmitter
}

// Emit converts event to an OTel log record. Empty fields are not attached.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetBody(otellog.StringValue(event.Type))
	rec.SetSeverity(otellog.SeverityInfo)
	if event.Status >= 500 {
		rec.SetSeverity(otellog.SeverityError)
	}

	str := func(k, v string) {
		if v != "" {
			rec.AddAttributes(otellog.String(k, v))
		}
	}
	str("event_type", event.Type)
	str("user_id", event.UserID)
	str("request_id", event.RequestID)
	str("http.method", event.Method)
	str("http.route", event.Route)
	str("client.ip", event.IP)
	if event.SessionID != 0 {
		rec.AddAttributes(otellog.Int64("session_id", event.SessionID))
	}
	if event.Status != 0 {
		rec.AddAttributes(otellog.Int("http.status_code", event.Status))
	}
	if event.Duration > 0 {
		rec.AddAttributes(otellog.Int64("duration_ms", event.Duration.Milliseconds()))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
