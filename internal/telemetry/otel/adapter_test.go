package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"unipos-auth/internal/telemetry"
)

// recordCapture stores the last Record passed to Emit for assertion.
type recordCapture struct {
	rec otellog.Record
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.rec = rec
}

func attrs(rec otellog.Record) map[string]otellog.Value {
	m := map[string]otellog.Value{}
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		m[kv.Key] = kv.Value
		return true
	})
	return m
}

func TestNewEventEmitter_NilProvider(t *testing.T) {
	em := NewEventEmitter(nil)
	if err := em.Emit(context.Background(), &telemetry.Event{Type: telemetry.EventHTTPRequest}); err != nil {
		t.Errorf("noop Emit: %v", err)
	}
}

func TestNewEventEmitter_Provider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	em := NewEventEmitter(provider)
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(nil): %v", err)
	}
	if err := em.Emit(context.Background(), &telemetry.Event{Type: telemetry.EventHTTPRequest}); err != nil {
		t.Errorf("Emit: %v", err)
	}
}

func TestEmit_AttributeMapping(t *testing.T) {
	capture := &recordCapture{}
	em := NewEventEmitterWithLogger(capture)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	err := em.Emit(context.Background(), &telemetry.Event{
		Type:      telemetry.EventHTTPRequest,
		UserID:    "u1",
		SessionID: 7,
		Method:    "POST",
		Route:     "/api/v1/auth/login",
		Status:    200,
		Duration:  1500 * time.Millisecond,
		CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	rec := capture.rec
	if !rec.Timestamp().Equal(at) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), at)
	}
	if rec.Body().AsString() != telemetry.EventHTTPRequest {
		t.Errorf("body = %v", rec.Body())
	}
	a := attrs(rec)
	if a["user_id"].AsString() != "u1" || a["http.route"].AsString() != "/api/v1/auth/login" {
		t.Errorf("string attrs = %v", a)
	}
	if a["session_id"].AsInt64() != 7 || a["http.status_code"].AsInt64() != 200 || a["duration_ms"].AsInt64() != 1500 {
		t.Errorf("numeric attrs = %v", a)
	}
	if _, ok := a["client.ip"]; ok {
		t.Error("empty IP should not be attached")
	}
}

func TestEmit_DefaultsAndSeverity(t *testing.T) {
	capture := &recordCapture{}
	em := NewEventEmitterWithLogger(capture)
	before := time.Now().Add(-time.Second)
	if err := em.Emit(context.Background(), &telemetry.Event{Type: telemetry.EventHTTPRequest, Status: 503}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if capture.rec.Timestamp().Before(before) {
		t.Error("zero CreatedAt should default to now")
	}
	if capture.rec.Severity() != otellog.SeverityError {
		t.Errorf("severity = %v, want error for 5xx", capture.rec.Severity())
	}
	if _, ok := attrs(capture.rec)["session_id"]; ok {
		t.Error("zero session id should not be attached")
	}
}
