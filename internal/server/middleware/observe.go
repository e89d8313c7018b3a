package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"unipos-auth/internal/metrics"
	"unipos-auth/internal/telemetry"
)

// Observer traces, counts and logs every request, and hands a telemetry event to the emitter.
type Observer struct {
	Tracer  trace.Tracer
	Metrics *metrics.HTTPMetrics
	Emitter telemetry.EventEmitter
	Log     *zap.Logger
	// Skip lists paths (e.g. /healthz) that are served but not logged or emitted.
	Skip map[string]bool
}

func (o Observer) Middleware(next http.Handler) http.Handler {
	tracer := o.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		ctx, slot := withIdentitySlot(ctx)
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		r = r.WithContext(ctx)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		route := ""
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route != "" {
			span.SetName(r.Method + " " + route)
		}
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		o.Metrics.Observe(r.Method, route, status, elapsed)
		if o.Skip[r.URL.Path] {
			return
		}

		ev := &telemetry.Event{
			Type:      telemetry.EventHTTPRequest,
			RequestID: chimw.GetReqID(r.Context()),
			Method:    r.Method,
			Route:     route,
			Status:    status,
			Duration:  elapsed,
			IP:        ClientFrom(r.Context()).IP,
			CreatedAt: start.UTC(),
		}
		if u := slot.get(); u != nil {
			ev.UserID, ev.SessionID = u.UserID, u.SessionID
		}
		telemetry.EmitAsync(o.Emitter, ev, log)
		log.Info("http request",
			zap.String("request_id", ev.RequestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.String("ip", ev.IP),
			zap.String("user_id", ev.UserID),
		)
	})
}
