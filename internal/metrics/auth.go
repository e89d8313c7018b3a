package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuthMetrics counts login, refresh and authenticate outcomes, both as OTel counters exported over
// OTLP and as Prometheus counters served on /metrics. A nil *AuthMetrics records nothing.
type AuthMetrics struct {
	login        metric.Int64Counter
	refresh      metric.Int64Counter
	authenticate metric.Int64Counter

	promLogin        *prometheus.CounterVec
	promRefresh      *prometheus.CounterVec
	promAuthenticate *prometheus.CounterVec
}

// NewAuthMetrics creates the counters on meter and registers their Prometheus twins on reg.
// reg may be nil to skip Prometheus.
func NewAuthMetrics(meter metric.Meter, reg prometheus.Registerer) (*AuthMetrics, error) {
	login, err := meter.Int64Counter("auth.login",
		metric.WithDescription("Login attempts by outcome."))
	if err != nil {
		return nil, err
	}
	refresh, err := meter.Int64Counter("auth.refresh",
		metric.WithDescription("Access token refreshes by outcome."))
	if err != nil {
		return nil, err
	}
	authenticate, err := meter.Int64Counter("auth.authenticate",
		metric.WithDescription("Bearer token checks by outcome."))
	if err != nil {
		return nil, err
	}
	m := &AuthMetrics{login: login, refresh: refresh, authenticate: authenticate}
	if reg == nil {
		return m, nil
	}
	m.promLogin = outcomeCounter("auth_login_total", "Login attempts by outcome.")
	m.promRefresh = outcomeCounter("auth_refresh_total", "Access token refreshes by outcome.")
	m.promAuthenticate = outcomeCounter("auth_authenticate_total", "Bearer token checks by outcome.")
	for _, c := range []prometheus.Collector{m.promLogin, m.promRefresh, m.promAuthenticate} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func outcomeCounter(name, help string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, []string{"outcome"})
}

func (m *AuthMetrics) RecordLogin(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.login.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	incOutcome(m.promLogin, outcome)
}

func (m *AuthMetrics) RecordRefresh(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.refresh.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	incOutcome(m.promRefresh, outcome)
}

func (m *AuthMetrics) RecordAuthenticate(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.authenticate.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	incOutcome(m.promAuthenticate, outcome)
}

func incOutcome(c *prometheus.CounterVec, outcome string) {
	if c != nil {
		c.WithLabelValues(outcome).Inc()
	}
}
