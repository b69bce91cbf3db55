// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fusecore

import (
	"context"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// httpStatusAttr builds the "http.response.status_code" span attribute,
// following OpenTelemetry's semantic-convention naming (teacher's
// tracing.go uses the same attribute key).
func httpStatusAttr(status int) attribute.KeyValue {
	return attribute.Int("http.response.status_code", status)
}

// noopLogger is a singleton no-op logger used when no observability is
// configured (teacher's router.NoopLogger pattern).
var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// NoopLogger returns the singleton no-op logger, useful for tests and for
// ObservabilityRecorder implementations that disable logging.
func NoopLogger() *slog.Logger { return noopLogger }

// ObservabilityRecorder is the pluggable hook Service.Handle calls into for
// tracing, metrics, and request-scoped logging, mirroring the
// teacher's unified ObservabilityRecorder (metrics + tracing + logging in
// one interface rather than three). A nil Service.Observability means no-op:
// every call site guards with a nil check before invoking it, so the
// zero-configuration path never touches otel or prometheus.
type ObservabilityRecorder interface {
	// OnRequestStart is called once routing begins; it may enrich ctx (e.g.
	// to carry a span) and returns an opaque state handle passed to
	// OnRequestEnd.
	OnRequestStart(ctx context.Context, method, path string) (context.Context, any)
	// OnRequestEnd is called once the response is finalized.
	OnRequestEnd(ctx context.Context, state any, status int)
	// Logger returns the request-scoped logger to attach to a Depot.
	Logger() *slog.Logger
}

// TracingRecorder wraps an OpenTelemetry tracer into an ObservabilityRecorder,
// grounded on the teacher's context.go "span trace.Span" field and
// tracing.go wiring.
type TracingRecorder struct {
	tracer trace.Tracer
	logger *slog.Logger
}

// NewTracingRecorder builds a recorder that starts one span per request.
func NewTracingRecorder(tracer trace.Tracer, logger *slog.Logger) *TracingRecorder {
	if logger == nil {
		logger = noopLogger
	}
	return &TracingRecorder{tracer: tracer, logger: logger}
}

type tracingState struct {
	span trace.Span
}

// OnRequestStart starts a span named "<method> <path>".
func (r *TracingRecorder) OnRequestStart(ctx context.Context, method, path string) (context.Context, any) {
	spanCtx, span := r.tracer.Start(ctx, method+" "+path)
	return spanCtx, &tracingState{span: span}
}

// OnRequestEnd records the final status and ends the span.
func (r *TracingRecorder) OnRequestEnd(_ context.Context, state any, status int) {
	st, ok := state.(*tracingState)
	if !ok || st.span == nil {
		return
	}
	st.span.SetAttributes(httpStatusAttr(status))
	st.span.End()
}

// Logger returns the recorder's logger.
func (r *TracingRecorder) Logger() *slog.Logger { return r.logger }

// MetricsRecorder wraps Prometheus counters/histograms for the server loop's
// connection and fuse-trip accounting, grounded on the teacher's metrics.go
// Prometheus wiring. It is not an ObservabilityRecorder; per-request counts
// are recorded only by callers of ObserveRequest, which Service does not call.
type MetricsRecorder struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fuseTripsTotal  prometheus.Counter
	connsActive     prometheus.Gauge
}

// NewMetricsRecorder registers its collectors on reg (a caller-owned
// registry, typically prometheus.NewRegistry(), never the global default —
// mirroring the teacher's metrics_providers.go preference for injected
// registries over global state).
func NewMetricsRecorder(reg *prometheus.Registry, namespace string) *MetricsRecorder {
	m := &MetricsRecorder{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total HTTP requests served, labeled by status class.",
		}, []string{"status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request handling latency in seconds.",
		}, []string{"status"}),
		fuseTripsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fuse_trips_total",
			Help:      "Total connections terminated by the fuse watchdog.",
		}),
		connsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Currently live connections.",
		}),
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.fuseTripsTotal, m.connsActive)
	return m
}

// ObserveRequest records one completed request.
func (m *MetricsRecorder) ObserveRequest(status int, seconds float64) {
	class := statusClass(status)
	m.requestsTotal.WithLabelValues(class).Inc()
	m.requestDuration.WithLabelValues(class).Observe(seconds)
}

// IncFuseTrip records one fuse-watchdog trip.
func (m *MetricsRecorder) IncFuseTrip() {
	m.fuseTripsTotal.Inc()
}

// ConnOpened/ConnClosed track live connection count.
func (m *MetricsRecorder) ConnOpened() { m.connsActive.Inc() }
func (m *MetricsRecorder) ConnClosed() { m.connsActive.Dec() }

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}
