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
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNoopLogger_NeverReturnsNil(t *testing.T) {
	assert.NotNil(t, NoopLogger())
}

func TestTracingRecorder_NilLoggerDefaultsToNoop(t *testing.T) {
	r := NewTracingRecorder(noop.NewTracerProvider().Tracer("test"), nil)
	assert.Same(t, noopLogger, r.Logger())
}

func TestTracingRecorder_StartAndEndSpanRoundTrip(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	r := NewTracingRecorder(tracer, nil)

	ctx, state := r.OnRequestStart(context.Background(), "GET", "/widgets")
	require.NotNil(t, ctx)
	require.NotNil(t, state)

	r.OnRequestEnd(ctx, state, 200)
}

func TestTracingRecorder_OnRequestEndIgnoresWrongStateType(t *testing.T) {
	r := NewTracingRecorder(noop.NewTracerProvider().Tracer("test"), nil)
	assert.NotPanics(t, func() {
		r.OnRequestEnd(context.Background(), "not-a-tracing-state", 500)
	})
}

func TestMetricsRecorder_ObserveRequestBucketsByStatusClass(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsRecorder(reg, "fusecore_test")

	m.ObserveRequest(204, 0.01)
	m.ObserveRequest(404, 0.02)
	m.ObserveRequest(500, 0.03)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("2xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("4xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("5xx")))
}

func TestMetricsRecorder_FuseTripAndConnGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsRecorder(reg, "fusecore_test")

	m.IncFuseTrip()
	m.ConnOpened()
	m.ConnOpened()
	m.ConnClosed()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.fuseTripsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.connsActive))
}

func TestMetricsRecorder_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetricsRecorder(reg, "fusecore_test")
	assert.Panics(t, func() {
		NewMetricsRecorder(reg, "fusecore_test")
	})
}

func TestStatusClass_BoundariesAndFallback(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(200))
	assert.Equal(t, "3xx", statusClass(301))
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "5xx", statusClass(503))
	assert.Equal(t, "other", statusClass(0))
}
