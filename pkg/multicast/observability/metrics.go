package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records dispatch metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordDispatch records a finished dispatch with its handler count,
	// duration, and joined error (nil on success).
	RecordDispatch(ctx context.Context, handlers int, duration time.Duration, err error)

	// RecordHandler records one handler outcome ("success", "failure", "cancelled").
	RecordHandler(ctx context.Context, outcome string, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	dispatches      metric.Int64Counter
	dispatchLatency metric.Float64Histogram
	dispatchErrors  metric.Int64Counter
	handlerOutcomes metric.Int64Counter
	handlerLatency  metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("multicast")

	dispatches, err := meter.Int64Counter("multicast.dispatch.count",
		metric.WithDescription("Number of dispatches"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("multicast.dispatch.latency_ms",
		metric.WithDescription("Dispatch latency in milliseconds, fan-out to join"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	dispatchErrors, err := meter.Int64Counter("multicast.dispatch.errors",
		metric.WithDescription("Number of dispatches that returned an error"),
	)
	if err != nil {
		return nil, err
	}

	handlerOutcomes, err := meter.Int64Counter("multicast.handler.outcomes",
		metric.WithDescription("Handler outcomes by kind"),
	)
	if err != nil {
		return nil, err
	}

	handlerLatency, err := meter.Float64Histogram("multicast.handler.latency_ms",
		metric.WithDescription("Handler latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		dispatches:      dispatches,
		dispatchLatency: dispatchLatency,
		dispatchErrors:  dispatchErrors,
		handlerOutcomes: handlerOutcomes,
		handlerLatency:  handlerLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordDispatch records a dispatch.
func (m *otelMetrics) RecordDispatch(ctx context.Context, handlers int, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", err == nil),
	}
	m.dispatches.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dispatchLatency.Record(ctx, float64(duration.Milliseconds()),
		metric.WithAttributes(append(attrs, attribute.Int("handlers", handlers))...))

	if err != nil {
		m.dispatchErrors.Add(ctx, 1)
	}
}

// RecordHandler records a handler outcome.
func (m *otelMetrics) RecordHandler(ctx context.Context, outcome string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("outcome", outcome),
	}
	m.handlerOutcomes.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.handlerLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}
