package multicast

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/multicast/pkg/multicast/config"
	"github.com/randalmurphal/multicast/pkg/multicast/observability"
)

// dispatchConfig holds configuration shared by every dispatch of a Dispatcher.
type dispatchConfig struct {
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	maxConcurrency int
	handlerTimeout time.Duration
}

func defaultDispatchConfig() dispatchConfig {
	return dispatchConfig{
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// Option configures a Dispatcher.
type Option func(*dispatchConfig)

// WithLogger sets the logger used for dispatch lifecycle records (Debug level).
// Default: nil (no logging)
func WithLogger(logger *slog.Logger) Option {
	return func(c *dispatchConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics{}
//
// Example:
//
//	d := multicast.NewDispatcher[OrderPlaced](
//	    multicast.WithMetrics(observability.NewMetricsRecorder()),
//	)
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *dispatchConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpanManager sets the span manager.
// Default: observability.NoopSpanManager{}
func WithSpanManager(sm observability.SpanManager) Option {
	return func(c *dispatchConfig) {
		if sm != nil {
			c.spans = sm
		}
	}
}

// WithMaxConcurrency limits how many handlers run at the same time.
// Default: 0 (unlimited, every handler starts immediately)
//
// Handlers waiting for a slot when the context is cancelled report
// OutcomeCancelled without being invoked.
func WithMaxConcurrency(n int) Option {
	return func(c *dispatchConfig) {
		if n >= 0 {
			c.maxConcurrency = n
		}
	}
}

// WithHandlerTimeout bounds each handler with its own deadline.
// Default: 0 (no per-handler deadline)
//
// A handler that exceeds it reports OutcomeFailure with
// context.DeadlineExceeded; the dispatch context is not cancelled.
func WithHandlerTimeout(d time.Duration) Option {
	return func(c *dispatchConfig) {
		if d >= 0 {
			c.handlerTimeout = d
		}
	}
}

// OptionsFromConfig builds dispatcher options from a config section.
//
// Keys: max_concurrency (int), handler_timeout (duration),
// metrics (bool, OTel recorder), tracing (bool, OTel span manager).
func OptionsFromConfig(cfg config.Config) []Option {
	opts := []Option{
		WithMaxConcurrency(cfg.Int("max_concurrency", 0)),
		WithHandlerTimeout(cfg.Duration("handler_timeout", 0)),
	}
	if cfg.Bool("metrics", false) {
		opts = append(opts, WithMetrics(observability.NewMetricsRecorder()))
	}
	if cfg.Bool("tracing", false) {
		opts = append(opts, WithSpanManager(observability.NewSpanManager()))
	}
	return opts
}
