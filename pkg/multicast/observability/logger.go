// Package observability provides structured logging, metrics, and tracing
// for multicast dispatches.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// EnrichLogger adds dispatch context to a logger.
// Returns a new logger with the dispatch_id field.
//
// Example:
//
//	enriched := EnrichLogger(logger, "d-123")
//	enriched.Info("delivering") // includes dispatch_id
func EnrichLogger(logger *slog.Logger, dispatchID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("dispatch_id", dispatchID))
}

// LogDispatchStart logs the start of a dispatch.
func LogDispatchStart(logger *slog.Logger, dispatchID string, handlers int) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch starting",
		slog.String("dispatch_id", dispatchID),
		slog.Int("handlers", handlers),
	)
}

// LogDispatchComplete logs a dispatch in which every handler succeeded.
func LogDispatchComplete(logger *slog.Logger, dispatchID string, durationMs float64, handlers int) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch completed",
		slog.String("dispatch_id", dispatchID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("handlers", handlers),
	)
}

// LogDispatchError logs a dispatch that ended with a failure or cancellation.
func LogDispatchError(logger *slog.Logger, dispatchID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch failed",
		slog.String("dispatch_id", dispatchID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogSubscriberFailure logs one subscriber that did not succeed.
func LogSubscriberFailure(logger *slog.Logger, dispatchID, subscriber, outcome string, err error) {
	if logger == nil {
		return
	}
	level := slog.LevelError
	if outcome == "cancelled" {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "subscriber failed",
		slog.String("dispatch_id", dispatchID),
		slog.String("subscriber", subscriber),
		slog.String("outcome", outcome),
		slog.String("error", err.Error()),
	)
}

// LogJournalError logs a failure to record a journal entry (non-fatal).
func LogJournalError(logger *slog.Logger, dispatchID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("journal record failed",
		slog.String("dispatch_id", dispatchID),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
