package multicast

import (
	"context"
	"errors"
	"time"
)

// OutcomeKind is the terminal state of one handler invocation.
type OutcomeKind int

const (
	// OutcomeSuccess means the handler returned nil.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeFailure means the handler returned an error or panicked.
	OutcomeFailure

	// OutcomeCancelled means the dispatch context was cancelled before the
	// handler ran, or the handler stopped because of it.
	OutcomeCancelled
)

// String returns the kind name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the result of one handler in a dispatch.
type Outcome struct {
	// Index is the handler's position in the dispatch snapshot.
	Index int

	Kind OutcomeKind

	// Err is nil for OutcomeSuccess.
	Err error

	Duration time.Duration
}

// Succeeded returns an OutcomeSuccess for the handler at index.
func Succeeded(index int) Outcome {
	return Outcome{Index: index, Kind: OutcomeSuccess}
}

// Failed returns an OutcomeFailure carrying err.
func Failed(index int, err error) Outcome {
	return Outcome{Index: index, Kind: OutcomeFailure, Err: err}
}

// Cancelled returns an OutcomeCancelled carrying the context error.
func Cancelled(index int, cause error) Outcome {
	return Outcome{Index: index, Kind: OutcomeCancelled, Err: cause}
}

// classify turns a handler's return value into an Outcome. An error counts
// as cancellation only when the dispatch context itself is done and the
// handler surfaced a context error; a handler's own deadline is a failure.
func classify(ctx context.Context, index int, err error) Outcome {
	if err == nil {
		return Succeeded(index)
	}
	if ctx.Err() != nil && isContextError(err) {
		return Cancelled(index, err)
	}
	return Failed(index, err)
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
