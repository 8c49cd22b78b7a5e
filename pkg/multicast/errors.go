package multicast

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNilHandler is the failure recorded for a nil handler in a snapshot.
var ErrNilHandler = errors.New("handler is nil")

// ErrHandlerExited is the failure recorded for a handler whose goroutine
// ended without returning, for example through runtime.Goexit.
var ErrHandlerExited = errors.New("handler exited without returning")

// ErrUnspecifiedFailure stands in for the error of an OutcomeFailure whose
// Err is nil.
var ErrUnspecifiedFailure = errors.New("handler failed without an error")

// AggregateError reports two or more subscriber failures from one dispatch.
//
// Errors is in invocation order. It never contains another multi-error
// and never holds exactly one error; a single failure is always returned
// as the subscriber's own error.
type AggregateError struct {
	Errors []error
}

// Error implements the error interface.
// The text includes the message of every constituent error.
func (e *AggregateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d subscribers failed: ", len(e.Errors))
	for i, err := range e.Errors {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap returns the constituent errors for errors.Is/As support.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// CancellationError reports a dispatch that ended because its context was
// cancelled and no subscriber failed on its own.
type CancellationError struct {
	// Cause is the context error (context.Canceled or context.DeadlineExceeded).
	Cause error
	// BeforeStart is true when the context was already done at entry and no
	// handler was invoked.
	BeforeStart bool
	// Cancelled is the number of handlers that reported cancellation.
	Cancelled int
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	if e.BeforeStart {
		return fmt.Sprintf("dispatch cancelled before start: %v", e.Cause)
	}
	return fmt.Sprintf("dispatch cancelled (%d subscribers): %v", e.Cancelled, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// PanicError captures a panic recovered from a handler.
type PanicError struct {
	// Handler is the index of the handler in the dispatch snapshot.
	Handler int
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler %d panicked: %v", e.Handler, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
