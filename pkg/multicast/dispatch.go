package multicast

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"github.com/randalmurphal/multicast/pkg/multicast/observability"
)

// Handler is a subscriber callback.
//
// ctx carries the dispatch's cancellation signal; handlers that block should
// watch it. sender identifies who raised the event and may be nil. A nil
// return is success. Handlers must treat sender and event as read-only:
// every handler in a dispatch receives the same values.
type Handler[E any] func(ctx context.Context, sender any, event E) error

// Result describes one finished dispatch.
type Result struct {
	// DispatchID identifies the dispatch in logs, spans, and journals.
	DispatchID string

	// Outcomes holds one entry per handler, ordered by Index.
	// Nil when the context was cancelled before any handler started.
	Outcomes []Outcome

	// Err is Reduce(Outcomes), or a *CancellationError with BeforeStart set.
	Err error

	Duration time.Duration
}

// Dispatcher runs a snapshot of handlers concurrently and joins their outcomes.
// A Dispatcher holds no per-dispatch state and is safe for concurrent use.
type Dispatcher[E any] struct {
	cfg dispatchConfig
}

// NewDispatcher creates a Dispatcher for events of type E.
func NewDispatcher[E any](opts ...Option) *Dispatcher[E] {
	cfg := defaultDispatchConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Dispatcher[E]{cfg: cfg}
}

// Invoke is a shorthand for Run that returns only the joined error.
func (d *Dispatcher[E]) Invoke(ctx context.Context, handlers []Handler[E], sender any, event E) error {
	return d.Run(ctx, handlers, sender, event).Err
}

// Invoke dispatches event to handlers with a default Dispatcher.
//
// Example:
//
//	err := multicast.Invoke(ctx, handlers, publisher, OrderPlaced{ID: "o-1"})
//	var agg *multicast.AggregateError
//	if errors.As(err, &agg) {
//	    // two or more subscribers failed
//	}
func Invoke[E any](ctx context.Context, handlers []Handler[E], sender any, event E) error {
	return NewDispatcher[E]().Invoke(ctx, handlers, sender, event)
}

// Run invokes every handler in its own goroutine, waits for all of them, and
// joins the outcomes with Reduce.
//
// The handlers slice is copied on entry; later changes to it do not affect
// this dispatch. An empty snapshot succeeds without starting any goroutine.
// A context that is already done fails fast with a *CancellationError and no
// handler is invoked. Otherwise no handler's failure stops its siblings.
func (d *Dispatcher[E]) Run(ctx context.Context, handlers []Handler[E], sender any, event E) Result {
	snapshot := slices.Clone(handlers)
	result := Result{DispatchID: uuid.New().String()}

	if len(snapshot) == 0 {
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Err = &CancellationError{Cause: err, BeforeStart: true}
		return result
	}

	start := time.Now()
	observability.LogDispatchStart(d.cfg.logger, result.DispatchID, len(snapshot))

	ctx, span := d.cfg.spans.StartDispatchSpan(ctx, result.DispatchID, len(snapshot))

	var sem *semaphore.Weighted
	if d.cfg.maxConcurrency > 0 {
		sem = semaphore.NewWeighted(int64(d.cfg.maxConcurrency))
	}

	outcomes := make([]Outcome, len(snapshot))
	var wg sync.WaitGroup
	for i, h := range snapshot {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.invokeOne(ctx, sem, i, h, sender, event, &outcomes[i])
		}()
	}
	wg.Wait()

	result.Outcomes = outcomes
	result.Err = Reduce(outcomes)
	result.Duration = time.Since(start)

	d.cfg.metrics.RecordDispatch(ctx, len(snapshot), result.Duration, result.Err)
	d.cfg.spans.EndSpanWithError(span, result.Err)
	durationMs := float64(result.Duration.Milliseconds())
	if result.Err != nil {
		observability.LogDispatchError(d.cfg.logger, result.DispatchID, result.Err, durationMs)
	} else {
		observability.LogDispatchComplete(d.cfg.logger, result.DispatchID, durationMs, len(snapshot))
	}

	return result
}

// invokeOne produces exactly one Outcome for the handler at index.
//
// out starts as an ErrHandlerExited failure and is replaced on every return
// path. The deferred write to slot also runs under runtime.Goexit, which
// recover does not see, so such a handler is reported as that failure.
func (d *Dispatcher[E]) invokeOne(
	ctx context.Context,
	sem *semaphore.Weighted,
	index int,
	h Handler[E],
	sender any,
	event E,
	slot *Outcome,
) {
	start := time.Now()
	out := Failed(index, ErrHandlerExited)
	defer func() {
		out.Duration = time.Since(start)
		*slot = out
		d.cfg.metrics.RecordHandler(ctx, out.Kind.String(), out.Duration)
	}()

	if sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			out = d.cancelledBeforeCall(ctx, index, err)
			return
		}
		defer sem.Release(1)
	}

	if err := ctx.Err(); err != nil {
		out = d.cancelledBeforeCall(ctx, index, err)
		return
	}
	if h == nil {
		out = Failed(index, ErrNilHandler)
		return
	}

	handlerCtx, span := d.cfg.spans.StartHandlerSpan(ctx, index)
	defer func() {
		d.cfg.spans.EndSpanWithError(span, out.Err)
	}()
	if d.cfg.handlerTimeout > 0 {
		var cancel context.CancelFunc
		handlerCtx, cancel = context.WithTimeout(handlerCtx, d.cfg.handlerTimeout)
		defer cancel()
	}

	out = classify(ctx, index, callGuarded(handlerCtx, index, h, sender, event))

	var pe *PanicError
	switch {
	case errors.As(out.Err, &pe):
		d.cfg.spans.AddSpanEvent(handlerCtx, "handler.panic",
			attribute.String("panic.value", fmt.Sprint(pe.Value)),
		)
	case out.Kind == OutcomeCancelled:
		d.cfg.spans.AddSpanEvent(handlerCtx, "handler.cancelled")
	}
}

// cancelledBeforeCall records a handler skipped because the dispatch
// context ended first.
func (d *Dispatcher[E]) cancelledBeforeCall(ctx context.Context, index int, err error) Outcome {
	d.cfg.spans.AddSpanEvent(ctx, "handler.skipped",
		attribute.Int("handler.index", index),
	)
	return Cancelled(index, err)
}

// callGuarded runs h and converts a panic into a *PanicError, so a handler
// that blows up before doing any work reports through the same path as one
// that returns an error.
func callGuarded[E any](ctx context.Context, index int, h Handler[E], sender any, event E) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Handler: index,
				Value:   r,
				Stack:   string(debug.Stack()),
			}
		}
	}()
	return h(ctx, sender, event)
}
