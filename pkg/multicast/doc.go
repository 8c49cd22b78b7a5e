/*
Package multicast raises an event to many subscribers at once and reports
their combined result.

# Overview

A dispatch takes a snapshot of handlers, starts every one of them
concurrently, waits until all of them have finished, and joins what they
returned into a single error. A handler that fails or panics never stops its
siblings; its failure shows up in the joined error instead.

# Basic Usage

	type OrderPlaced struct {
	    ID string
	}

	orders := multicast.NewEvent[OrderPlaced]()
	orders.Subscribe(func(ctx context.Context, sender any, e OrderPlaced) error {
	    return mailer.SendReceipt(ctx, e.ID)
	}, multicast.WithName("receipt"))
	orders.Subscribe(func(ctx context.Context, sender any, e OrderPlaced) error {
	    return stock.Reserve(ctx, e.ID)
	}, multicast.WithName("stock"))

	if err := orders.Invoke(ctx, shop, OrderPlaced{ID: "o-1"}); err != nil {
	    log.Printf("order hooks: %v", err)
	}

A plain slice of handlers works too:

	err := multicast.Invoke(ctx, []multicast.Handler[OrderPlaced]{a, b}, nil, e)

# Joined Errors

The joined error follows fixed rules:
  - no handlers, or all succeeded: nil
  - exactly one failure: that handler's error, not wrapped
  - two or more failures: *AggregateError listing each, in handler order
  - only cancellations: *CancellationError wrapping the context error

An *AggregateError never contains another multi-error. FlattenIfMultiple
applies the same rule to multi-errors built elsewhere, such as errors.Join.

	var agg *multicast.AggregateError
	switch {
	case errors.As(err, &agg):
	    for _, e := range agg.Errors { ... }
	case errors.Is(err, context.Canceled):
	    ...
	}

# Cancellation

The context is checked once before any handler starts; a done context fails
the whole dispatch without invoking anything. After that, cancellation is
forwarded to handlers through ctx and the dispatch still waits for all of
them. Handlers that ignore ctx keep the dispatch waiting.

# Publisher

Publisher wraps an Event with the policy layer: it logs each failed
subscriber with log/slog, can record failures in a journal.Store, and either
returns the joined error or swallows it.

	pub := multicast.NewPublisher[OrderPlaced](
	    multicast.WithErrorPolicy(multicast.PolicySwallow),
	    multicast.WithJournal(journal.NewMemoryStore()),
	)

# Observability

Dispatchers accept a slog logger, an OpenTelemetry metrics recorder, and a
span manager:

	d := multicast.NewDispatcher[OrderPlaced](
	    multicast.WithLogger(slog.Default()),
	    multicast.WithMetrics(observability.NewMetricsRecorder()),
	    multicast.WithSpanManager(observability.NewSpanManager()),
	)

All three default to no-ops.
*/
package multicast
