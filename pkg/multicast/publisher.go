package multicast

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/multicast/pkg/multicast/config"
	"github.com/randalmurphal/multicast/pkg/multicast/journal"
	"github.com/randalmurphal/multicast/pkg/multicast/observability"
)

// ErrorPolicy decides what Publish returns when subscribers fail.
type ErrorPolicy int

const (
	// PolicyReturn returns the joined error to the caller.
	PolicyReturn ErrorPolicy = iota

	// PolicySwallow logs subscriber failures and returns nil.
	PolicySwallow
)

// String returns the policy name used in configuration.
func (p ErrorPolicy) String() string {
	switch p {
	case PolicyReturn:
		return "return"
	case PolicySwallow:
		return "swallow"
	default:
		return "unknown"
	}
}

// ParseErrorPolicy parses "return" or "swallow".
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch s {
	case "return", "":
		return PolicyReturn, nil
	case "swallow":
		return PolicySwallow, nil
	default:
		return PolicyReturn, fmt.Errorf("unknown error policy %q", s)
	}
}

// Publisher owns an Event and raises it on behalf of a component. It is the
// layer that decides what happens to subscriber failures: it logs each one,
// records it in an optional journal, and applies its ErrorPolicy.
type Publisher[E any] struct {
	*Event[E]

	sender  any
	policy  ErrorPolicy
	logger  *slog.Logger
	journal journal.Store
}

// PublisherOption configures a Publisher.
type PublisherOption func(*publisherConfig)

type publisherConfig struct {
	sender      any
	policy      ErrorPolicy
	logger      *slog.Logger
	journal     journal.Store
	dispatchOps []Option
}

// WithSender sets the sender passed to handlers. Default: the Publisher.
func WithSender(sender any) PublisherOption {
	return func(c *publisherConfig) {
		c.sender = sender
	}
}

// WithErrorPolicy sets the error policy. Default: PolicyReturn
func WithErrorPolicy(p ErrorPolicy) PublisherOption {
	return func(c *publisherConfig) {
		c.policy = p
	}
}

// WithPublisherLogger sets the logger for subscriber failures.
// Default: slog.Default()
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(c *publisherConfig) {
		c.logger = logger
	}
}

// WithJournal records every failed or cancelled subscriber in store.
// The Publisher does not close the store.
func WithJournal(store journal.Store) PublisherOption {
	return func(c *publisherConfig) {
		c.journal = store
	}
}

// WithDispatchOptions configures the Dispatcher used by the Publisher.
func WithDispatchOptions(opts ...Option) PublisherOption {
	return func(c *publisherConfig) {
		c.dispatchOps = append(c.dispatchOps, opts...)
	}
}

// NewPublisher creates a Publisher with no subscribers.
func NewPublisher[E any](opts ...PublisherOption) *Publisher[E] {
	cfg := publisherConfig{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Publisher[E]{
		Event:   NewEvent[E](cfg.dispatchOps...),
		sender:  cfg.sender,
		policy:  cfg.policy,
		logger:  cfg.logger,
		journal: cfg.journal,
	}
	if p.sender == nil {
		p.sender = p
	}
	return p
}

// Publish raises event to every current subscriber and waits for all of them.
// With PolicySwallow failures are reported but nil is returned.
func (p *Publisher[E]) Publish(ctx context.Context, event E) error {
	elapsed := observability.TimedOperation()
	subs := p.subscriptions()
	result := p.dispatcher.Run(ctx, handlersOf[E](subs), p.sender, event)
	p.report(ctx, subs, result)

	if result.Err != nil {
		observability.LogDispatchError(p.logger, result.DispatchID, result.Err, elapsed())
	}

	if p.policy == PolicySwallow {
		return nil
	}
	return result.Err
}

// report logs and journals every outcome that was not a success.
func (p *Publisher[E]) report(ctx context.Context, subs []*Subscription, result Result) {
	if result.Err == nil {
		return
	}
	logger := observability.EnrichLogger(p.logger, result.DispatchID)

	if result.Outcomes == nil {
		if logger != nil {
			logger.Warn("dispatch cancelled before start",
				slog.Int("subscribers", len(subs)),
				slog.String("error", result.Err.Error()),
			)
		}
		return
	}

	// The journal is written even when ctx is the reason the dispatch ended.
	recordCtx := context.WithoutCancel(ctx)
	for _, o := range result.Outcomes {
		if o.Kind == OutcomeSuccess {
			continue
		}
		name := subs[o.Index].Name()
		observability.LogSubscriberFailure(p.logger, result.DispatchID, name, o.Kind.String(), o.Err)

		if p.journal == nil {
			continue
		}
		err := p.journal.Record(recordCtx, journal.Entry{
			DispatchID: result.DispatchID,
			Index:      o.Index,
			Subscriber: name,
			Outcome:    o.Kind.String(),
			Message:    o.Err.Error(),
		})
		if err != nil {
			observability.LogJournalError(p.logger, result.DispatchID, err)
		}
	}
}

// PublisherOptionsFromConfig builds publisher options from a config section.
//
// Keys: error_policy ("return" or "swallow"), journal_path (SQLite file).
// When journal_path is set the returned store must be closed by the caller;
// it is nil otherwise.
func PublisherOptionsFromConfig(cfg config.Config) ([]PublisherOption, journal.Store, error) {
	policy, err := ParseErrorPolicy(cfg.String("error_policy", "return"))
	if err != nil {
		return nil, nil, err
	}
	opts := []PublisherOption{WithErrorPolicy(policy)}

	path := cfg.String("journal_path", "")
	if path == "" {
		return opts, nil, nil
	}
	store, err := journal.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	return append(opts, WithJournal(store)), store, nil
}
