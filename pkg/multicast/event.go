package multicast

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Event is an ordered, concurrency-safe list of subscribers for one event
// type, raised through a Dispatcher.
//
// The list is copy-on-write: Subscribe and Unsubscribe replace it, and a
// dispatch holds on to the version it started with. Subscriptions added or
// removed while a dispatch is in flight take effect from the next dispatch.
type Event[E any] struct {
	dispatcher *Dispatcher[E]

	mu   sync.Mutex
	subs []*Subscription // never mutated in place
}

// NewEvent creates an empty Event whose dispatches use the given options.
func NewEvent[E any](opts ...Option) *Event[E] {
	return &Event[E]{dispatcher: NewDispatcher[E](opts...)}
}

// Subscription is one registered handler.
type Subscription struct {
	id      string
	name    string
	handler any // Handler[E] of the owning Event
	remove  func(*Subscription)
	once    sync.Once
}

// ID returns the subscription's unique identifier.
func (s *Subscription) ID() string { return s.id }

// Name returns the subscription name, or its ID when none was given.
func (s *Subscription) Name() string {
	if s.name == "" {
		return s.id
	}
	return s.name
}

// Unsubscribe removes the handler from its Event. Calling it more than once
// is a no-op. A dispatch already in flight still invokes the handler.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() { s.remove(s) })
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*Subscription)

// WithName labels the subscription in logs and journal entries.
func WithName(name string) SubscribeOption {
	return func(s *Subscription) {
		s.name = name
	}
}

// Subscribe appends handler to the list. The same function may be
// subscribed more than once; it is then invoked once per subscription.
func (e *Event[E]) Subscribe(handler Handler[E], opts ...SubscribeOption) *Subscription {
	sub := &Subscription{
		id:      uuid.New().String(),
		handler: handler,
		remove:  e.remove,
	}
	for _, opt := range opts {
		opt(sub)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := make([]*Subscription, len(e.subs), len(e.subs)+1)
	copy(next, e.subs)
	e.subs = append(next, sub)
	return sub
}

func (e *Event[E]) remove(sub *Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := slices.Index(e.subs, sub)
	if i < 0 {
		return
	}
	e.subs = slices.Concat(e.subs[:i], e.subs[i+1:])
}

// Len returns the number of current subscriptions.
func (e *Event[E]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

// subscriptions returns the current list. The slice must not be modified.
func (e *Event[E]) subscriptions() []*Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.subs
}

// Snapshot returns the handlers registered right now, in subscription order.
func (e *Event[E]) Snapshot() []Handler[E] {
	return handlersOf[E](e.subscriptions())
}

// Invoke raises the event to every current subscriber and returns the
// joined error.
func (e *Event[E]) Invoke(ctx context.Context, sender any, event E) error {
	return e.Run(ctx, sender, event).Err
}

// Run raises the event to every current subscriber and returns the full
// Result. Outcome indexes match the order of Snapshot at the time of the call.
func (e *Event[E]) Run(ctx context.Context, sender any, event E) Result {
	return e.dispatcher.Run(ctx, e.Snapshot(), sender, event)
}

func handlersOf[E any](subs []*Subscription) []Handler[E] {
	handlers := make([]Handler[E], len(subs))
	for i, s := range subs {
		handlers[i], _ = s.handler.(Handler[E])
	}
	return handlers
}
