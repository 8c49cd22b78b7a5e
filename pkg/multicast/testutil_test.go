package multicast

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Ping is the event type used across tests.
type Ping struct {
	Seq int
}

// succeed returns a handler that counts its calls.
func succeed(calls *atomic.Int32) Handler[Ping] {
	return func(ctx context.Context, sender any, e Ping) error {
		calls.Add(1)
		return nil
	}
}

// fail returns a handler that returns err immediately.
func fail(err error) Handler[Ping] {
	return func(ctx context.Context, sender any, e Ping) error {
		return err
	}
}

// failAfter returns a handler that returns err after d.
func failAfter(d time.Duration, err error) Handler[Ping] {
	return func(ctx context.Context, sender any, e Ping) error {
		select {
		case <-time.After(d):
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// waitForCancel returns a handler that marks started and blocks until ctx is done.
func waitForCancel(started *sync.WaitGroup) Handler[Ping] {
	return func(ctx context.Context, sender any, e Ping) error {
		started.Done()
		<-ctx.Done()
		return ctx.Err()
	}
}

// testLogHandler captures log records as JSON lines.
type testLogHandler struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (h *testLogHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *testLogHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	return json.NewEncoder(&h.buf).Encode(data)
}

func (h *testLogHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *testLogHandler) WithGroup(_ string) slog.Handler      { return h }

func (h *testLogHandler) records() []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []map[string]any
	for _, line := range bytes.Split(h.buf.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(line, &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

func (h *testLogHandler) withMessage(msg string) []map[string]any {
	var out []map[string]any
	for _, r := range h.records() {
		if r["msg"] == msg {
			out = append(out, r)
		}
	}
	return out
}

// recordingMetrics is a MetricsRecorder that keeps what it was given.
type recordingMetrics struct {
	mu         sync.Mutex
	dispatches []error
	handlers   map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{handlers: make(map[string]int)}
}

func (m *recordingMetrics) RecordDispatch(_ context.Context, _ int, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatches = append(m.dispatches, err)
}

func (m *recordingMetrics) RecordHandler(_ context.Context, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[outcome]++
}

// recordingSpans is a SpanManager that counts spans and errors.
type recordingSpans struct {
	mu             sync.Mutex
	dispatchSpans  int
	handlerIndexes []int
	errored        int
	events         []string
}

func (s *recordingSpans) StartDispatchSpan(ctx context.Context, _ string, _ int) (context.Context, trace.Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatchSpans++
	return ctx, noop.Span{}
}

func (s *recordingSpans) StartHandlerSpan(ctx context.Context, index int) (context.Context, trace.Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlerIndexes = append(s.handlerIndexes, index)
	return ctx, noop.Span{}
}

func (s *recordingSpans) EndSpanWithError(_ trace.Span, err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errored++
}

func (s *recordingSpans) AddSpanEvent(_ context.Context, name string, _ ...attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, name)
}
