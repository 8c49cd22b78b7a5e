package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("multicast")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartDispatchSpan starts a span covering fan-out and join.
	StartDispatchSpan(ctx context.Context, dispatchID string, handlers int) (context.Context, trace.Span)

	// StartHandlerSpan starts a child span for the handler at index.
	StartHandlerSpan(ctx context.Context, index int) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartDispatchSpan(ctx context.Context, dispatchID string, handlers int) (context.Context, trace.Span) {
	return StartDispatchSpan(ctx, dispatchID, handlers)
}

func (m *otelSpanManager) StartHandlerSpan(ctx context.Context, index int) (context.Context, trace.Span) {
	return StartHandlerSpan(ctx, index)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// StartDispatchSpan starts a span for a whole dispatch.
// Uses the global OTel tracer.
func StartDispatchSpan(ctx context.Context, dispatchID string, handlers int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "multicast.dispatch",
		trace.WithAttributes(
			attribute.String("dispatch.id", dispatchID),
			attribute.Int("dispatch.handlers", handlers),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartHandlerSpan starts a span for one handler invocation.
// Uses the global OTel tracer.
func StartHandlerSpan(ctx context.Context, index int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "multicast.handler",
		trace.WithAttributes(
			attribute.Int("handler.index", index),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
