package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanOption configures a span
type SpanOption func(trace.Span)

// WithAttributes adds attributes to a span
func WithAttributes(attrs ...attribute.KeyValue) SpanOption {
	return func(span trace.Span) {
		span.SetAttributes(attrs...)
	}
}

// WithError marks a span as errored
func WithError(err error) SpanOption {
	return func(span trace.Span) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// StartSpan starts a new span with the given name and options
// Returns the span and a context containing the span
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, opts ...SpanOption) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)

	for _, opt := range opts {
		opt(span)
	}

	return ctx, span
}

// EndSpan ends a span, optionally recording an error
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// TraceID extracts the trace ID from context as a string
func TraceID(ctx context.Context) string {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// SpanID extracts the span ID from context as a string
func SpanID(ctx context.Context) string {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if spanCtx.IsValid() {
		return spanCtx.SpanID().String()
	}
	return ""
}

// SetSpanAttributes adds attributes to the current span in the context
func SetSpanAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}

// SetSpanError records an error on the current span in the context
func SetSpanError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddSpanEvent adds an event to the current span in the context
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// Common attribute keys for the modification engine
var (
	// Target attributes
	AttrTargetName = attribute.Key("target.name")
	AttrFieldName  = attribute.Key("target.field")

	// Modification attributes
	AttrModificationID     = attribute.Key("modification.id")
	AttrModificationStatus = attribute.Key("modification.status")
	AttrModificationOp     = attribute.Key("modification.op")

	// Sweep attributes
	AttrSweepAttempts = attribute.Key("sweep.attempts")
	AttrQueueDepth    = attribute.Key("queue.depth")

	// Error attributes
	AttrErrorType = attribute.Key("error.type")
	AttrErrorCode = attribute.Key("error.code")
)

// Helper functions for common attributes

// TargetAttrs returns common target attributes
func TargetAttrs(name, field string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrTargetName.String(name),
		AttrFieldName.String(field),
	}
}

// ModificationAttrs returns common modification attributes
func ModificationAttrs(id, status string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		AttrModificationID.String(id),
	}
	if status != "" {
		attrs = append(attrs, AttrModificationStatus.String(status))
	}
	return attrs
}

// SweepAttrs returns common sweep attributes
func SweepAttrs(attempts, depth int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrSweepAttempts.Int(attempts),
		AttrQueueDepth.Int(depth),
	}
}

// ErrorAttrs returns common error attributes
func ErrorAttrs(err error, code string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		AttrErrorType.String(fmt.Sprintf("%T", err)),
	}
	if code != "" {
		attrs = append(attrs, AttrErrorCode.String(code))
	}
	return attrs
}
