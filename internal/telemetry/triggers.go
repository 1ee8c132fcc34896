package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartTriggerSpan opens a consumer span for one change event
func StartTriggerSpan(ctx context.Context, topic, eventID, docID string) (context.Context, trace.Span) {
	return otel.Tracer("triggers").Start(ctx, "trigger "+topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("event.topic", topic),
			attribute.String("event.id", eventID),
			attribute.String("document.id", docID),
		),
	)
}

// EndSpan records err, if any, and ends the span
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
