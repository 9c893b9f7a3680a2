package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "trailview"

// StartIngestSpan starts a span for one event append.
func StartIngestSpan(ctx context.Context, sessionID, kind string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "ingest",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("event.kind", kind),
		),
	)
}

// StartBuildSpan starts a span for one timeline derivation.
func StartBuildSpan(ctx context.Context, sessionID string, eventCount int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "timeline.build",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("event.count", eventCount),
		),
	)
}
