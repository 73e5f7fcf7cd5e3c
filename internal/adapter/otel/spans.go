package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "subete"

// StartIngestSpan starts the root span of an ingestion run.
func StartIngestSpan(ctx context.Context, runID, archive, docs string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "ingest",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("source.archive", archive),
			attribute.String("source.docs", docs),
		),
	)
}

// StartEnrichSpan starts the span covering the provenance pass.
func StartEnrichSpan(ctx context.Context, entities int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "enrich",
		trace.WithAttributes(attribute.Int("enrich.entities", entities)),
	)
}

// StartBlameSpan starts a span for blaming one file.
func StartBlameSpan(ctx context.Context, root, relPath string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "blame",
		trace.WithAttributes(
			attribute.String("vcs.root", root),
			attribute.String("vcs.path", relPath),
		),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
