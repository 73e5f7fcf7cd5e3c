package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "subete"

// Metrics holds the ingestion metric instruments.
type Metrics struct {
	IngestRuns      metric.Int64Counter
	IngestFailures  metric.Int64Counter
	IngestDuration  metric.Float64Histogram
	Programs        metric.Int64Gauge
	Languages       metric.Int64Gauge
	UnresolvedFiles metric.Int64Counter
	Blames          metric.Int64Counter
}

// NewMetrics creates all metric instruments on mp, or on the global
// provider when mp is nil.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.IngestRuns, err = meter.Int64Counter("subete.ingest.runs",
		metric.WithDescription("Number of completed ingestion runs"))
	if err != nil {
		return nil, err
	}

	m.IngestFailures, err = meter.Int64Counter("subete.ingest.failures",
		metric.WithDescription("Number of failed ingestion runs"))
	if err != nil {
		return nil, err
	}

	m.IngestDuration, err = meter.Float64Histogram("subete.ingest.duration_seconds",
		metric.WithDescription("Ingestion duration in seconds"), metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.Programs, err = meter.Int64Gauge("subete.repo.programs",
		metric.WithDescription("Sample programs in the last ingested repo"))
	if err != nil {
		return nil, err
	}

	m.Languages, err = meter.Int64Gauge("subete.repo.languages",
		metric.WithDescription("Languages in the last ingested repo"))
	if err != nil {
		return nil, err
	}

	m.UnresolvedFiles, err = meter.Int64Counter("subete.ingest.unresolved_files",
		metric.WithDescription("Source files that matched no approved project"))
	if err != nil {
		return nil, err
	}

	m.Blames, err = meter.Int64Counter("subete.enrich.blames",
		metric.WithDescription("Blame lookups by cache outcome"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordIngest records the outcome of one ingestion run. A nil receiver
// records nothing.
func (m *Metrics) RecordIngest(ctx context.Context, languages, programs, unresolved int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.IngestDuration.Record(ctx, elapsed.Seconds())
	if err != nil {
		m.IngestFailures.Add(ctx, 1)
		return
	}
	m.IngestRuns.Add(ctx, 1)
	m.Languages.Record(ctx, int64(languages))
	m.Programs.Record(ctx, int64(programs))
	if unresolved > 0 {
		m.UnresolvedFiles.Add(ctx, int64(unresolved))
	}
}

// RecordBlame counts one blame lookup, tagged by whether the cache served it.
func (m *Metrics) RecordBlame(ctx context.Context, cached bool) {
	if m == nil {
		return
	}
	m.Blames.Add(ctx, 1, metric.WithAttributes(attribute.Bool("cache.hit", cached)))
}
