package otel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Strob0t/subete/internal/config"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumValue(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected int64 sum, got %T", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetricsRecordIngest(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	ctx := context.Background()

	m.RecordIngest(ctx, 3, 5, 2, 1500*time.Millisecond, nil)
	m.RecordIngest(ctx, 0, 0, 0, time.Second, errors.New("clone failed"))
	m.RecordBlame(ctx, true)
	m.RecordBlame(ctx, false)
	m.RecordBlame(ctx, false)

	got := collect(t, reader)
	if v := sumValue(t, got["subete.ingest.runs"]); v != 1 {
		t.Errorf("runs = %d, want 1", v)
	}
	if v := sumValue(t, got["subete.ingest.failures"]); v != 1 {
		t.Errorf("failures = %d, want 1", v)
	}
	if v := sumValue(t, got["subete.ingest.unresolved_files"]); v != 2 {
		t.Errorf("unresolved = %d, want 2", v)
	}
	if v := sumValue(t, got["subete.enrich.blames"]); v != 3 {
		t.Errorf("blames = %d, want 3", v)
	}
	gauge, ok := got["subete.repo.programs"].(metricdata.Gauge[int64])
	if !ok || len(gauge.DataPoints) != 1 || gauge.DataPoints[0].Value != 5 {
		t.Errorf("programs gauge = %+v, want 5", got["subete.repo.programs"])
	}
	hist, ok := got["subete.ingest.duration_seconds"].(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 2 {
		t.Errorf("duration histogram = %+v, want 2 samples", got["subete.ingest.duration_seconds"])
	}
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	m.RecordIngest(context.Background(), 1, 1, 0, time.Second, nil)
	m.RecordBlame(context.Background(), true)
}

// installRecorder replaces the global tracer provider for the test.
func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestSpans(t *testing.T) {
	rec := installRecorder(t)

	ctx, ingest := StartIngestSpan(context.Background(), "run-1", "archive", "docs")
	ctx, enrich := StartEnrichSpan(ctx, 4)
	_, blame := StartBlameSpan(ctx, "/repo", "projects/mst/description.md")
	EndSpan(blame, errors.New("git blame: exit status 128"))
	EndSpan(enrich, nil)
	EndSpan(ingest, nil)

	spans := rec.Ended()
	if len(spans) != 3 {
		t.Fatalf("ended spans = %d, want 3", len(spans))
	}
	if spans[0].Name() != "blame" || spans[0].Status().Code != codes.Error {
		t.Errorf("blame span = %s %v, want error status", spans[0].Name(), spans[0].Status())
	}
	if spans[0].Parent().SpanID() != spans[1].SpanContext().SpanID() {
		t.Error("blame span should be a child of enrich")
	}
	if spans[2].Name() != "ingest" || spans[2].Status().Code == codes.Error {
		t.Errorf("ingest span = %s %v", spans[2].Name(), spans[2].Status())
	}
}

func TestHTTPMiddleware(t *testing.T) {
	rec := installRecorder(t)

	h := HTTPMiddleware("subete")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/summary", http.NoBody))

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	spans := rec.Ended()
	if len(spans) != 1 || spans[0].Name() != "GET /api/v1/summary" {
		t.Fatalf("spans = %v", spans)
	}
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.OTEL{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
