// Package observe provides application-wide observability primitives for
// gAIm-Systems: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that long collection runs
// can still be scraped via the standard /metrics endpoint. A package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for convenience;
// tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all gAIm-Systems metrics.
const meterName = "github.com/seonjhang/gAIm-Systems"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// ClassificationDuration tracks the latency of one window classification
	// call, including response parsing.
	ClassificationDuration metric.Float64Histogram

	// InterviewDuration tracks end-to-end processing latency for one
	// interview transcript (classification + consolidation + output).
	InterviewDuration metric.Float64Histogram

	// SearchDuration tracks archive semantic-search latency.
	SearchDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// WindowsClassified counts classification windows by outcome. Use with
	// attribute:
	//   attribute.String("outcome", ...)  "model", "heuristic", or "malformed"
	WindowsClassified metric.Int64Counter

	// SegmentsAttributed counts segments attributed to the target speaker.
	// Use with attribute:
	//   attribute.String("source", ...)  "model", "heuristic", or "rescue"
	SegmentsAttributed metric.Int64Counter

	// InterviewsCollected counts processed interviews by final status. Use
	// with attribute:
	//   attribute.String("status", ...)  "ok", "no_transcript", or "failed"
	InterviewsCollected metric.Int64Counter

	// DocumentsExported counts speech documents written by the exporter.
	DocumentsExported metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveWorkers tracks the number of in-flight transcript workers in the
	// collection pipeline.
	ActiveWorkers metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Window
// classification calls usually land between 0.5s and 10s; full interviews can
// take minutes.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ClassificationDuration, err = m.Float64Histogram("gaimsys.classification.duration",
		metric.WithDescription("Latency of one window classification call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.InterviewDuration, err = m.Float64Histogram("gaimsys.collect.interview.duration",
		metric.WithDescription("End-to-end processing latency per interview transcript."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SearchDuration, err = m.Float64Histogram("gaimsys.archive.search.duration",
		metric.WithDescription("Latency of archive semantic search."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("gaimsys.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.WindowsClassified, err = m.Int64Counter("gaimsys.classifier.windows",
		metric.WithDescription("Total classification windows by outcome."),
	); err != nil {
		return nil, err
	}
	if met.SegmentsAttributed, err = m.Int64Counter("gaimsys.attribution.segments",
		metric.WithDescription("Total segments attributed to the target speaker by source."),
	); err != nil {
		return nil, err
	}
	if met.InterviewsCollected, err = m.Int64Counter("gaimsys.collect.interviews",
		metric.WithDescription("Total interviews processed by final status."),
	); err != nil {
		return nil, err
	}
	if met.DocumentsExported, err = m.Int64Counter("gaimsys.export.documents",
		metric.WithDescription("Total speech documents written by the exporter."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("gaimsys.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveWorkers, err = m.Int64UpDownCounter("gaimsys.collect.active_workers",
		metric.WithDescription("Number of in-flight transcript workers."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("gaimsys.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordWindowOutcome records one classified window with its outcome:
// "model" (provider indices used), "heuristic" (degraded to local rules), or
// "malformed" (unparseable response, empty index set).
func (m *Metrics) RecordWindowOutcome(ctx context.Context, outcome string) {
	m.WindowsClassified.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordAttributedSegments records n segments attributed by the given source:
// "model", "heuristic", or "rescue".
func (m *Metrics) RecordAttributedSegments(ctx context.Context, source string, n int) {
	if n <= 0 {
		return
	}
	m.SegmentsAttributed.Add(ctx, int64(n),
		metric.WithAttributes(attribute.String("source", source)),
	)
}

// RecordInterview records one processed interview with its final status:
// "ok", "no_transcript", or "failed".
func (m *Metrics) RecordInterview(ctx context.Context, status string) {
	m.InterviewsCollected.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}
