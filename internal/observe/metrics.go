// Package observe provides application-wide observability primitives for
// VoiceBridge: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all VoiceBridge metrics.
const meterName = "github.com/deshkavote/voicebridge"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// UtteranceDuration tracks end-to-end utterance processing latency,
	// from receipt over the WebSocket to the committed dialogue result.
	UtteranceDuration metric.Float64Histogram

	// BackendDuration tracks voting-API call latency. Use with attribute:
	//   attribute.String("operation", ...)
	BackendDuration metric.Float64Histogram

	// --- Distributions ---

	// IntentConfidence tracks the confidence of winning intent matches,
	// accepted or not.
	IntentConfidence metric.Float64Histogram

	// --- Counters ---

	// IntentMatches counts classified utterances. Use with attributes:
	//   attribute.String("intent", ...), attribute.Bool("accepted", ...)
	IntentMatches metric.Int64Counter

	// EntityResolutions counts entity-resolution attempts. Use with attributes:
	//   attribute.String("kind", ...), attribute.Bool("resolved", ...)
	EntityResolutions metric.Int64Counter

	// VotesDispatched counts votes forwarded to the voting API. Use with
	// attribute: attribute.String("status", ...)
	VotesDispatched metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live voice sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for utterance-handling latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// confidenceBuckets covers the [0, 1] confidence range.
var confidenceBuckets = []float64{
	0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.UtteranceDuration, err = m.Float64Histogram("voicebridge.utterance.duration",
		metric.WithDescription("End-to-end utterance processing latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.BackendDuration, err = m.Float64Histogram("voicebridge.backend.duration",
		metric.WithDescription("Voting-API call latency by operation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.IntentConfidence, err = m.Float64Histogram("voicebridge.intent.confidence",
		metric.WithDescription("Confidence of winning intent matches."),
		metric.WithExplicitBucketBoundaries(confidenceBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.IntentMatches, err = m.Int64Counter("voicebridge.intent.matches",
		metric.WithDescription("Total classified utterances by intent and acceptance."),
	); err != nil {
		return nil, err
	}
	if met.EntityResolutions, err = m.Int64Counter("voicebridge.entity.resolutions",
		metric.WithDescription("Total entity-resolution attempts by kind and outcome."),
	); err != nil {
		return nil, err
	}
	if met.VotesDispatched, err = m.Int64Counter("voicebridge.votes.dispatched",
		metric.WithDescription("Total votes forwarded to the voting API by status."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("voicebridge.active_sessions",
		metric.WithDescription("Number of live voice sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("voicebridge.http.request.duration",
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

// RecordUtterance records one processed utterance: its end-to-end latency
// tagged with the dialogue outcome.
func (m *Metrics) RecordUtterance(ctx context.Context, action string, d time.Duration) {
	m.UtteranceDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("action", action)),
	)
}

// RecordBackendCall records one voting-API call latency sample. operation is
// "fetch_candidates" or "cast_vote".
func (m *Metrics) RecordBackendCall(ctx context.Context, operation string, d time.Duration) {
	m.BackendDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("operation", operation)),
	)
}

// RecordIntentMatch records one intent classification result, including its
// confidence distribution sample.
func (m *Metrics) RecordIntentMatch(ctx context.Context, intent string, confidence float64, accepted bool) {
	m.IntentMatches.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("intent", intent),
			attribute.Bool("accepted", accepted),
		),
	)
	m.IntentConfidence.Record(ctx, confidence)
}

// RecordEntityResolution records one entity-resolution attempt. kind is
// "election" or "candidate".
func (m *Metrics) RecordEntityResolution(ctx context.Context, kind string, resolved bool) {
	m.EntityResolutions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.Bool("resolved", resolved),
		),
	)
}

// RecordVoteDispatched records one vote forwarded to the voting API. status
// is "accepted" or "rejected".
func (m *Metrics) RecordVoteDispatched(ctx context.Context, status string) {
	m.VotesDispatched.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}
