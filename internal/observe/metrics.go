// Package observe provides application-wide observability primitives for
// Parley: OpenTelemetry metrics, structured logging helpers, and HTTP
// middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
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

// meterName is the instrumentation scope name used for all Parley metrics.
const meterName = "github.com/parleyhq/parley"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// STTDuration tracks batch transcription request latency.
	STTDuration metric.Float64Histogram

	// AgentDuration tracks one analysis agent run end to end (LLM call,
	// parse, row replacement). Use with attribute.String("agent", ...).
	AgentDuration metric.Float64Histogram

	// --- Counters ---

	// AgentRuns counts agent runs. Use with attributes:
	//   attribute.String("agent", ...), attribute.String("status", ...)
	AgentRuns metric.Int64Counter

	// Segments counts persisted transcript segments.
	Segments metric.Int64Counter

	// ProviderErrors counts external provider errors. Use with
	//   attribute.String("kind", "stt"|"llm")
	ProviderErrors metric.Int64Counter

	// MediaEvents counts inbound stream events by event kind.
	MediaEvents metric.Int64Counter

	// --- Gauges ---

	// ActiveStreams tracks the number of live media-stream sessions.
	ActiveStreams metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// batch transcription and LLM analysis latencies.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.STTDuration, err = m.Float64Histogram("parley.stt.duration",
		metric.WithDescription("Latency of batch speech-to-text requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AgentDuration, err = m.Float64Histogram("parley.agent.duration",
		metric.WithDescription("Latency of one analysis agent run."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.AgentRuns, err = m.Int64Counter("parley.agent.runs",
		metric.WithDescription("Total analysis agent runs by agent and status."),
	); err != nil {
		return nil, err
	}
	if met.Segments, err = m.Int64Counter("parley.segments",
		metric.WithDescription("Total persisted transcript segments."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("parley.provider.errors",
		metric.WithDescription("Total external provider errors by kind."),
	); err != nil {
		return nil, err
	}
	if met.MediaEvents, err = m.Int64Counter("parley.stream.events",
		metric.WithDescription("Total inbound media-stream events by kind."),
	); err != nil {
		return nil, err
	}

	if met.ActiveStreams, err = m.Int64UpDownCounter("parley.active_streams",
		metric.WithDescription("Number of live media-stream sessions."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("parley.http.request.duration",
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

// ObserveSTT records one batch transcription attempt: its latency, and an
// error count increment when err is non-nil.
func (m *Metrics) ObserveSTT(ctx context.Context, d time.Duration, err error) {
	m.STTDuration.Record(ctx, d.Seconds())
	if err != nil {
		m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "stt")))
	}
}

// ObserveAgentRun records one analysis agent run with its latency and outcome.
func (m *Metrics) ObserveAgentRun(ctx context.Context, agent string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "llm")))
	}
	m.AgentDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("agent", agent)))
	m.AgentRuns.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("agent", agent),
			attribute.String("status", status),
		),
	)
}

// RecordStreamEvent increments the inbound event counter for one event kind.
func (m *Metrics) RecordStreamEvent(ctx context.Context, kind string) {
	m.MediaEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("event", kind)))
}
