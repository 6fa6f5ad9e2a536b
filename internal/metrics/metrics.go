package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the console.
type Metrics struct {
	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	// Event ingestion metrics
	EventsIngested *prometheus.CounterVec
	IngestFailures *prometheus.CounterVec

	// Dashboard metrics
	AggregationLatency *prometheus.HistogramVec
	DashboardCacheHits *prometheus.CounterVec

	// Export metrics
	CSVExports *prometheus.CounterVec

	// Decisioning metrics
	Decisions *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		HTTPLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"path"},
		),
		EventsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_ingested_total",
				Help:      "Total number of events accepted by the ingest endpoint",
			},
			[]string{"event_type"},
		),
		IngestFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingest_failures_total",
				Help:      "Total number of rejected or failed event ingests",
			},
			[]string{"reason"},
		),
		AggregationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "aggregation_duration_seconds",
				Help:      "Dashboard aggregation pass latency in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"kind"},
		),
		DashboardCacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dashboard_cache_total",
				Help:      "Dashboard payload cache lookups by outcome",
			},
			[]string{"outcome"},
		),
		CSVExports: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "csv_exports_total",
				Help:      "Total number of CSV exports served",
			},
			[]string{"subject"},
		),
		Decisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "agent_decisions_total",
				Help:      "Total number of agent decisions recorded",
			},
			[]string{"agent_id", "outcome"},
		),
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Total number of rate limited requests",
			},
			[]string{"tier"},
		),
	}

	DefaultMetrics = m
	return m
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records one served HTTP request.
func (m *Metrics) RecordRequest(path, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(path).Observe(elapsed.Seconds())
}

// RecordIngest records one accepted event.
func (m *Metrics) RecordIngest(eventType string) {
	if m == nil {
		return
	}
	m.EventsIngested.WithLabelValues(eventType).Inc()
}

// RecordIngestFailure records one rejected event.
func (m *Metrics) RecordIngestFailure(reason string) {
	if m == nil {
		return
	}
	m.IngestFailures.WithLabelValues(reason).Inc()
}

// RecordAggregation records one aggregation pass.
func (m *Metrics) RecordAggregation(kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AggregationLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// RecordCacheOutcome records a dashboard cache hit or miss.
func (m *Metrics) RecordCacheOutcome(outcome string) {
	if m == nil {
		return
	}
	m.DashboardCacheHits.WithLabelValues(outcome).Inc()
}

// RecordExport records one CSV export.
func (m *Metrics) RecordExport(subject string) {
	if m == nil {
		return
	}
	m.CSVExports.WithLabelValues(subject).Inc()
}

// RecordDecision records one agent decision.
func (m *Metrics) RecordDecision(agentID, outcome string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(agentID, outcome).Inc()
}

// RecordRateLimitHit records one rejected request per tier.
func (m *Metrics) RecordRateLimitHit(tier string) {
	if m == nil {
		return
	}
	m.RateLimitHits.WithLabelValues(tier).Inc()
}
