package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion and alerting paths.
type Metrics struct {
	ReadingsIngested   prometheus.Counter
	ReadingsBySeverity *prometheus.CounterVec // label: severity
	IngestFailures     prometheus.Counter
	IngestDuration     prometheus.Histogram

	// Alert dispatch metrics.
	AlertsDispatched *prometheus.CounterVec // label: outcome={sent,failed,suppressed,dropped}
	AlertQueueDepth  prometheus.Gauge

	// Kafka ingestion metrics.
	KafkaMessagesConsumed prometheus.Counter
	KafkaConsumeErrors    prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // label: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // label: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.ReadingsIngested,
		m.ReadingsBySeverity,
		m.IngestFailures,
		m.IngestDuration,
		m.AlertsDispatched,
		m.AlertQueueDepth,
		m.KafkaMessagesConsumed,
		m.KafkaConsumeErrors,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReadingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "water_quality",
			Name:      "readings_ingested_total",
			Help:      "Total readings accepted and persisted.",
		}),
		ReadingsBySeverity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "water_quality",
			Name:      "readings_by_severity_total",
			Help:      "Classified readings by resulting severity.",
		}, []string{"severity"}),
		IngestFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "water_quality",
			Name:      "ingest_failures_total",
			Help:      "Ingestions that failed at the persistence step.",
		}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "water_quality",
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a complete parse-classify-persist cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		AlertsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "water_quality",
			Name:      "alerts_dispatched_total",
			Help:      "Alert dispatch attempts by outcome.",
		}, []string{"outcome"}),
		AlertQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "water_quality",
			Name:      "alert_queue_depth",
			Help:      "Alerts waiting in the dispatch queue.",
		}),
		KafkaMessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "water_quality",
			Name:      "kafka_messages_consumed_total",
			Help:      "Raw reading messages read from the source topic.",
		}),
		KafkaConsumeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "water_quality",
			Name:      "kafka_consume_errors_total",
			Help:      "Source topic messages that could not be processed.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "water_quality",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "water_quality",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "water_quality",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "water_quality",
			Name:      "geocode_enabled",
			Help:      "1 when place-name geocoding is enabled, 0 otherwise.",
		}),
	}
}
