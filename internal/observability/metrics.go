package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the API.
type Metrics struct {
	RecordsIngested     *prometheus.CounterVec // labels: kind
	ValidationRejected  *prometheus.CounterVec // labels: kind
	StoreErrors         *prometheus.CounterVec // labels: op, kind
	SnapshotRequests    prometheus.Counter
	SnapshotDuration    prometheus.Histogram
	EraseBatches        prometheus.Counter
	RecordsDeleted      *prometheus.CounterVec // labels: kind
	IngestPublishErrors prometheus.Counter
	PublisherEnabled    prometheus.Gauge
	StoreUp             prometheus.Gauge
}

// NewMetrics creates and registers all API metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RecordsIngested,
		m.ValidationRejected,
		m.StoreErrors,
		m.SnapshotRequests,
		m.SnapshotDuration,
		m.EraseBatches,
		m.RecordsDeleted,
		m.IngestPublishErrors,
		m.PublisherEnabled,
		m.StoreUp,
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
		RecordsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazemap",
			Name:      "records_ingested_total",
			Help:      "Records accepted and written to the store, by kind.",
		}, []string{"kind"}),
		ValidationRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazemap",
			Name:      "validation_rejected_total",
			Help:      "Ingest payloads rejected by validation, by kind.",
		}, []string{"kind"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazemap",
			Name:      "store_errors_total",
			Help:      "Document store failures by operation and kind.",
		}, []string{"op", "kind"}),
		SnapshotRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazemap",
			Name:      "snapshot_requests_total",
			Help:      "Combined map-snapshot read requests.",
		}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hazemap",
			Name:      "snapshot_duration_seconds",
			Help:      "Duration of the three-way filtered snapshot read.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		EraseBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazemap",
			Name:      "erase_batches_total",
			Help:      "Batch-delete rounds executed by the bulk eraser.",
		}),
		RecordsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazemap",
			Name:      "records_deleted_total",
			Help:      "Records removed by the bulk eraser, by kind.",
		}, []string{"kind"}),
		IngestPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazemap",
			Name:      "ingest_publish_errors_total",
			Help:      "Failed ingest-event publishes (non-fatal to the request).",
		}),
		PublisherEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hazemap",
			Name:      "ingest_publisher_enabled",
			Help:      "1 when ingest-event publishing is enabled, 0 otherwise.",
		}),
		StoreUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hazemap",
			Name:      "store_up",
			Help:      "1 when the document store handle was initialized at bootstrap.",
		}),
	}
}
