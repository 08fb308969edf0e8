// Package metrics provides Prometheus metrics for archive runs. Batch
// invocations export them through the node exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ytget/yt-archiver/internal/model"
)

const (
	// MetricsNamespace is the namespace for all archiver metrics.
	MetricsNamespace = "yt_archiver"

	// Outcome label values
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all Prometheus metrics of one invocation.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	ItemsArchived     prometheus.Counter
	ItemsSkipped      *prometheus.CounterVec
	BytesArchived     prometheus.Counter
	LastRunTimestamp  prometheus.Gauge
	LastRunSuccessful prometheus.Gauge
}

// New creates metrics registered on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "runs_total",
			Help:      "Pipeline invocations by outcome and failure reason",
		}, []string{"outcome", "reason"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a pipeline invocation",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		ItemsArchived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "items_archived_total",
			Help:      "Items placed into the archive",
		}),
		ItemsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "items_skipped_total",
			Help:      "Finalized items that produced no archive entry",
		}, []string{"cause"}),
		BytesArchived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "bytes_archived_total",
			Help:      "Bytes placed into the archive",
		}),
		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last invocation finished",
		}),
		LastRunSuccessful: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "last_run_success",
			Help:      "1 if the last invocation succeeded",
		}),
	}
}

// ObserveItem records one archived item
func (m *Metrics) ObserveItem(size int64) {
	m.ItemsArchived.Inc()
	if size > 0 {
		m.BytesArchived.Add(float64(size))
	}
}

// ObserveSkip records an item that was finalized but not archived
func (m *Metrics) ObserveSkip(cause string) {
	m.ItemsSkipped.WithLabelValues(cause).Inc()
}

// ObserveRun records the outcome of an invocation; err nil means success.
func (m *Metrics) ObserveRun(started time.Time, err error) {
	finished := time.Now()
	m.RunDuration.Observe(finished.Sub(started).Seconds())
	m.LastRunTimestamp.Set(float64(finished.Unix()))

	if err == nil {
		m.RunsTotal.WithLabelValues(OutcomeSuccess, "").Inc()
		m.LastRunSuccessful.Set(1)
		return
	}
	m.RunsTotal.WithLabelValues(OutcomeFailure, model.ReasonOf(err).String()).Inc()
	m.LastRunSuccessful.Set(0)
}

// WriteTextfile writes all metrics to path in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
