package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the resolution engine.
type Metrics struct {
	LookupsTotal   *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec
	Resolutions    *prometheus.CounterVec
}

// New creates and registers all resolution metrics.
func New() *Metrics {
	return &Metrics{
		LookupsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "resultgate_source_lookups_total",
			Help: "Total source lookups by source and outcome",
		}, []string{"source", "outcome"}),
		LookupDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "resultgate_source_lookup_duration_seconds",
			Help:    "Latency of individual source lookups",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "resultgate_resolutions_total",
			Help: "Total resolve calls by final outcome",
		}, []string{"outcome"}),
	}
}

// ObserveLookup records one source attempt.
func (m *Metrics) ObserveLookup(sourceID, outcome string, latency time.Duration) {
	m.LookupsTotal.WithLabelValues(sourceID, outcome).Inc()
	m.LookupDuration.WithLabelValues(sourceID).Observe(latency.Seconds())
}

// ObserveResolution records the final verdict of one resolve call.
func (m *Metrics) ObserveResolution(outcome string) {
	m.Resolutions.WithLabelValues(outcome).Inc()
}
