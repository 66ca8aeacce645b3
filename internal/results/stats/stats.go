// Package stats aggregates per-source query statistics. The aggregator is the
// only shared mutable state in the system: every counter mutation goes
// through RecordAttempt under one mutex so concurrent in-flight queries never
// lose increments.
package stats

import (
	"sort"
	"sync"
	"time"

	"resultgate/internal/results/metrics"
	"resultgate/internal/results/models"
	"resultgate/internal/results/source"
)

// Aggregator tracks per-source counters since process start. Counters reset
// only on restart; there is no persistence.
type Aggregator struct {
	mu      sync.Mutex
	stats   map[string]*models.SourceStat
	metrics *metrics.Metrics
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithMetrics mirrors every recorded attempt into Prometheus.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// New creates an empty aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{stats: make(map[string]*models.SourceStat)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RecordAttempt registers one source query: queriesTotal always increments,
// hitsTotal on a hit, errorsTotal on a failure.
func (a *Aggregator) RecordAttempt(sourceID string, outcome source.Outcome, latency time.Duration) {
	a.mu.Lock()
	stat, exists := a.stats[sourceID]
	if !exists {
		stat = &models.SourceStat{SourceID: sourceID}
		a.stats[sourceID] = stat
	}
	stat.QueriesTotal++
	switch outcome.Status {
	case source.StatusFound:
		stat.HitsTotal++
	case source.StatusError:
		stat.ErrorsTotal++
	}
	stat.LastLatencyMs = latency.Milliseconds()
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.ObserveLookup(sourceID, outcomeLabel(outcome), latency)
	}
}

// Snapshot returns a copy of the current counters sorted by source ID, so the
// stats endpoint serves a stable order.
func (a *Aggregator) Snapshot() []models.SourceStat {
	a.mu.Lock()
	defer a.mu.Unlock()

	snapshot := make([]models.SourceStat, 0, len(a.stats))
	for _, stat := range a.stats {
		snapshot = append(snapshot, *stat)
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].SourceID < snapshot[j].SourceID
	})
	return snapshot
}

func outcomeLabel(outcome source.Outcome) string {
	switch outcome.Status {
	case source.StatusFound:
		return "found"
	case source.StatusError:
		return "error"
	default:
		return "not_found"
	}
}
