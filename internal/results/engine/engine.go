// Package engine implements the ordered-fallback resolution of roll-number
// queries. Sources are consulted strictly in ascending configured priority
// (web fallback last) and the first hit wins, so a fixed configuration and
// fixed store contents always yield the same result.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resultgate/internal/results/metrics"
	"resultgate/internal/results/models"
	"resultgate/internal/results/registry"
	"resultgate/internal/results/source"
	"resultgate/internal/results/stats"
	dErrors "resultgate/pkg/domain-errors"
	"resultgate/pkg/platform/circuit"
	"resultgate/pkg/requestcontext"
)

// RecordCache persists resolved records for future lookups. The redis cache
// source implements it; saving is best effort.
type RecordCache interface {
	Save(ctx context.Context, record *models.ResultRecord) error
}

// Engine resolves roll-number queries across the registry's fallback chain.
// It only reads registry data and reports outcomes to the stats aggregator;
// it never mutates counters directly.
type Engine struct {
	registry       *registry.Registry
	stats          *stats.Aggregator
	metrics        *metrics.Metrics
	cache          RecordCache
	logger         *slog.Logger
	globalDeadline time.Duration
	tracer         trace.Tracer

	breakersEnabled bool
	breakerOpts     []circuit.Option
	breakers        map[string]*circuit.Breaker
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics records final resolution outcomes in Prometheus.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithRecordCache write-through caches web-fallback hits.
func WithRecordCache(cache RecordCache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithGlobalDeadline bounds one whole fallback walk. Zero (the default)
// means the engine always walks the full chain regardless of how slow
// individual sources are.
func WithGlobalDeadline(deadline time.Duration) Option {
	return func(e *Engine) {
		e.globalDeadline = deadline
	}
}

// WithCircuitBreakers guards every source with a consecutive-failure
// breaker. While a source's circuit is open its lookups are skipped and
// reported as unreachable errors; after the cooldown a probe request is let
// through to test recovery. Without this option every source is always
// queried.
func WithCircuitBreakers(opts ...circuit.Option) Option {
	return func(e *Engine) {
		e.breakersEnabled = true
		e.breakerOpts = opts
	}
}

// New constructs a resolution engine.
func New(reg *registry.Registry, agg *stats.Aggregator, opts ...Option) (*Engine, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if agg == nil {
		return nil, fmt.Errorf("stats aggregator is required")
	}

	e := &Engine{
		registry: reg,
		stats:    agg,
		logger:   slog.Default(),
		tracer:   otel.Tracer("resultgate/engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.breakersEnabled {
		e.breakers = make(map[string]*circuit.Breaker)
		for _, entry := range reg.OrderedSources() {
			id := entry.Descriptor.ID
			e.breakers[id] = circuit.New(id, e.breakerOpts...)
		}
	}

	return e, nil
}

// Resolve walks the fallback chain for the query. It returns the first record
// found (CGPA-enriched when possible) or a not-found domain error once every
// source has missed. Source failures never surface to the caller; only an
// invalid query does.
func (e *Engine) Resolve(ctx context.Context, q models.RollQuery) (*models.ResultRecord, error) {
	q = q.Normalize()
	if q.RollNumber == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "roll number must contain at least one digit")
	}

	ctx, span := e.tracer.Start(ctx, "engine.Resolve",
		trace.WithAttributes(attribute.String("roll_number", q.RollNumber)))
	defer span.End()

	if e.globalDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.globalDeadline)
		defer cancel()
	}

	requestID := requestcontext.RequestID(ctx)

	for _, entry := range e.registry.OrderedSources() {
		if e.globalDeadline > 0 && ctx.Err() != nil {
			e.logger.WarnContext(ctx, "global deadline exhausted, abandoning fallback chain",
				"request_id", requestID,
				"roll_number", q.RollNumber,
			)
			break
		}

		outcome := e.attempt(ctx, entry.Adapter, q)
		switch outcome.Status {
		case source.StatusFound:
			record := outcome.Record
			if entry.Descriptor.Kind == models.KindWebAPI {
				record.SourceID = models.WebFallbackSourceID
				e.cacheRecord(ctx, record)
			} else {
				record.SourceID = entry.Descriptor.ID
				if record.CGPA == nil && !entry.Descriptor.Capabilities.SupportsCGPA {
					e.enrichCGPA(ctx, q, record)
				}
			}

			span.SetAttributes(attribute.String("resolved_source", record.SourceID))
			e.observeResolution("found")
			e.logger.InfoContext(ctx, "result resolved",
				"request_id", requestID,
				"roll_number", q.RollNumber,
				"source", record.SourceID,
				"cgpa_present", record.CGPA != nil,
			)
			return record, nil

		case source.StatusError:
			// Non-fatal: record the failure and continue down the chain.
			e.logger.WarnContext(ctx, "source lookup failed, trying next source",
				"request_id", requestID,
				"roll_number", q.RollNumber,
				"source", entry.Descriptor.ID,
				"kind", string(outcome.Err.Kind),
				"error", outcome.Err,
			)
		}
	}

	e.observeResolution("not_found")
	e.logger.InfoContext(ctx, "result not found in any source",
		"request_id", requestID,
		"roll_number", q.RollNumber,
	)
	return nil, dErrors.New(dErrors.CodeNotFound, "result not found in any configured source")
}

// attempt runs one source query and reports it to the stats aggregator
// regardless of outcome. A source with an open circuit is not queried; the
// attempt is recorded as an unreachable error so per-source counters still
// reflect it.
func (e *Engine) attempt(ctx context.Context, adapter source.Adapter, q models.RollQuery) source.Outcome {
	id := adapter.ID()
	br := e.breakers[id]

	if br != nil && !br.Allow() {
		outcome := source.Errored(source.ErrorUnreachable, id, "circuit open, source skipped", nil)
		e.stats.RecordAttempt(id, outcome, 0)
		return outcome
	}

	start := time.Now()
	outcome := adapter.Query(ctx, q)
	e.stats.RecordAttempt(id, outcome, time.Since(start))

	if br != nil {
		switch outcome.Status {
		case source.StatusError:
			if _, change := br.RecordFailure(); change.Opened {
				e.logger.WarnContext(ctx, "circuit opened for source", "source", id)
			}
		default:
			if _, change := br.RecordSuccess(); change.Closed {
				e.logger.InfoContext(ctx, "circuit closed for source", "source", id)
			}
		}
	}
	return outcome
}

// enrichCGPA performs the secondary lookup against the distinguished
// CGPA-capable source and copies its CGPA into the primary record. The
// secondary attempt is recorded in stats, but its miss or failure never
// demotes the primary hit.
func (e *Engine) enrichCGPA(ctx context.Context, q models.RollQuery, record *models.ResultRecord) {
	cgpaSource, ok := e.registry.CGPASource()
	if !ok {
		return
	}

	outcome := e.attempt(ctx, cgpaSource.Adapter, q)
	switch outcome.Status {
	case source.StatusFound:
		if outcome.Record.CGPA != nil {
			record.CGPA = outcome.Record.CGPA
		}
	case source.StatusError:
		e.logger.WarnContext(ctx, "cgpa enrichment failed, returning record unenriched",
			"request_id", requestcontext.RequestID(ctx),
			"roll_number", q.RollNumber,
			"source", cgpaSource.Descriptor.ID,
			"error", outcome.Err,
		)
	}
}

// cacheRecord write-through caches a web-fallback hit so later lookups stay
// internal. Failures are logged and swallowed.
func (e *Engine) cacheRecord(ctx context.Context, record *models.ResultRecord) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Save(ctx, record); err != nil {
		e.logger.WarnContext(ctx, "failed to cache web-fallback record",
			"request_id", requestcontext.RequestID(ctx),
			"roll_number", record.RollNumber,
			"error", err,
		)
	}
}

func (e *Engine) observeResolution(outcome string) {
	if e.metrics != nil {
		e.metrics.ObserveResolution(outcome)
	}
}
