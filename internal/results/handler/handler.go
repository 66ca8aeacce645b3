// Package handler wires the result resolution endpoints to the engine,
// registry and stats aggregator. It is a thin HTTP layer: all business logic
// lives in the engine.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"resultgate/internal/results/models"
	"resultgate/internal/results/registry"
	"resultgate/internal/results/source"
	dErrors "resultgate/pkg/domain-errors"
	"resultgate/pkg/platform/httputil"
	"resultgate/pkg/requestcontext"
)

// Resolver is the interface the handler needs from the resolution engine.
type Resolver interface {
	Resolve(ctx context.Context, q models.RollQuery) (*models.ResultRecord, error)
}

// StatsSource provides the current per-source counters.
type StatsSource interface {
	Snapshot() []models.SourceStat
}

// Handler serves the result resolution API.
type Handler struct {
	resolver Resolver
	registry *registry.Registry
	stats    StatsSource
	logger   *slog.Logger
}

// New constructs a results handler with its dependencies.
func New(resolver Resolver, reg *registry.Registry, stats StatsSource, logger *slog.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		registry: reg,
		stats:    stats,
		logger:   logger,
	}
}

// Register mounts the result endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/search-result", h.HandleSearch)
	r.Get("/api/projects", h.HandleListProjects)
	r.Get("/api/projects/{id}/test", h.HandleTestProject)
	r.Get("/api/web-apis", h.HandleListWebAPIs)
	r.Get("/api/web-apis/test", h.HandleTestWebAPIs)
	r.Get("/api/stats", h.HandleStats)
}

// HandleSearch handles POST /api/search-result requests.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[SearchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.resolver.Resolve(ctx, req.ToQuery())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteJSON(w, http.StatusNotFound, NotFoundResponse{
				Success:         false,
				Error:           "result not found in any configured source",
				RollNo:          req.RollNo,
				SourcesSearched: h.sourceIDs(),
			})
			return
		}
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "search served",
		"request_id", requestID,
		"roll_no", record.RollNumber,
		"source", record.SourceID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, SearchResponse{Success: true, Result: record})
}

// HandleListProjects handles GET /api/projects: the internal stores only.
func (h *Handler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	var internal []models.SourceDescriptor
	for _, d := range h.registry.Describe() {
		if d.Kind != models.KindWebAPI {
			internal = append(internal, d)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, SourceListResponse{Sources: internal})
}

// HandleListWebAPIs handles GET /api/web-apis.
func (h *Handler) HandleListWebAPIs(w http.ResponseWriter, r *http.Request) {
	var apis []models.SourceDescriptor
	for _, d := range h.registry.Describe() {
		if d.Kind == models.KindWebAPI {
			apis = append(apis, d)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, SourceListResponse{Sources: apis})
}

// HandleTestProject handles GET /api/projects/{id}/test: pings one internal
// store and reports its connectivity. Web APIs have their own test endpoint.
func (h *Handler) HandleTestProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, ok := h.registry.Lookup(id)
	if !ok || entry.Descriptor.Kind == models.KindWebAPI {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no such project"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	httputil.WriteJSON(w, http.StatusOK, pingStatus(ctx, entry))
}

// HandleTestWebAPIs handles GET /api/web-apis/test: pings every configured
// web API concurrently and reports per-API connectivity.
func (h *Handler) HandleTestWebAPIs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	apis := h.registry.WebAPIs()
	statuses := make([]SourceStatus, len(apis))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for i, api := range apis {
		g.Go(func() error {
			status := pingStatus(ctx, api)
			mu.Lock()
			statuses[i] = status
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	httputil.WriteJSON(w, http.StatusOK, statuses)
}

// pingStatus runs one connectivity check against a source adapter.
func pingStatus(ctx context.Context, entry registry.Entry) SourceStatus {
	status := SourceStatus{ID: entry.Descriptor.ID, Status: "connected"}
	pinger, ok := entry.Adapter.(source.Pinger)
	if !ok {
		status.Status = "untestable"
		return status
	}
	if err := pinger.Ping(ctx); err != nil {
		status.Status = "unreachable"
		status.Error = err.Error()
	}
	return status
}

// HandleStats handles GET /api/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, StatsResponse{Sources: h.stats.Snapshot()})
}

func (h *Handler) sourceIDs() []string {
	descriptors := h.registry.Describe()
	ids := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		ids = append(ids, d.ID)
	}
	return ids
}
