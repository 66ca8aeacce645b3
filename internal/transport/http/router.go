// Package httptransport assembles the public router. It stays thin: every
// endpoint delegates to a domain handler, and the liveness probe reports
// process-up status without touching any source.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	resulthandler "resultgate/internal/results/handler"
	"resultgate/pkg/platform/httputil"
	"resultgate/pkg/platform/middleware/metadata"
)

// NewRouter wires all public endpoints.
func NewRouter(results *resulthandler.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(metadata.RequestMetadata)

	r.Get("/health", handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	results.Register(r)

	return r
}

// handleHealth is the liveness probe: process-up only, no source calls.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "resultgate is running",
	})
}
