package httptransport

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resultgate/internal/results/engine"
	resulthandler "resultgate/internal/results/handler"
	"resultgate/internal/results/models"
	"resultgate/internal/results/registry"
	"resultgate/internal/results/source/memory"
	"resultgate/internal/results/stats"
	"resultgate/pkg/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	reg, err := registry.New([]registry.Entry{
		{
			Descriptor: models.SourceDescriptor{ID: "primary", Kind: models.KindPrimaryStore, Priority: 1},
			Adapter:    memory.New("primary"),
		},
	})
	require.NoError(t, err)

	agg := stats.New()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	eng, err := engine.New(reg, agg, engine.WithLogger(logger))
	require.NoError(t, err)

	return NewRouter(resulthandler.New(eng, reg, agg, logger))
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))

	testutil.AssertStatus(t, rec, http.StatusOK)
	testutil.AssertJSONContains(t, rec, "status", "healthy")
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))

	testutil.AssertStatus(t, rec, http.StatusOK)
}

func TestRequestIDAssigned(t *testing.T) {
	router := newTestRouter(t)

	rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDPreserved(t *testing.T) {
	router := newTestRouter(t)

	req := testutil.NewRequest(t, http.MethodGet, "/health")
	req.Header.Set("X-Request-ID", "fixed-id")
	rec := testutil.DoRequest(router, req)

	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}
