package test

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"

	"resultgate/internal/results/engine"
	resulthandler "resultgate/internal/results/handler"
	"resultgate/internal/results/models"
	"resultgate/internal/results/registry"
	"resultgate/internal/results/source/memory"
	"resultgate/internal/results/stats"
	httptransport "resultgate/internal/transport/http"
	"resultgate/pkg/testutil"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	primary := memory.New("primary")
	primary.Seed(models.ResultRecord{
		RollNumber: "502760",
		Name:       "Seeded Student",
		ExamYear:   2022,
		ExamType:   "Diploma in Engineering",
		Institute:  models.Institute{Code: "16057", Name: "Feni Polytechnic Institute"},
	})

	reg, err := registry.New([]registry.Entry{
		{
			Descriptor: models.SourceDescriptor{ID: "primary", Kind: models.KindPrimaryStore, Priority: 1},
			Adapter:    primary,
		},
	})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}

	agg := stats.New()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	eng, err := engine.New(reg, agg, engine.WithLogger(logger))
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}

	return httptransport.NewRouter(resulthandler.New(eng, reg, agg, logger))
}

func TestRouterScaffold(t *testing.T) {
	testutil.Given(t, "the HTTP router", func(t *testing.T) {
		router := newRouter(t)

		testutil.When(t, "searching for a seeded roll number", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/api/search-result",
				map[string]any{"roll_no": "502760"})
			rec := testutil.DoRequest(router, req)

			testutil.Then(t, "it should return the result", func(t *testing.T) {
				testutil.AssertStatus(t, rec, http.StatusOK)
				testutil.AssertJSONContains(t, rec, "success", true)
			})
		})

		testutil.When(t, "searching for an unknown roll number", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/api/search-result",
				map[string]any{"roll_no": "999999"})
			rec := testutil.DoRequest(router, req)

			testutil.Then(t, "it should report the miss", func(t *testing.T) {
				testutil.AssertStatus(t, rec, http.StatusNotFound)
				testutil.AssertJSONContains(t, rec, "success", false)
			})
		})

		testutil.When(t, "sending a body without digits in the roll number", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/api/search-result",
				map[string]any{"roll_no": "abc"})
			rec := testutil.DoRequest(router, req)

			testutil.Then(t, "it should reject the query", func(t *testing.T) {
				testutil.AssertStatus(t, rec, http.StatusBadRequest)
				testutil.AssertErrorCode(t, rec, "invalid_input")
			})
		})

		testutil.When(t, "listing configured sources", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodGet, "/api/projects")
			rec := testutil.DoRequest(router, req)

			testutil.Then(t, "it should enumerate them", func(t *testing.T) {
				testutil.AssertStatus(t, rec, http.StatusOK)
			})
		})
	})
}
