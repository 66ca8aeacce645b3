package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"resultgate/internal/results/engine"
	"resultgate/internal/results/models"
	"resultgate/internal/results/registry"
	"resultgate/internal/results/source/memory"
	"resultgate/internal/results/stats"
	"resultgate/pkg/testutil"
)

// HandlerSuite exercises the HTTP layer against real in-memory components.
type HandlerSuite struct {
	suite.Suite
	router    http.Handler
	primary   *memory.InMemorySource
	secondary *memory.InMemorySource
}

func (s *HandlerSuite) SetupTest() {
	s.primary = memory.New("primary")
	s.secondary = memory.New("secondary")

	reg, err := registry.New([]registry.Entry{
		{
			Descriptor: models.SourceDescriptor{ID: "primary", Kind: models.KindPrimaryStore, Priority: 1},
			Adapter:    s.primary,
		},
		{
			Descriptor: models.SourceDescriptor{
				ID:           "secondary",
				Kind:         models.KindFallbackStore,
				Priority:     2,
				Capabilities: models.Capabilities{SupportsCGPA: true},
			},
			Adapter: s.secondary,
		},
	})
	require.NoError(s.T(), err)

	agg := stats.New()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	eng, err := engine.New(reg, agg, engine.WithLogger(logger))
	require.NoError(s.T(), err)

	r := chi.NewRouter()
	New(eng, reg, agg, logger).Register(r)
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) doJSON(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req = testutil.WithRequestID(req, "test-request")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestSearch_InvalidJSON() {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/api/search-result", "not valid json")
	rec := testutil.DoRequest(s.router, req)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestSearch_EmptyRoll() {
	rec := s.doJSON(http.MethodPost, "/api/search-result", SearchRequest{RollNo: "   "})
	s.Equal(http.StatusBadRequest, rec.Code)

	var body map[string]string
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	s.Equal("invalid_input", body["error"])
}

func (s *HandlerSuite) TestSearch_Found() {
	s.primary.Seed(models.ResultRecord{
		RollNumber: "721942",
		Name:       "Handler Student",
		ExamYear:   2022,
		ExamType:   "Diploma in Engineering",
	})
	cgpa := 3.65
	s.secondary.Seed(models.ResultRecord{RollNumber: "721942", ExamYear: 2022, ExamType: "Diploma in Engineering", CGPA: &cgpa})

	rec := s.doJSON(http.MethodPost, "/api/search-result", SearchRequest{RollNo: "721942"})
	s.Require().Equal(http.StatusOK, rec.Code)

	body := testutil.UnmarshalResponse[SearchResponse](s.T(), rec)
	s.True(body.Success)
	s.Require().NotNil(body.Result)
	s.Equal("primary", body.Result.SourceID)
	s.Require().NotNil(body.Result.CGPA)
	s.InDelta(3.65, *body.Result.CGPA, 0.0001)
}

func (s *HandlerSuite) TestSearch_NotFound() {
	rec := s.doJSON(http.MethodPost, "/api/search-result", SearchRequest{RollNo: "999999"})
	s.Require().Equal(http.StatusNotFound, rec.Code)

	var body NotFoundResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	s.False(body.Success)
	s.Equal("999999", body.RollNo)
	s.ElementsMatch([]string{"primary", "secondary"}, body.SourcesSearched)
}

func (s *HandlerSuite) TestListProjects() {
	rec := s.doJSON(http.MethodGet, "/api/projects", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var body SourceListResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	s.Len(body.Sources, 2)
	s.Equal("primary", body.Sources[0].ID)
}

func (s *HandlerSuite) TestListWebAPIs_EmptyWhenNoneConfigured() {
	rec := s.doJSON(http.MethodGet, "/api/web-apis", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var body SourceListResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	s.Empty(body.Sources)
}

func (s *HandlerSuite) TestStatsReflectSearches() {
	s.doJSON(http.MethodPost, "/api/search-result", SearchRequest{RollNo: "999999"})

	rec := s.doJSON(http.MethodGet, "/api/stats", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var body StatsResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	s.Require().Len(body.Sources, 2)
	for _, stat := range body.Sources {
		s.Equal(uint64(1), stat.QueriesTotal)
	}
}

func TestTestWebAPIs(t *testing.T) {
	hub := memory.New("hub")
	hub.Seed(models.ResultRecord{RollNumber: "445566"})

	reg, err := registry.New([]registry.Entry{
		{
			Descriptor: models.SourceDescriptor{ID: "primary", Kind: models.KindPrimaryStore, Priority: 1},
			Adapter:    memory.New("primary"),
		},
		{
			Descriptor: models.SourceDescriptor{ID: "hub", Kind: models.KindWebAPI, Priority: 9},
			Adapter:    hub,
		},
	})
	require.NoError(t, err)

	agg := stats.New()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	eng, err := engine.New(reg, agg, engine.WithLogger(logger))
	require.NoError(t, err)

	r := chi.NewRouter()
	New(eng, reg, agg, logger).Register(r)

	req := httptest.NewRequest(http.MethodGet, "/api/web-apis/test", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var statuses []SourceStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&statuses))
	require.Len(t, statuses, 1)
	require.Equal(t, "hub", statuses[0].ID)
	require.Equal(t, "connected", statuses[0].Status)
}

func (s *HandlerSuite) TestTestProject_Connected() {
	rec := s.doJSON(http.MethodGet, "/api/projects/primary/test", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	status := testutil.UnmarshalResponse[SourceStatus](s.T(), rec)
	s.Equal("primary", status.ID)
	s.Equal("connected", status.Status)
	s.Empty(status.Error)
}

func (s *HandlerSuite) TestTestProject_UnknownID() {
	rec := s.doJSON(http.MethodGet, "/api/projects/nope/test", nil)
	s.Require().Equal(http.StatusNotFound, rec.Code)

	var body map[string]string
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	s.Equal("not_found", body["error"])
}

// Web APIs are tested through their own endpoint, never the project one.
func TestTestProjectRejectsWebAPI(t *testing.T) {
	reg, err := registry.New([]registry.Entry{
		{
			Descriptor: models.SourceDescriptor{ID: "primary", Kind: models.KindPrimaryStore, Priority: 1},
			Adapter:    memory.New("primary"),
		},
		{
			Descriptor: models.SourceDescriptor{ID: "hub", Kind: models.KindWebAPI, Priority: 9},
			Adapter:    memory.New("hub"),
		},
	})
	require.NoError(t, err)

	agg := stats.New()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	eng, err := engine.New(reg, agg, engine.WithLogger(logger))
	require.NoError(t, err)

	r := chi.NewRouter()
	New(eng, reg, agg, logger).Register(r)

	rec := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/api/projects/hub/test"))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
