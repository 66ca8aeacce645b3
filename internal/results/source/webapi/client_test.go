package webapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resultgate/internal/results/models"
	"resultgate/internal/results/source"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New("btebresulthub", server.URL, WithAPIKey("test-key"))
	require.NoError(t, err)
	return client
}

func TestQueryFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/search", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "502760", req.RollNo)

		cgpa := 3.72
		_ = json.NewEncoder(w).Encode(searchResponse{
			Success:    true,
			Roll:       req.RollNo,
			Name:       "Web Student",
			Regulation: 2022,
			Exam:       "Diploma in Engineering",
			CGPA:       &cgpa,
		})
	})

	outcome := client.Query(context.Background(), models.RollQuery{RollNumber: "502760"})
	require.Equal(t, source.StatusFound, outcome.Status)
	assert.Equal(t, "btebresulthub", outcome.Record.SourceID)
	assert.Equal(t, "Web Student", outcome.Record.Name)
	require.NotNil(t, outcome.Record.CGPA)
	assert.InDelta(t, 3.72, *outcome.Record.CGPA, 0.0001)
}

func TestQueryMisses(t *testing.T) {
	t.Run("404 is a clean miss", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		outcome := client.Query(context.Background(), models.RollQuery{RollNumber: "999999"})
		assert.Equal(t, source.StatusNotFound, outcome.Status)
	})

	t.Run("success=false is a clean miss", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(searchResponse{Success: false})
		})

		outcome := client.Query(context.Background(), models.RollQuery{RollNumber: "999999"})
		assert.Equal(t, source.StatusNotFound, outcome.Status)
	})
}

func TestQueryErrors(t *testing.T) {
	t.Run("server error classified unreachable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		outcome := client.Query(context.Background(), models.RollQuery{RollNumber: "502760"})
		require.Equal(t, source.StatusError, outcome.Status)
		assert.Equal(t, source.ErrorUnreachable, outcome.Err.Kind)
	})

	t.Run("garbage body classified malformed", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json at all"))
		})

		outcome := client.Query(context.Background(), models.RollQuery{RollNumber: "502760"})
		require.Equal(t, source.StatusError, outcome.Status)
		assert.Equal(t, source.ErrorMalformed, outcome.Err.Kind)
	})

	t.Run("slow upstream classified timeout", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		})
		WithTimeout(10 * time.Millisecond)(client)

		outcome := client.Query(context.Background(), models.RollQuery{RollNumber: "502760"})
		require.Equal(t, source.StatusError, outcome.Status)
		assert.Equal(t, source.ErrorTimeout, outcome.Err.Kind)
	})
}

func TestPing(t *testing.T) {
	t.Run("healthy hub", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		})
		assert.NoError(t, client.Ping(context.Background()))
	})

	t.Run("unhealthy hub", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		assert.Error(t, client.Ping(context.Background()))
	})
}
