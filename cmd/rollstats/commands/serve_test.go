package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rollstats-go/internal/analytics"
)

func newTestServer(queue int) *server {
	return &server{
		engine:  analytics.NewEngine(5, 3, zap.NewNop()),
		logger:  zap.NewNop(),
		samples: make(chan ingestRequest, queue),
	}
}

func TestHandleIngest(t *testing.T) {
	srv := newTestServer(4)

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{"metric":"latency","value":12.5}`))
	rec := httptest.NewRecorder()
	srv.handleIngest(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, srv.samples, 1)
	queued := <-srv.samples
	assert.Equal(t, "latency", queued.Metric)
	assert.Equal(t, 12.5, queued.Value)
}

func TestHandleIngestRejectsBadInput(t *testing.T) {
	srv := newTestServer(4)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "malformed JSON", body: `{`, want: http.StatusBadRequest},
		{name: "missing metric", body: `{"value":1}`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.handleIngest(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandleIngestQueueFull(t *testing.T) {
	srv := newTestServer(1)
	srv.samples <- ingestRequest{Metric: "latency", Value: 1}

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{"metric":"latency","value":2}`))
	rec := httptest.NewRecorder()
	srv.handleIngest(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleStats(t *testing.T) {
	srv := newTestServer(1)
	srv.engine.Update("cpu", 10)
	srv.engine.Update("cpu", 20)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	srv.handleStats(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var results []analytics.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "cpu", results[0].Metric)
	assert.Equal(t, 15.0, results[0].Mean.Float())
	assert.Equal(t, 2, results[0].WindowCount)
}

func TestHandleLatestWithoutStore(t *testing.T) {
	srv := newTestServer(1)

	req := httptest.NewRequest(http.MethodGet, "/latest", nil)
	rec := httptest.NewRecorder()
	srv.handleLatest(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(1)
	srv.engine.Update("cpu", 1)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["metrics"])
}
