package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road_index/pkg/ch"
	"road_index/pkg/graph"
	"road_index/pkg/label"
)

// testIndex builds a small index over a 4-cycle with unit weights.
func testIndex(t *testing.T) *label.ContractionIndex {
	t.Helper()
	g := graph.NewGraphEdges(4, []graph.Edge{
		{A: 1, B: 2, D: 1}, {A: 2, B: 3, D: 1}, {A: 3, B: 4, D: 1}, {A: 4, B: 1, D: 1},
	})
	closest := g.Contract()
	ci := g.CreateCutIndex(0.2, graph.Config{})
	g.Reset()
	ch.Build(g, ci, closest)
	return label.NewContractionIndex(ci, closest, graph.Config{})
}

func postQuery(t *testing.T, h *Handlers, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleQuery(rec, req)
	return rec
}

func TestHandleQuery(t *testing.T) {
	index := testIndex(t)
	h := NewHandlers(index)

	rec := postQuery(t, h, QueryRequest{Source: 1, Target: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Distance)
	assert.Equal(t, uint32(2), *resp.Distance)
	assert.Equal(t, uint16(2), resp.PathCount)
	assert.Positive(t, resp.Hoplinks)
}

func TestHandleQueryIdentity(t *testing.T) {
	h := NewHandlers(testIndex(t))
	rec := postQuery(t, h, QueryRequest{Source: 2, Target: 2})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Distance)
	assert.Equal(t, uint32(0), *resp.Distance)
	assert.Equal(t, uint16(1), resp.PathCount)
}

func TestHandleQueryValidation(t *testing.T) {
	h := NewHandlers(testIndex(t))

	rec := postQuery(t, h, QueryRequest{Source: 0, Target: 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postQuery(t, h, QueryRequest{Source: 1, Target: 99})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// wrong content type
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "text/plain")
	rec2 := httptest.NewRecorder()
	h.HandleQuery(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestHandleStats(t *testing.T) {
	h := NewHandlers(testIndex(t))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	h.HandleStats(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.NumNodes)
	assert.Equal(t, 4, resp.Uncontracted)
	assert.Positive(t, resp.IndexBytes)
}

func TestHandleHealth(t *testing.T) {
	h := NewHandlers(testIndex(t))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	h.HandleHealth(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestServerRoutes(t *testing.T) {
	srv := NewServer(DefaultConfig(":0"), NewHandlers(testIndex(t)))
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/api/v1/query", "application/json",
		bytes.NewReader([]byte(`{"source":1,"target":2}`)))
	require.NoError(t, err)
	var qr QueryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&qr))
	resp.Body.Close()
	require.NotNil(t, qr.Distance)
	assert.Equal(t, uint32(1), *qr.Distance)
}
