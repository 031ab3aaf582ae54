package api

import (
	"encoding/json"
	"math"
	"mime"
	"net/http"
	"time"

	"road_index/pkg/graph"
	"road_index/pkg/label"
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	index *label.ContractionIndex
	stats StatsResponse
}

// NewHandlers creates handlers serving the given index.
func NewHandlers(index *label.ContractionIndex) *Handlers {
	return &Handlers{
		index: index,
		stats: StatsResponse{
			NumNodes:     index.NodeCount(),
			Uncontracted: index.UncontractedCount(),
			Height:       index.Height(),
			LabelCount:   index.LabelCount(),
			IndexBytes:   index.Size(),
		},
	}
}

// HandleQuery handles POST /api/v1/query.
func (h *Handlers) HandleQuery(w http.ResponseWriter, r *http.Request) {
	// Enforce Content-Type.
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	if err := h.validateNode(req.Source); err != "" {
		writeError(w, http.StatusBadRequest, err, "source")
		return
	}
	if err := h.validateNode(req.Target); err != "" {
		writeError(w, http.StatusBadRequest, err, "target")
		return
	}

	start := time.Now()
	v, t := graph.NodeID(req.Source), graph.NodeID(req.Target)
	dist := h.index.GetDistance(v, t)
	resp := QueryResponse{
		PathCount:  h.index.GetSPC(v, t),
		Hoplinks:   h.index.GetHoplinks(v, t),
		TookMicros: time.Since(start).Microseconds(),
	}
	if dist != graph.Infinity {
		d := uint32(dist)
		resp.Distance = &d
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.stats)
}

func (h *Handlers) validateNode(id uint32) string {
	if id == 0 || id > math.MaxInt32 || int(id) > h.index.NodeCount() {
		return "node_out_of_range"
	}
	if h.index.GetContractionLabel(graph.NodeID(id)).CutIndex == nil {
		return "node_not_indexed"
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Field: field})
}
