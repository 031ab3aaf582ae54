// Package osm loads road networks from OSM PBF extracts into the index
// builder's graph form, and snaps coordinates to graph nodes.
package osm

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"road_index/pkg/geo"
	"road_index/pkg/graph"
)

// Result is a parsed road network: undirected weighted edges over compact
// 1-based node IDs, plus per-node coordinates for snapping.
type Result struct {
	NodeCount int
	Edges     []graph.Edge
	// Lat and Lon are indexed by NodeID (entry 0 unused).
	Lat, Lon []float64
}

// NewGraph builds the index builder's graph from the parsed network.
func (r *Result) NewGraph() *graph.Graph {
	g := graph.NewGraphEdges(r.NodeCount, r.Edges)
	g.RemoveIsolated()
	return g
}

// carHighways lists highway tag values accessible by car.
var carHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
}

// isCarAccessible returns true if the way is drivable by car.
func isCarAccessible(tags osm.Tags) bool {
	if !carHighways[tags.Find("highway")] {
		return false
	}

	// Skip area highways (pedestrian plazas).
	if tags.Find("area") == "yes" {
		return false
	}

	// Skip restricted access.
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if tags.Find("motor_vehicle") == "no" {
		return false
	}

	return true
}

// BBox defines a geographic bounding box for filtering.
// If non-zero, only edges with both endpoints inside the box are kept.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ParseOptions configures the OSM parser.
type ParseOptions struct {
	BBox BBox // if non-zero, filter edges to this bounding box
}

// Parse reads an OSM PBF file and returns the undirected car network,
// weighted by great-circle segment length in meters. One-way restrictions
// are deliberately dropped: the distance index is undirected. The reader is
// consumed twice (seeks back to start for the second pass), so it must
// implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opts ...ParseOptions) (*Result, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	useBBox := !opt.BBox.IsZero()

	// Pass 1: scan ways to collect referenced node IDs and segments.
	referencedNodes := make(map[osm.NodeID]struct{})
	var segments [][2]osm.NodeID

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok || !isCarAccessible(w.Tags) || len(w.Nodes) < 2 {
			continue
		}
		for i := 0; i < len(w.Nodes)-1; i++ {
			from, to := w.Nodes[i].ID, w.Nodes[i+1].ID
			referencedNodes[from] = struct{}{}
			referencedNodes[to] = struct{}{}
			segments = append(segments, [2]osm.NodeID{from, to})
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()

	log.Printf("Pass 1 complete: %d segments, %d referenced nodes", len(segments), len(referencedNodes))

	// Pass 2: scan nodes to collect coordinates for referenced nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodeLat := make(map[osm.NodeID]float64, len(referencedNodes))
	nodeLon := make(map[osm.NodeID]float64, len(referencedNodes))

	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referencedNodes[n.ID]; !needed {
			continue
		}
		nodeLat[n.ID] = n.Lat
		nodeLon[n.ID] = n.Lon
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	log.Printf("Pass 2 complete: %d node coordinates collected", len(nodeLat))

	// Build compact 1-based node IDs and undirected edges.
	result := &Result{Lat: []float64{0}, Lon: []float64{0}}
	compact := make(map[osm.NodeID]graph.NodeID, len(referencedNodes))
	addNode := func(id osm.NodeID) graph.NodeID {
		if idx, ok := compact[id]; ok {
			return idx
		}
		idx := graph.NodeID(len(result.Lat))
		compact[id] = idx
		result.Lat = append(result.Lat, nodeLat[id])
		result.Lon = append(result.Lon, nodeLon[id])
		return idx
	}

	var skippedSegments, bboxFiltered int
	for _, seg := range segments {
		fromLat, fromOK := nodeLat[seg[0]]
		fromLon := nodeLon[seg[0]]
		toLat, toOK := nodeLat[seg[1]]
		toLon := nodeLon[seg[1]]
		if !fromOK || !toOK {
			skippedSegments++
			continue
		}
		if useBBox && (!opt.BBox.Contains(fromLat, fromLon) || !opt.BBox.Contains(toLat, toLon)) {
			bboxFiltered++
			continue
		}
		meters := graph.Distance(math.Round(geo.Haversine(fromLat, fromLon, toLat, toLon)))
		if meters == 0 {
			meters = 1 // avoid zero-weight edges
		}
		result.Edges = append(result.Edges, graph.Edge{A: addNode(seg[0]), B: addNode(seg[1]), D: meters})
	}
	result.NodeCount = len(result.Lat) - 1

	if skippedSegments > 0 {
		log.Printf("Warning: skipped %d segments due to missing node coordinates", skippedSegments)
	}
	if bboxFiltered > 0 {
		log.Printf("Filtered %d segments outside bounding box", bboxFiltered)
	}
	log.Printf("Built %d undirected edges over %d nodes", len(result.Edges), result.NodeCount)

	return result, nil
}
