package osm

import (
	"errors"

	"github.com/tidwall/rtree"

	"road_index/pkg/geo"
	"road_index/pkg/graph"
)

const maxSnapDistMeters = 500.0

// ErrPointTooFar is returned when the query point is too far from any node.
var ErrPointTooFar = errors.New("point too far from road network")

// Snapper finds the graph node nearest to a coordinate using an R-tree over
// the parsed node positions.
type Snapper struct {
	tr  rtree.RTreeG[graph.NodeID]
	res *Result
}

// NewSnapper indexes the parsed network's node coordinates.
func NewSnapper(res *Result) *Snapper {
	s := &Snapper{res: res}
	for id := graph.NodeID(1); int(id) <= res.NodeCount; id++ {
		p := [2]float64{res.Lon[id], res.Lat[id]}
		s.tr.Insert(p, p, id)
	}
	return s
}

// searchBoxDegrees is the initial half-width of the candidate search box.
// 0.005° is roughly 550 m at the equator; the box doubles until candidates
// appear or the snap limit is exceeded.
const searchBoxDegrees = 0.005

// Snap returns the nearest node to the given point, or ErrPointTooFar when
// no node lies within the snapping range.
func (s *Snapper) Snap(lat, lon float64) (graph.NodeID, error) {
	half := searchBoxDegrees
	for {
		best := graph.NoNode
		bestDist := maxSnapDistMeters
		s.tr.Search(
			[2]float64{lon - half, lat - half},
			[2]float64{lon + half, lat + half},
			func(_, _ [2]float64, id graph.NodeID) bool {
				d := geo.EquirectangularDist(lat, lon, s.res.Lat[id], s.res.Lon[id])
				if d <= bestDist {
					best = id
					bestDist = d
				}
				return true
			})
		if best != graph.NoNode {
			return best, nil
		}
		half *= 2
		// a box twice the snap limit cannot miss an in-range node
		if half > 4*searchBoxDegrees {
			return graph.NoNode, ErrPointTooFar
		}
	}
}
