package ch

import (
	"sort"

	"road_index/pkg/graph"
	"road_index/pkg/label"
)

// ContractedUpdate adjusts the pendant-tree offsets below one contracted
// node: its offset moves from Old to New, and its pendant descendants shift
// accordingly.
type ContractedUpdate struct {
	Old, New Distance
	Node     NodeID
}

// SplitUpdates routes a batch of edge updates: updates touching a contracted
// endpoint become pendant-offset updates descending the deeper side, the rest
// feed the hierarchy maintenance.
func SplitUpdates(ci *label.ContractionIndex, updates []WeightUpdate) ([]WeightUpdate, []ContractedUpdate) {
	var normal []WeightUpdate
	var contracted []ContractedUpdate
	for _, u := range updates {
		if !ci.IsContracted(u.A) && !ci.IsContracted(u.B) {
			normal = append(normal, u)
			continue
		}
		x := ci.GetContractionLabel(u.A)
		y := ci.GetContractionLabel(u.B)
		if x.DistanceOffset > y.DistanceOffset {
			contracted = append(contracted, ContractedUpdate{x.DistanceOffset, y.DistanceOffset + u.New, u.A})
		} else if x.DistanceOffset < y.DistanceOffset {
			contracted = append(contracted, ContractedUpdate{y.DistanceOffset, x.DistanceOffset + u.New, u.B})
		}
	}
	return normal, contracted
}

// ApplyContractedUpdates repairs pendant-tree distance offsets. Updates run
// in ascending old-offset order; an update whose node no longer carries the
// expected offset was already subsumed by an earlier one. Each surviving
// update DFSes through the node's pendant descendants, re-deriving offsets
// along the tree edges.
func ApplyContractedUpdates(g *graph.Graph, ci *label.ContractionIndex, updates []ContractedUpdate) {
	sort.Slice(updates, func(i, j int) bool {
		if updates[i].Old != updates[j].Old {
			return updates[i].Old < updates[j].Old
		}
		if updates[i].New != updates[j].New {
			return updates[i].New < updates[j].New
		}
		return updates[i].Node < updates[j].Node
	})
	type frame struct {
		distance Distance
		node     NodeID
	}
	var stack []frame
	for _, u := range updates {
		if u.Old != ci.GetContractionLabel(u.Node).DistanceOffset {
			continue
		}
		stack = append(stack, frame{u.New, u.Node})
		for len(stack) > 0 {
			next := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			ci.UpdateDistanceOffset(next.node, next.distance)
			g.Neighbors(next.node, func(n graph.Neighbor) {
				if ci.GetContractionLabel(n.Node).Parent == next.node {
					stack = append(stack, frame{next.distance + n.Distance, n.Node})
				}
			})
		}
	}
}
