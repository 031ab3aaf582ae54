package ch

import (
	"road_index/pkg/bucket"
	"road_index/pkg/graph"
	"road_index/pkg/label"
)

// ichItem is one pending label-slot update: node v, slot i, and the
// candidate distance and count.
type ichItem struct {
	v         NodeID
	i         uint16
	distance  Distance
	pathCount uint16
}

// seedDec turns a decrease change set into initial label-slot candidates:
// a changed edge (v,w) may improve every ancestor slot of v up to w's rank.
func seedDec(h *Hierarchy, ci *label.ContractionIndex, changes []EdgeChange, push func(ichItem)) {
	for _, c := range changes {
		a := ci.GetContractionLabel(c.V).CutIndex
		rw := h.Nodes[c.W].DistIndex
		if c.Distance > a.Distances()[rw] {
			continue
		}
		b := ci.GetContractionLabel(c.W).CutIndex
		for i := uint16(0); i <= rw; i++ {
			dist := graph.AddDist(c.Distance, b.Distances()[i])
			if dist == graph.Infinity {
				continue
			}
			if a.Distances()[i] >= dist {
				count := c.PathCount * b.Paths()[i]
				push(ichItem{c.V, i, dist, count})
			}
		}
	}
}

// seedInc turns an increase change set into label-slot invalidations: slots
// whose stored distance was realized through the changed edge lose counts.
func seedInc(h *Hierarchy, ci *label.ContractionIndex, changes []EdgeChange, push func(ichItem)) {
	for _, c := range changes {
		a := ci.GetContractionLabel(c.V).CutIndex
		rw := h.Nodes[c.W].DistIndex
		if c.Distance != a.Distances()[rw] {
			continue
		}
		b := ci.GetContractionLabel(c.W).CutIndex
		for i := uint16(0); i <= rw; i++ {
			dist := graph.AddDist(c.Distance, b.Distances()[i])
			if dist == graph.Infinity {
				continue
			}
			if dist == a.Distances()[i] {
				count := c.PathCount * b.Paths()[i]
				push(ichItem{c.V, i, dist, count})
			}
		}
	}
}

// DCLDec maintains the 2-hop labels after weight decreases: the hierarchy is
// repaired first, then improvements propagate down the hierarchy in min-rank
// order so every ancestor slot is final before descendants consume it.
func DCLDec(h *Hierarchy, ci *label.ContractionIndex, updates []WeightUpdate) {
	changes := h.GSDec(updates)
	var q bucket.MinQueue[ichItem]
	seedDec(h, ci, changes, func(it ichItem) {
		q.Push(it, int(h.Nodes[it.v].DistIndex))
	})
	for !q.Empty() {
		next := q.Pop()
		cv := ci.GetContractionLabel(next.v).CutIndex
		dists, paths := cv.Distances(), cv.Paths()
		if dists[next.i] > next.distance {
			dists[next.i] = next.distance
			paths[next.i] = next.pathCount
		} else if dists[next.i] == next.distance {
			paths[next.i] += next.pathCount
		} else {
			continue
		}
		for _, u := range h.Nodes[next.v].DownNeighbors {
			x := h.upNeighbor(u, next.v)
			dist := x.Distance + next.distance
			cu := ci.GetContractionLabel(u).CutIndex
			if cu.Distances()[next.i] >= dist {
				q.Push(ichItem{u, next.i, dist, x.PathCount * next.pathCount}, int(h.Nodes[u].DistIndex))
			}
		}
	}
}

// DCLInc maintains the 2-hop labels after weight increases. A slot losing
// part of its count is decremented; a slot losing its whole count is
// recomputed from the node's upward edges.
func DCLInc(g *graph.Graph, h *Hierarchy, ci *label.ContractionIndex, updates []WeightUpdate) {
	changes := h.GSInc(g, updates)
	var q bucket.MinQueue[ichItem]
	seedInc(h, ci, changes, func(it ichItem) {
		q.Push(it, int(h.Nodes[it.v].DistIndex))
	})
	for !q.Empty() {
		next := q.Pop()
		cv := ci.GetContractionLabel(next.v).CutIndex
		// propagate to descendants before the slot changes
		for _, u := range h.Nodes[next.v].DownNeighbors {
			x := h.upNeighbor(u, next.v)
			cu := ci.GetContractionLabel(u).CutIndex
			dist := graph.AddDist(x.Distance, cv.Distances()[next.i])
			if dist != graph.Infinity && dist == cu.Distances()[next.i] {
				q.Push(ichItem{u, next.i, dist, x.PathCount * next.pathCount}, int(h.Nodes[u].DistIndex))
			}
		}
		paths := cv.Paths()
		if paths[next.i] > next.pathCount {
			// distance unchanged, other paths remain
			paths[next.i] -= next.pathCount
		} else {
			recomputeSlot(h, ci, next.v, next.i)
		}
	}
}

// recomputeSlot rebuilds one label slot from the node's upward edges whose
// target rank is at or above the slot.
func recomputeSlot(h *Hierarchy, ci *label.ContractionIndex, v NodeID, i uint16) {
	cv := ci.GetContractionLabel(v).CutIndex
	dists, paths := cv.Distances(), cv.Paths()
	dists[i] = graph.Infinity
	for _, u := range h.Nodes[v].UpNeighbors {
		if h.Nodes[u.Node].DistIndex < i {
			continue
		}
		x := h.upNeighbor(v, u.Node)
		cu := ci.GetContractionLabel(u.Node).CutIndex
		dist := graph.AddDist(x.Distance, cu.Distances()[i])
		if dist == graph.Infinity {
			continue
		}
		count := x.PathCount * cu.Paths()[i]
		if dist < dists[i] {
			dists[i] = dist
			paths[i] = count
		} else if dist == dists[i] {
			paths[i] += count
		}
	}
}
