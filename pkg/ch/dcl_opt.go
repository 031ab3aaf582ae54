package ch

import (
	"road_index/pkg/bucket"
	"road_index/pkg/graph"
	"road_index/pkg/label"
)

// The optimized variants make a single pass over the min-rank queue. The
// first touch of a slot snapshots its pre-update value into the queue entry
// and sets the high bit of the slot's count as a dirty flag; later touches
// mutate the live slot only. On dequeue the snapshot yields exactly the delta
// to forward to descendants, so converging candidates never re-propagate.

const dirtyFlag uint16 = 1 << 15

// enqueueAndLowerSlot applies a decrease candidate to a slot, snapshotting it
// on first touch.
func enqueueAndLowerSlot(h *Hierarchy, ci *label.ContractionIndex, q *bucket.MinQueue[ichItem], v NodeID, i uint16, dist Distance, count uint16) {
	cv := ci.GetContractionLabel(v).CutIndex
	dists, paths := cv.Distances(), cv.Paths()
	if paths[i]&dirtyFlag == 0 {
		q.Push(ichItem{v, i, dists[i], paths[i]}, int(h.Nodes[v].DistIndex))
		paths[i] |= dirtyFlag
	}
	if dists[i] > dist {
		dists[i] = dist
		paths[i] = count | dirtyFlag
	} else {
		paths[i] += count
	}
}

// enqueueAndReduceCount applies an increase invalidation to a slot,
// snapshotting it on first touch.
func enqueueAndReduceCount(h *Hierarchy, ci *label.ContractionIndex, q *bucket.MinQueue[ichItem], v NodeID, i uint16, count uint16) {
	cv := ci.GetContractionLabel(v).CutIndex
	dists, paths := cv.Distances(), cv.Paths()
	if paths[i]&dirtyFlag == 0 {
		q.Push(ichItem{v, i, dists[i], paths[i]}, int(h.Nodes[v].DistIndex))
		paths[i] |= dirtyFlag
	}
	paths[i] -= count
}

// DCLDecOpt is DCLDec with single-pass propagation.
func DCLDecOpt(h *Hierarchy, ci *label.ContractionIndex, updates []WeightUpdate) {
	changes := h.GSDec(updates)
	var q bucket.MinQueue[ichItem]
	seedDec(h, ci, changes, func(it ichItem) {
		enqueueAndLowerSlot(h, ci, &q, it.v, it.i, it.distance, it.pathCount)
	})
	for !q.Empty() {
		// the entry carries the slot's pre-update snapshot
		next := q.Pop()
		cv := ci.GetContractionLabel(next.v).CutIndex
		dists, paths := cv.Distances(), cv.Paths()
		paths[next.i] &^= dirtyFlag
		var deltaCount uint16
		if dists[next.i] == next.distance {
			deltaCount = paths[next.i] - next.pathCount
		} else if dists[next.i] < next.distance {
			deltaCount = paths[next.i]
		} else {
			continue
		}
		for _, u := range h.Nodes[next.v].DownNeighbors {
			x := h.upNeighbor(u, next.v)
			dist := x.Distance + dists[next.i]
			cu := ci.GetContractionLabel(u).CutIndex
			if cu.Distances()[next.i] >= dist {
				enqueueAndLowerSlot(h, ci, &q, u, next.i, dist, x.PathCount*deltaCount)
			}
		}
	}
}

// DCLIncOpt is DCLInc with single-pass propagation.
func DCLIncOpt(g *graph.Graph, h *Hierarchy, ci *label.ContractionIndex, updates []WeightUpdate) {
	changes := h.GSInc(g, updates)
	var q bucket.MinQueue[ichItem]
	seedInc(h, ci, changes, func(it ichItem) {
		enqueueAndReduceCount(h, ci, &q, it.v, it.i, it.pathCount)
	})
	for !q.Empty() {
		next := q.Pop()
		cv := ci.GetContractionLabel(next.v).CutIndex
		dists, paths := cv.Distances(), cv.Paths()
		paths[next.i] &^= dirtyFlag
		deltaCount := next.pathCount - paths[next.i]
		for _, u := range h.Nodes[next.v].DownNeighbors {
			x := h.upNeighbor(u, next.v)
			cu := ci.GetContractionLabel(u).CutIndex
			dist := graph.AddDist(x.Distance, dists[next.i])
			if dist != graph.Infinity && dist == cu.Distances()[next.i] {
				enqueueAndReduceCount(h, ci, &q, u, next.i, x.PathCount*deltaCount)
			}
		}
		if paths[next.i] == 0 {
			recomputeSlot(h, ci, next.v, next.i)
		}
	}
}
