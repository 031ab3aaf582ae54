package ch

import (
	"sort"

	"road_index/pkg/graph"
)

// WeightUpdate is one edge-weight change applied to the graph: the edge
// (A,B) moves from weight Old to weight New.
type WeightUpdate struct {
	Old, New Distance
	A, B     NodeID
}

// EdgeChange is one changed hierarchy edge, reported by the GS routines and
// consumed by the label maintenance. For decreases Distance/PathCount are the
// new values; for increases they are the invalidated old values.
type EdgeChange struct {
	V, W      NodeID
	Distance  Distance
	PathCount uint16
}

// gsItem is a pending hierarchy-edge candidate, ordered by the rank of its
// higher endpoint.
type gsItem struct {
	distIndex uint16
	v, w      NodeID
	distance  Distance
	pathCount uint16
}

// gsHeap pops the largest distIndex first, so candidates resolve bottom-up.
type gsHeap struct {
	items []gsItem
}

func (h *gsHeap) Len() int { return len(h.items) }

func (h *gsHeap) Push(item gsItem) {
	h.items = append(h.items, item)
	i := len(h.items) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if item.distIndex <= h.items[parent].distIndex {
			break
		}
		h.items[i] = h.items[parent]
		i = parent
	}
	h.items[i] = item
}

func (h *gsHeap) Pop() gsItem {
	top := h.items[0]
	n := len(h.items) - 1
	item := h.items[n]
	h.items = h.items[:n]
	i := 0
	for {
		child := 2*i + 1
		if child >= n {
			break
		}
		if right := child + 1; right < n && h.items[right].distIndex > h.items[child].distIndex {
			child = right
		}
		if item.distIndex >= h.items[child].distIndex {
			break
		}
		h.items[i] = h.items[child]
		i = child
	}
	if n > 0 {
		h.items[i] = item
	}
	return top
}

// mergeEdges sorts the change set and collapses duplicate edges, keeping the
// minimum distance and summing counts on ties.
func mergeEdges(c []EdgeChange) []EdgeChange {
	if len(c) < 2 {
		return c
	}
	sort.Slice(c, func(i, j int) bool {
		if c[i].V != c[j].V {
			return c[i].V < c[j].V
		}
		if c[i].W != c[j].W {
			return c[i].W < c[j].W
		}
		if c[i].Distance != c[j].Distance {
			return c[i].Distance < c[j].Distance
		}
		return c[i].PathCount < c[j].PathCount
	})
	last := 0
	for next := 1; next < len(c); next++ {
		if c[next].V == c[last].V && c[next].W == c[last].W {
			if c[next].Distance < c[last].Distance {
				c[last].Distance = c[next].Distance
				c[last].PathCount = c[next].PathCount
			} else if c[next].Distance == c[last].Distance {
				c[last].PathCount += c[next].PathCount
			}
		} else {
			last++
			c[last] = c[next]
		}
	}
	return c[:last+1]
}

// GSDec repairs the hierarchy after weight decreases: candidate shortcut
// improvements cascade through a max-rank queue, and every changed edge is
// collected for the label maintenance.
func (h *Hierarchy) GSDec(updates []WeightUpdate) []EdgeChange {
	var q gsHeap
	for _, u := range updates {
		a, b := u.A, u.B
		if h.Nodes[a].DistIndex < h.Nodes[b].DistIndex {
			a, b = b, a
		}
		if x := h.upNeighbor(a, b); x != nil && x.Distance >= u.New {
			q.Push(gsItem{h.Nodes[a].DistIndex, a, b, u.New, 1})
		}
	}
	var changes []EdgeChange
	for q.Len() > 0 {
		next := q.Pop()
		x := h.upNeighbor(next.v, next.w)
		if next.distance < x.Distance {
			x.Distance = next.distance
			x.PathCount = next.pathCount
		} else if next.distance == x.Distance {
			x.PathCount += next.pathCount
		} else {
			continue
		}
		for _, n := range h.Nodes[next.v].UpNeighbors {
			if n.Node == next.w {
				continue
			}
			dist := next.distance + n.Distance
			count := next.pathCount * n.PathCount
			a, b := next.w, n.Node
			if h.Nodes[a].DistIndex < h.Nodes[b].DistIndex {
				a, b = b, a
			}
			if y := h.upNeighbor(a, b); y != nil && y.Distance >= dist {
				q.Push(gsItem{h.Nodes[a].DistIndex, a, b, dist, count})
			}
		}
		changes = append(changes, EdgeChange{next.v, next.w, next.distance, next.pathCount})
	}
	return mergeEdges(changes)
}

// GSInc repairs the hierarchy after weight increases. Edges whose stored
// distance matched an invalidated path lose the corresponding count; edges
// losing their last path are recomputed from the base edge and all shared
// down-neighbors. The change set reports the invalidated old values.
func (h *Hierarchy) GSInc(g *graph.Graph, updates []WeightUpdate) []EdgeChange {
	var q gsHeap
	for _, u := range updates {
		a, b := u.A, u.B
		if h.Nodes[a].DistIndex < h.Nodes[b].DistIndex {
			a, b = b, a
		}
		if x := h.upNeighbor(a, b); x != nil && x.Distance == u.Old {
			q.Push(gsItem{h.Nodes[a].DistIndex, a, b, u.Old, 1})
		}
	}
	var changes []EdgeChange
	for q.Len() > 0 {
		next := q.Pop()
		for _, n := range h.Nodes[next.v].UpNeighbors {
			if n.Node == next.w {
				continue
			}
			dist := next.distance + n.Distance
			count := next.pathCount * n.PathCount
			a, b := next.w, n.Node
			if h.Nodes[a].DistIndex < h.Nodes[b].DistIndex {
				a, b = b, a
			}
			if y := h.upNeighbor(a, b); y != nil && y.Distance == dist {
				q.Push(gsItem{h.Nodes[a].DistIndex, a, b, dist, count})
			}
		}
		x := h.upNeighbor(next.v, next.w)
		if x.PathCount > next.pathCount {
			x.PathCount -= next.pathCount
		} else {
			// recompute from scratch: base edge plus all two-edge paths
			// through shared down-neighbors
			x.Distance = graph.Infinity
			x.PathCount = 1
			if w := g.EdgeWeight(next.v, next.w); w != graph.Infinity {
				x.Distance = w
			}
			downsV := h.Nodes[next.v].DownNeighbors
			downsW := h.Nodes[next.w].DownNeighbors
			i, j := 0, 0
			for i < len(downsV) && j < len(downsW) {
				a, b := downsV[i], downsW[j]
				switch {
				case a < b:
					i++
				case b < a:
					j++
				default:
					av := h.upNeighbor(a, next.v)
					aw := h.upNeighbor(a, next.w)
					dist := av.Distance + aw.Distance
					count := av.PathCount * aw.PathCount
					if dist < x.Distance {
						x.Distance = dist
						x.PathCount = count
					} else if dist == x.Distance {
						x.PathCount += count
					}
					i++
					j++
				}
			}
		}
		changes = append(changes, EdgeChange{next.v, next.w, next.distance, next.pathCount})
	}
	return mergeEdges(changes)
}
