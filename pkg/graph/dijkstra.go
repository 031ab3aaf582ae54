package graph

import "sync"

// searchItem is a priority queue entry for the graph searches.
type searchItem struct {
	dist Distance
	node NodeID
}

// searchHeap is a concrete-typed binary min-heap. Avoids the interface
// boxing overhead of container/heap.
type searchHeap struct {
	items []searchItem
}

func (h *searchHeap) Len() int { return len(h.items) }

func (h *searchHeap) Push(node NodeID, dist Distance) {
	h.items = append(h.items, searchItem{dist, node})
	h.siftUp(len(h.items) - 1)
}

func (h *searchHeap) Pop() searchItem {
	top := h.items[0]
	n := len(h.items) - 1
	h.items[0] = h.items[n]
	h.items = h.items[:n]
	if n > 0 {
		h.siftDown(0)
	}
	return top
}

// siftUp uses hole-sift: saves the floating item and does 1 assignment per
// level instead of 3 (swap).
func (h *searchHeap) siftUp(i int) {
	item := h.items[i]
	for i > 0 {
		parent := (i - 1) / 2
		if item.dist >= h.items[parent].dist {
			break
		}
		h.items[i] = h.items[parent]
		i = parent
	}
	h.items[i] = item
}

func (h *searchHeap) siftDown(i int) {
	n := len(h.items)
	item := h.items[i]
	for {
		child := 2*i + 1
		if child >= n {
			break
		}
		if right := child + 1; right < n && h.items[right].dist < h.items[child].dist {
			child = right
		}
		if item.dist <= h.items[child].dist {
			break
		}
		h.items[i] = h.items[child]
		i = child
	}
	h.items[i] = item
}

// RunDijkstra computes distances and shortest-path counts from v into the
// per-node scratch. On equal tentative distance counts accumulate; on strict
// improvement they are replaced.
func (g *Graph) RunDijkstra(v NodeID) {
	for _, w := range g.nodes {
		nd := g.node(w)
		nd.distance = Infinity
		nd.pathCount = 0
	}
	g.node(v).distance = 0
	g.node(v).pathCount = 1
	var q searchHeap
	q.Push(v, 0)
	for q.Len() > 0 {
		next := q.Pop()
		for _, n := range g.node(next.node).neighbors {
			if !g.Contains(n.Node) {
				continue
			}
			nd := g.node(n.Node)
			newDist := next.dist + n.Distance
			if newDist < nd.distance {
				nd.distance = newDist
				nd.pathCount = g.node(next.node).pathCount
				q.Push(n.Node, newDist)
			} else if newDist == nd.distance {
				nd.pathCount += g.node(next.node).pathCount
			}
		}
	}
}

// runDijkstraLLSub is the landmark-pruned subgraph variant: neighbors whose
// landmark level is at least the source's pruning level are skipped, so
// searches from a cut node never pass through earlier landmarks.
func (g *Graph) runDijkstraLLSub(v NodeID) {
	pruningLevel := g.node(v).landmarkLevel
	for _, w := range g.nodes {
		g.node(w).distance = Infinity
	}
	g.node(v).distance = 0
	var q searchHeap
	q.Push(v, 0)
	for q.Len() > 0 {
		next := q.Pop()
		for _, n := range g.node(next.node).neighbors {
			nd := g.node(n.Node)
			if !g.Contains(n.Node) || nd.landmarkLevel >= pruningLevel {
				continue
			}
			newDist := next.dist + n.Distance
			if newDist < nd.distance {
				nd.distance = newDist
				q.Push(n.Node, newDist)
			}
		}
	}
}

// runDijkstraLL tracks, in the lowest bit of each tentative distance, whether
// the path still needs to traverse a landmark of sufficient level. Distances
// are shifted left by one; the bit clears when a qualifying landmark is
// passed. Only used to measure pruning potential.
func (g *Graph) runDijkstraLL(v NodeID) {
	pruningLevel := g.node(v).landmarkLevel
	for _, w := range g.nodes {
		g.node(w).distance = Infinity
	}
	g.node(v).distance = 1
	var q searchHeap
	for _, n := range g.node(v).neighbors {
		if !g.Contains(n.Node) {
			continue
		}
		nDist := (n.Distance << 1) | 1
		g.node(n.Node).distance = nDist
		q.Push(n.Node, nDist)
	}
	for q.Len() > 0 {
		next := q.Pop()
		nextData := g.node(next.node)
		currentDist := next.dist
		if nextData.landmarkLevel >= pruningLevel {
			currentDist &^= 1
		}
		for _, n := range nextData.neighbors {
			if !g.Contains(n.Node) {
				continue
			}
			newDist := currentDist + (n.Distance << 1)
			if newDist < g.node(n.Node).distance {
				g.node(n.Node).distance = newDist
				q.Push(n.Node, newDist)
			}
		}
	}
}

// runDijkstraPar runs one Dijkstra per vertex concurrently, each writing its
// own scratch column. len(vertices) must not exceed maxParallelSearches.
func (g *Graph) runDijkstraPar(vertices []NodeID) {
	var wg sync.WaitGroup
	for id, v := range vertices {
		wg.Add(1)
		go func(v NodeID, id int) {
			defer wg.Done()
			for _, w := range g.nodes {
				g.node(w).distances[id] = Infinity
			}
			g.node(v).distances[id] = 0
			var q searchHeap
			q.Push(v, 0)
			for q.Len() > 0 {
				next := q.Pop()
				for _, n := range g.node(next.node).neighbors {
					if !g.Contains(n.Node) {
						continue
					}
					nd := g.node(n.Node)
					newDist := next.dist + n.Distance
					if newDist < nd.distances[id] {
						nd.distances[id] = newDist
						q.Push(n.Node, newDist)
					}
				}
			}
		}(v, id)
	}
	wg.Wait()
}

// runDijkstraLLSubPar is the parallel form of runDijkstraLLSub.
func (g *Graph) runDijkstraLLSubPar(vertices []NodeID) {
	var wg sync.WaitGroup
	for id, v := range vertices {
		wg.Add(1)
		go func(v NodeID, id int) {
			defer wg.Done()
			pruningLevel := g.node(v).landmarkLevel
			for _, w := range g.nodes {
				g.node(w).distances[id] = Infinity
			}
			g.node(v).distances[id] = 0
			var q searchHeap
			q.Push(v, 0)
			for q.Len() > 0 {
				next := q.Pop()
				for _, n := range g.node(next.node).neighbors {
					nd := g.node(n.Node)
					if !g.Contains(n.Node) || nd.landmarkLevel >= pruningLevel {
						continue
					}
					newDist := next.dist + n.Distance
					if newDist < nd.distances[id] {
						nd.distances[id] = newDist
						q.Push(n.Node, newDist)
					}
				}
			}
		}(v, id)
	}
	wg.Wait()
}

// runDijkstraLLPar is the parallel form of runDijkstraLL.
func (g *Graph) runDijkstraLLPar(vertices []NodeID) {
	var wg sync.WaitGroup
	for id, v := range vertices {
		wg.Add(1)
		go func(v NodeID, id int) {
			defer wg.Done()
			pruningLevel := g.node(v).landmarkLevel
			for _, w := range g.nodes {
				g.node(w).distances[id] = Infinity
			}
			g.node(v).distances[id] = 1
			var q searchHeap
			for _, n := range g.node(v).neighbors {
				if !g.Contains(n.Node) {
					continue
				}
				nDist := (n.Distance << 1) | 1
				g.node(n.Node).distances[id] = nDist
				q.Push(n.Node, nDist)
			}
			for q.Len() > 0 {
				next := q.Pop()
				nextData := g.node(next.node)
				currentDist := next.dist
				if nextData.landmarkLevel >= pruningLevel {
					currentDist &^= 1
				}
				for _, n := range nextData.neighbors {
					if !g.Contains(n.Node) {
						continue
					}
					newDist := currentDist + (n.Distance << 1)
					if newDist < g.node(n.Node).distances[id] {
						g.node(n.Node).distances[id] = newDist
						q.Push(n.Node, newDist)
					}
				}
			}
		}(v, id)
	}
	wg.Wait()
}

// runBFS computes hop-count distances from v.
func (g *Graph) runBFS(v NodeID) {
	for _, w := range g.nodes {
		g.node(w).distance = Infinity
	}
	g.node(v).distance = 0
	queue := []NodeID{v}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		newDist := g.node(next).distance + 1
		for _, n := range g.node(next).neighbors {
			if g.Contains(n.Node) && g.node(n.Node).distance == Infinity {
				g.node(n.Node).distance = newDist
				queue = append(queue, n.Node)
			}
		}
	}
}

// GetDistance returns the shortest-path distance from v to w.
func (g *Graph) GetDistance(v, w NodeID, weighted bool) Distance {
	if weighted {
		g.RunDijkstra(v)
	} else {
		g.runBFS(v)
	}
	return g.node(w).distance
}

// GetPathCount returns the number of shortest paths from v to w.
func (g *Graph) GetPathCount(v, w NodeID) uint16 {
	g.RunDijkstra(v)
	return g.node(w).pathCount
}

// getFurthest returns the node furthest from v and its distance.
func (g *Graph) getFurthest(v NodeID, weighted bool) (NodeID, Distance) {
	if weighted {
		g.RunDijkstra(v)
	} else {
		g.runBFS(v)
	}
	furthest := v
	for _, w := range g.nodes {
		if g.node(w).distance > g.node(furthest).distance {
			furthest = w
		}
	}
	return furthest, g.node(furthest).distance
}

// FurthestPair iterates furthest-node hops until the distance stops growing,
// approximating the graph diameter endpoints.
func (g *Graph) FurthestPair(weighted bool) Edge {
	var maxDist Distance
	start := g.nodes[0]
	furthest, dist := g.getFurthest(start, weighted)
	for dist > maxDist {
		maxDist = dist
		start = furthest
		furthest, dist = g.getFurthest(start, weighted)
	}
	return Edge{A: start, B: furthest, D: maxDist}
}

// Diameter approximates the graph diameter via FurthestPair.
func (g *Graph) Diameter(weighted bool) Distance {
	if len(g.nodes) < 2 {
		return 0
	}
	return g.FurthestPair(weighted).D
}
