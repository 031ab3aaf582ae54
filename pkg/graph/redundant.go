package graph

// RedundantEdges finds edges that are not needed for any shortest path: an
// edge (v,w) is redundant when another path of at most the same length
// connects v and w. Uses a localized Dijkstra per node, bounded by the
// heaviest incident edge.
func (g *Graph) RedundantEdges() []Edge {
	var edges []Edge
	for _, v := range g.nodes {
		g.node(v).distance = Infinity
	}
	var visited []NodeID
	for _, v := range g.nodes {
		g.node(v).distance = 0
		visited = append(visited[:0], v)
		var maxDist Distance
		var q searchHeap
		// starting from the neighbors ensures only paths of length 2+ count
		for _, n := range g.node(v).neighbors {
			if g.Contains(n.Node) {
				q.Push(n.Node, n.Distance)
				if v < n.Node && n.Distance > maxDist {
					maxDist = n.Distance
				}
			}
		}
		for q.Len() > 0 {
			next := q.Pop()
			for _, n := range g.node(next.node).neighbors {
				if !g.Contains(n.Node) {
					continue
				}
				newDist := next.dist + n.Distance
				if newDist <= maxDist && newDist < g.node(n.Node).distance {
					g.node(n.Node).distance = newDist
					q.Push(n.Node, newDist)
					visited = append(visited, n.Node)
				}
			}
		}
		for _, n := range g.node(v).neighbors {
			// report each redundant edge once
			if v < n.Node && g.Contains(n.Node) && g.node(n.Node).distance <= n.Distance {
				edges = append(edges, Edge{A: v, B: n.Node, D: n.Distance})
			}
		}
		for _, w := range visited {
			g.node(w).distance = Infinity
		}
	}
	return edges
}
