package graph

import "sort"

// Contract repeatedly peels degree-1 nodes off the graph, recording for each
// removed node its pendant parent and edge weight. Both endpoints of an edge
// are never collapsed, so every pendant tree keeps its representative in the
// graph. The returned slice maps each node to its parent; representatives map
// to themselves with distance 0, removed isolated nodes to NoNode.
func (g *Graph) Contract() []Neighbor {
	closest := make([]Neighbor, len(g.sd.nodeData)-2)
	for _, v := range g.nodes {
		closest[v] = Neighbor{Node: v}
	}
	findDegreeOne := func(candidates []NodeID) (degreeOne, parents []NodeID) {
		for _, v := range candidates {
			if !g.Contains(v) {
				continue
			}
			n := g.singleNeighbor(v)
			if n.Node != NoNode && g.singleNeighbor(n.Node).Node == NoNode {
				closest[v] = n
				degreeOne = append(degreeOne, v)
				parents = append(parents, n.Node)
			}
		}
		return
	}
	degreeOne, parents := findDegreeOne(g.nodes)
	for len(degreeOne) > 0 {
		sort.Slice(degreeOne, func(i, j int) bool { return degreeOne[i] < degreeOne[j] })
		g.removeNodes(degreeOne)
		degreeOne, parents = findDegreeOne(parents)
	}
	return closest
}
