package graph

// connectedComponents collects the view's connected components. Visited nodes
// are temporarily untagged, then the view's tags are repaired.
func (g *Graph) connectedComponents() [][]NodeID {
	var components [][]NodeID
	for _, start := range g.nodes {
		if !g.Contains(start) {
			continue
		}
		g.node(start).subgraphID = noSubgraph
		var cc, stack []NodeID
		stack = append(stack, start)
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cc = append(cc, v)
			for _, n := range g.node(v).neighbors {
				if g.Contains(n.Node) {
					g.node(n.Node).subgraphID = noSubgraph
					stack = append(stack, n.Node)
				}
			}
		}
		components = append(components, cc)
	}
	g.assignNodes()
	return components
}
