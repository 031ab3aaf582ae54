package graph

// The minimum vertex cut treats every node as an (in, out) pair joined by a
// capacity-1 internal edge; routing at most one unit of flow through any
// vertex. Flow is stored on the nodes themselves (inflow/outflow), and the
// BFS/DFS below walk the residual graph implied by those fields.

// flowNode addresses one copy of a split node during flow searches.
type flowNode struct {
	node    NodeID
	outcopy bool
}

// updateDistance lowers *d to dNew, reporting whether it changed.
func updateDistance(d *Distance, dNew Distance) bool {
	if *d > dNew {
		*d = dNew
		return true
	}
	return false
}

// runFlowBFSFromS computes residual-graph distances from s; used to extract
// the s-side minimum cut after the flow is maximal.
func (g *Graph) runFlowBFSFromS() {
	s, t := g.sd.s, g.sd.t
	for _, v := range g.nodes {
		nd := g.node(v)
		nd.distance = Infinity
		nd.outcopyDistance = Infinity
	}
	g.node(t).distance = 0
	g.node(t).outcopyDistance = 0
	var queue []flowNode
	// start with neighbors of s as s requires special flow handling
	for _, n := range g.node(s).neighbors {
		if g.Contains(n.Node) && g.node(n.Node).inflow != s {
			nd := g.node(n.Node)
			nd.distance = 1
			nd.outcopyDistance = 1 // treat inner-node edges as length 0
			queue = append(queue, flowNode{n.Node, false})
		}
	}
	for len(queue) > 0 {
		fn := queue[0]
		queue = queue[1:]
		fnData := g.node(fn.node)
		fnDist := fnData.distance
		if fn.outcopy {
			fnDist = fnData.outcopyDistance
		}
		inflow := fnData.inflow
		if inflow != NoNode && !fn.outcopy {
			// inflow is the only valid neighbor
			if updateDistance(&g.node(inflow).outcopyDistance, fnDist+1) {
				// set the 0-distance copy immediately, otherwise a longer
				// path may set a wrong value first
				updateDistance(&g.node(inflow).distance, fnDist+1)
				queue = append(queue, flowNode{inflow, true})
			}
			continue
		}
		for _, n := range fnData.neighbors {
			if !g.Contains(n.Node) {
				continue
			}
			if n.Node == inflow {
				// following inflow by inverting flow
				if updateDistance(&g.node(n.Node).outcopyDistance, fnDist+1) {
					updateDistance(&g.node(n.Node).distance, fnDist+1)
					queue = append(queue, flowNode{n.Node, true})
				}
			} else {
				if updateDistance(&g.node(n.Node).distance, fnDist+1) {
					if g.node(n.Node).inflow == NoNode {
						updateDistance(&g.node(n.Node).outcopyDistance, fnDist+1)
					}
					queue = append(queue, flowNode{n.Node, false})
				}
			}
		}
	}
}

// runFlowBFSFromT builds the layered BFS tree from t over the inverse
// residual graph; each Dinitz phase augments along it.
func (g *Graph) runFlowBFSFromT() {
	t := g.sd.t
	for _, v := range g.nodes {
		nd := g.node(v)
		nd.distance = Infinity
		nd.outcopyDistance = Infinity
	}
	g.node(t).distance = 0
	g.node(t).outcopyDistance = 0
	var queue []flowNode
	for _, n := range g.node(t).neighbors {
		if g.Contains(n.Node) && g.node(n.Node).outflow != t {
			nd := g.node(n.Node)
			nd.outcopyDistance = 1
			nd.distance = 1
			queue = append(queue, flowNode{n.Node, true})
		}
	}
	for len(queue) > 0 {
		fn := queue[0]
		queue = queue[1:]
		fnData := g.node(fn.node)
		fnDist := fnData.distance
		if fn.outcopy {
			fnDist = fnData.outcopyDistance
		}
		outflow := fnData.outflow
		if outflow != NoNode && fn.outcopy {
			// outflow is the only valid neighbor
			if updateDistance(&g.node(outflow).distance, fnDist+1) {
				updateDistance(&g.node(outflow).outcopyDistance, fnDist+1)
				queue = append(queue, flowNode{outflow, false})
			}
			continue
		}
		for _, n := range fnData.neighbors {
			if !g.Contains(n.Node) {
				continue
			}
			if n.Node == outflow {
				if updateDistance(&g.node(n.Node).distance, fnDist+1) {
					updateDistance(&g.node(n.Node).outcopyDistance, fnDist+1)
					queue = append(queue, flowNode{n.Node, false})
				}
			} else {
				if updateDistance(&g.node(n.Node).outcopyDistance, fnDist+1) {
					if g.node(n.Node).outflow == NoNode {
						updateDistance(&g.node(n.Node).distance, fnDist+1)
					}
					queue = append(queue, flowNode{n.Node, true})
				}
			}
		}
	}
}

// minVertexCuts computes a maximum s-t vertex flow with Dinitz' algorithm and
// extracts up to two minimum cuts: one from reachability from t in the
// inverse residual graph, one from reachability from s in the residual graph.
// The second is dropped when identical to the first.
func (g *Graph) minVertexCuts() [][]NodeID {
	s, t := g.sd.s, g.sd.t
	for _, v := range g.nodes {
		nd := g.node(v)
		nd.inflow = NoNode
		nd.outflow = NoNode
	}
	for {
		g.runFlowBFSFromT()
		sDistance := g.node(s).outcopyDistance
		if sDistance == Infinity {
			break
		}
		// DFS from s along inverse BFS tree edges
		var path []NodeID
		var stack []flowNode
		// iterating over neighbors of s directly simplifies stack cleanup
		// after a new s-t path is found
		for _, sn := range g.node(s).neighbors {
			if !g.Contains(sn.Node) || g.node(sn.Node).distance != sDistance-1 {
				continue
			}
			// edge from s to neighbor must exist in the residual graph
			if g.node(sn.Node).inflow != NoNode {
				continue
			}
			stack = append(stack, flowNode{sn.Node, false})
			for len(stack) > 0 {
				fn := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				fnData := g.node(fn.node)
				fnDist := fnData.distance
				if fn.outcopy {
					fnDist = fnData.outcopyDistance
				}
				// may have been enqueued before an earlier visit erased it
				if fnDist == Infinity {
					continue
				}
				// backtrack the path prefix to this depth
				path = path[:sDistance-fnDist-1]
				if fn.node == t {
					// found an s-t path: route one unit of flow along it
					g.node(path[0]).inflow = s
					for pos := 1; pos < len(path); pos++ {
						from, to := path[pos-1], path[pos]
						// we might be reverting existing flow; from.inflow
						// may have changed already, so check outflow
						if g.node(to).outflow == from {
							g.node(to).outflow = NoNode
							if g.node(from).inflow == to {
								g.node(from).inflow = NoNode
							}
						} else {
							g.node(from).outflow = to
							g.node(to).inflow = from
						}
					}
					g.node(path[len(path)-1]).outflow = t
					// skip to the next neighbor of s
					stack = stack[:0]
					path = path[:0]
					break
				}
				// mark visited for the current DFS iteration
				if fn.outcopy {
					fnData.outcopyDistance = Infinity
				} else {
					fnData.distance = Infinity
				}
				path = append(path, fn.node)
				nextDistance := fnDist - 1
				// at the outgoing copy of a flow node we are inverting the
				// outflow, so all neighbors are valid; otherwise inverting
				// the inflow is the only option
				inflow := fnData.inflow
				if inflow != NoNode && !fn.outcopy {
					if g.node(inflow).outcopyDistance == nextDistance {
						stack = append(stack, flowNode{inflow, true})
					}
					continue
				}
				for _, n := range fnData.neighbors {
					if !g.Contains(n.Node) {
						continue
					}
					if n.Node == inflow {
						if g.node(inflow).outcopyDistance == nextDistance {
							stack = append(stack, flowNode{inflow, true})
						}
					} else {
						if g.node(n.Node).distance == nextDistance {
							stack = append(stack, flowNode{n.Node, false})
						}
					}
				}
			}
		}
	}
	cuts := make([][]NodeID, 1)
	// a node-internal edge is in the cut iff the outgoing copy is reachable
	// from t in the inverse residual graph and the incoming copy is not; for
	// node-external edges, reachable endpoint with unreachable start is only
	// possible when the endpoint is t, making the start the cut vertex
	for _, v := range g.nodes {
		nd := g.node(v)
		if nd.outflow == NoNode {
			continue
		}
		if nd.outcopyDistance < Infinity {
			if nd.distance == Infinity {
				cuts[0] = append(cuts[0], v)
			}
		} else if nd.outflow == t {
			cuts[0] = append(cuts[0], v)
		}
	}
	// same extraction w.r.t. reachability from s in the residual graph
	g.runFlowBFSFromS()
	cuts = append(cuts, nil)
	for _, v := range g.nodes {
		nd := g.node(v)
		if nd.inflow == NoNode {
			continue
		}
		if nd.distance < Infinity {
			if nd.outcopyDistance == Infinity {
				cuts[1] = append(cuts[1], v)
			}
		} else if nd.inflow == s {
			cuts[1] = append(cuts[1], v)
		}
	}
	if nodeSlicesEqual(cuts[0], cuts[1]) {
		cuts = cuts[:1]
	}
	return cuts
}

func nodeSlicesEqual(a, b []NodeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
