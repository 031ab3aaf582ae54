// Package graph implements the mutable road-network store used by the index
// builder: adjacency lists with per-node scratch, tag-based subgraph views,
// the Dijkstra/BFS/flow searches, the balanced vertex-cut partitioner and the
// recursive cut labeler.
package graph

import (
	"math"
	"runtime"
	"sort"
	"sync/atomic"
)

// NodeID identifies a node; 0 is reserved as the nil node. The two highest
// IDs of the store are reserved as the virtual source and sink for flow
// computations.
type NodeID uint32

// Distance is an edge weight or path length. Infinity means unreachable.
type Distance uint32

const (
	// NoNode is the nil NodeID.
	NoNode NodeID = 0

	// Infinity is the unreachable distance; arithmetic saturates at it.
	Infinity Distance = math.MaxUint32

	noSubgraph uint32 = 0

	// maxParallelSearches bounds how many Dijkstra sources run concurrently,
	// each writing into its own per-node scratch column.
	maxParallelSearches = 8
)

// AddDist adds two distances, saturating at Infinity.
func AddDist(a, b Distance) Distance {
	if a == Infinity || b == Infinity {
		return Infinity
	}
	return a + b
}

// Neighbor is one adjacency entry: the far endpoint, the edge weight, and the
// number of shortest paths the entry represents (1 for original edges).
type Neighbor struct {
	Node      NodeID
	Distance  Distance
	PathCount uint16
}

// Edge is an undirected edge, used for bulk construction and serialization.
type Edge struct {
	A, B NodeID
	D    Distance
}

// Config selects the optional build features. The zero value (no shortcuts,
// no landmark pruning) is the profile used for shortest-path-count indexes:
// shortcut edges alias paths through ancestor landmarks and would inflate
// counts.
type Config struct {
	// Shortcuts inserts cross-boundary shortcut edges into child subgraphs
	// during decomposition, allowing queries to compare only LCA-level slots.
	Shortcuts bool
	// LandmarkPruning reorders each cut by measured pruning potential.
	LandmarkPruning bool
}

// node holds adjacency plus the per-node scratch shared by all algorithms.
// Each build pass uses a disjoint subset of the scratch fields.
type node struct {
	neighbors []Neighbor

	subgraphID uint32

	// Dijkstra / BFS scratch.
	distance  Distance
	pathCount uint16

	// Flow scratch: distance of the outgoing node copy, and the routed unit
	// of flow through this vertex.
	outcopyDistance Distance
	inflow, outflow NodeID

	// Landmark level within the current cut (0 = not a landmark).
	landmarkLevel uint16

	// Per-source columns for parallel Dijkstra.
	distances [maxParallelSearches]Distance
}

// shared is the node store backing every subgraph view of one build.
type shared struct {
	nodeData []node // indexed by NodeID; 0 unused, s and t routed per view
	s, t     NodeID

	threadThreshold int
	nextSubgraph    atomic.Uint32
}

// Graph is a (sub)graph view over a shared node store. The top-level graph
// owns the store; recursive decomposition creates child views that tag their
// node subset. Each view carries its own scratch for the virtual s/t nodes so
// concurrent recursions never share flow state.
type Graph struct {
	sd         *shared
	subgraphID uint32
	nodes      []NodeID

	sData, tData node
}

// NewGraph creates a graph with nodes 1..nodeCount and no edges.
func NewGraph(nodeCount int) *Graph {
	sd := &shared{
		nodeData: make([]node, nodeCount+3),
		s:        NodeID(nodeCount + 1),
		t:        NodeID(nodeCount + 2),
	}
	workers := runtime.GOMAXPROCS(0)
	sd.threadThreshold = max(nodeCount/workers, 1000)
	g := &Graph{sd: sd}
	g.subgraphID = sd.nextSubgraph.Add(1)
	g.nodes = make([]NodeID, 0, nodeCount)
	for v := NodeID(1); v <= NodeID(nodeCount); v++ {
		g.nodes = append(g.nodes, v)
		sd.nodeData[v].subgraphID = g.subgraphID
	}
	return g
}

// NewGraphEdges creates a graph from an explicit edge list.
func NewGraphEdges(nodeCount int, edges []Edge) *Graph {
	g := NewGraph(nodeCount)
	for _, e := range edges {
		g.AddEdge(e.A, e.B, e.D, true)
	}
	return g
}

// newSubgraph creates a view over the given nodes, tagging them.
func (g *Graph) newSubgraph(nodes []NodeID) *Graph {
	sub := &Graph{sd: g.sd, nodes: nodes}
	sub.subgraphID = g.sd.nextSubgraph.Add(1)
	sub.assignNodes()
	return sub
}

// node routes s and t to the view-local scratch, everything else to the
// shared store.
func (g *Graph) node(v NodeID) *node {
	if v == g.sd.s {
		return &g.sData
	}
	if v == g.sd.t {
		return &g.tData
	}
	return &g.sd.nodeData[v]
}

// Contains reports whether v belongs to this subgraph view.
func (g *Graph) Contains(v NodeID) bool {
	return g.node(v).subgraphID == g.subgraphID
}

// assignNodes re-tags all view nodes, repairing tags after algorithms that
// temporarily untag (component discovery, flow-graph construction).
func (g *Graph) assignNodes() {
	for _, v := range g.nodes {
		g.node(v).subgraphID = g.subgraphID
	}
}

// AddEdge inserts the edge v→w (and w→v when undirected is set). Duplicate
// edges collapse to the minimum weight.
func (g *Graph) AddEdge(v, w NodeID, d Distance, undirected bool) {
	nv := g.node(v)
	exists := false
	for i := range nv.neighbors {
		if nv.neighbors[i].Node == w {
			exists = true
			nv.neighbors[i].Distance = min(nv.neighbors[i].Distance, d)
			break
		}
	}
	if !exists {
		nv.neighbors = append(nv.neighbors, Neighbor{Node: w, Distance: d, PathCount: 1})
	}
	if undirected {
		g.AddEdge(w, v, d, false)
	}
}

// RemoveEdge deletes the edge between v and w in both directions.
func (g *Graph) RemoveEdge(v, w NodeID) {
	nv := g.node(v)
	nv.neighbors = deleteNeighbor(nv.neighbors, w)
	nw := g.node(w)
	nw.neighbors = deleteNeighbor(nw.neighbors, v)
}

func deleteNeighbor(ns []Neighbor, w NodeID) []Neighbor {
	out := ns[:0]
	for _, n := range ns {
		if n.Node != w {
			out = append(out, n)
		}
	}
	return out
}

// UpdateEdge sets the weight of the directed entry v→w. Callers updating an
// undirected edge call it for both directions.
func (g *Graph) UpdateEdge(v, w NodeID, d Distance) {
	nv := g.node(v)
	for i := range nv.neighbors {
		if nv.neighbors[i].Node == w {
			nv.neighbors[i].Distance = d
			break
		}
	}
}

// EdgeWeight returns the weight of the edge v→w, or Infinity if absent.
func (g *Graph) EdgeWeight(v, w NodeID) Distance {
	for _, n := range g.node(v).neighbors {
		if n.Node == w {
			return n.Distance
		}
	}
	return Infinity
}

// RemoveIsolated drops all nodes without edges from the view.
func (g *Graph) RemoveIsolated() {
	kept := g.nodes[:0]
	for _, v := range g.nodes {
		if len(g.node(v).neighbors) == 0 {
			g.node(v).subgraphID = noSubgraph
		} else {
			kept = append(kept, v)
		}
	}
	g.nodes = kept
}

// Reset rebuilds the view from every node with adjacency, reclaiming nodes
// that deeper recursion levels or contraction removed from it.
func (g *Graph) Reset() {
	g.nodes = g.nodes[:0]
	for v := NodeID(1); int(v) < len(g.sd.nodeData)-2; v++ {
		if len(g.sd.nodeData[v].neighbors) > 0 {
			g.nodes = append(g.nodes, v)
			g.sd.nodeData[v].subgraphID = g.subgraphID
		}
	}
	g.sData.subgraphID = noSubgraph
	g.tData.subgraphID = noSubgraph
}

// AddNode appends v to the view.
func (g *Graph) AddNode(v NodeID) {
	g.nodes = append(g.nodes, v)
	g.node(v).subgraphID = g.subgraphID
}

// removeNodes drops the given sorted node set from the view.
func (g *Graph) removeNodes(set []NodeID) {
	if len(set) == 0 {
		return
	}
	kept := g.nodes[:0]
	for _, v := range g.nodes {
		i := sort.Search(len(set), func(i int) bool { return set[i] >= v })
		if i < len(set) && set[i] == v {
			g.node(v).subgraphID = noSubgraph
		} else {
			kept = append(kept, v)
		}
	}
	g.nodes = kept
}

// NodeCount returns the number of nodes in the view.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// SuperNodeCount returns the capacity of the underlying store (the largest
// usable NodeID), independent of the current view.
func (g *Graph) SuperNodeCount() int { return len(g.sd.nodeData) - 3 }

// Nodes returns the view's node list. Callers must not mutate it.
func (g *Graph) Nodes() []NodeID { return g.nodes }

// EdgeCount returns the number of undirected edges within the view.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, v := range g.nodes {
		for _, n := range g.node(v).neighbors {
			if g.Contains(n.Node) {
				count++
			}
		}
	}
	return count / 2
}

// Degree returns the number of in-view neighbors of v.
func (g *Graph) Degree(v NodeID) int {
	deg := 0
	for _, n := range g.node(v).neighbors {
		if g.Contains(n.Node) {
			deg++
		}
	}
	return deg
}

// singleNeighbor returns v's unique in-view neighbor, or a NoNode entry when
// v has zero or multiple neighbors.
func (g *Graph) singleNeighbor(v NodeID) Neighbor {
	found := Neighbor{Node: NoNode}
	for _, n := range g.node(v).neighbors {
		if g.Contains(n.Node) {
			if found.Node != NoNode {
				return Neighbor{Node: NoNode}
			}
			found = n
		}
	}
	return found
}

// Edges collects the view's undirected edges, each reported once with A < B.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, a := range g.nodes {
		for _, n := range g.node(a).neighbors {
			if n.Node > a && g.Contains(n.Node) {
				edges = append(edges, Edge{A: a, B: n.Node, D: n.Distance})
			}
		}
	}
	return edges
}

// Neighbors calls fn for every in-view neighbor of v.
func (g *Graph) Neighbors(v NodeID, fn func(Neighbor)) {
	for _, n := range g.node(v).neighbors {
		if g.Contains(n.Node) {
			fn(n)
		}
	}
}

// sortNeighbors orders every adjacency list by node ID, making the
// decomposition deterministic.
func (g *Graph) sortNeighbors() {
	for _, v := range g.nodes {
		ns := g.node(v).neighbors
		sort.Slice(ns, func(i, j int) bool { return ns[i].Node < ns[j].Node })
	}
}

// IsUndirected verifies that every edge has a matching reverse entry.
func (g *Graph) IsUndirected() bool {
	for _, v := range g.nodes {
		for _, n := range g.node(v).neighbors {
			found := false
			for _, nn := range g.node(n.Node).neighbors {
				if nn.Node == v && nn.Distance == n.Distance {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// IsConsistent checks that the view's tags agree with its node list.
func (g *Graph) IsConsistent() bool {
	for _, v := range g.nodes {
		if g.node(v).subgraphID != g.subgraphID {
			return false
		}
	}
	count := 0
	for v := NodeID(1); int(v) < len(g.sd.nodeData)-2; v++ {
		if g.sd.nodeData[v].subgraphID == g.subgraphID {
			count++
		}
	}
	if g.sData.subgraphID == g.subgraphID {
		count++
	}
	if g.tData.subgraphID == g.subgraphID {
		count++
	}
	return count == len(g.nodes)
}
