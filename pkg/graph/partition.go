package graph

import (
	"math"
	"sort"
)

// Partition is a balanced vertex-cut partition of a subgraph.
type Partition struct {
	Left, Cut, Right []NodeID
}

// Rating scores a partition: larger balanced sides and smaller cuts win.
func (p *Partition) Rating() float64 {
	l, r, c := len(p.Left), len(p.Right), len(p.Cut)
	return float64(min(l, r)) / (float64(c)*float64(c) + 1.0)
}

// diffData holds a node's distances to the two extreme points a and b.
type diffData struct {
	node  NodeID
	distA Distance
	distB Distance
}

func (d diffData) diff() int64 {
	return int64(d.distA) - int64(d.distB)
}

func (d diffData) min() Distance {
	return min(d.distA, d.distB)
}

// getDiffData fills diff with each node's distances to a and b. distA is
// assumed precomputed when preComputed is set (hop counts in both cases; edge
// weights are intentionally ignored for the rough split).
func (g *Graph) getDiffData(a, b NodeID, preComputed bool) []diffData {
	diff := make([]diffData, 0, len(g.nodes))
	if !preComputed {
		g.runBFS(a)
	}
	for _, v := range g.nodes {
		diff = append(diff, diffData{node: v, distA: g.node(v).distance})
	}
	g.runBFS(b)
	for i := range diff {
		diff[i].distB = g.node(diff[i].node).distance
	}
	return diff
}

// cmpSizeDesc orders components largest first.
func cmpSizeDesc(a, b []NodeID) bool { return len(a) > len(b) }

// addToSmaller prepends cc to the smaller of the two sides.
func addToSmaller(pa, pb *[]NodeID, cc []NodeID) {
	if len(*pa) <= len(*pb) {
		*pa = append(cc[:len(cc):len(cc)], *pa...)
	} else {
		*pb = append(cc[:len(cc):len(cc)], *pb...)
	}
}

// getRoughPartition bisects the subgraph by distance difference to two
// extreme points. It reports "fine" when the result is already a minimal
// cut (empty for disconnected splits, or bottleneck-only); otherwise the
// cut must be refined by max-flow.
func (g *Graph) getRoughPartition(p *Partition, balance float64, disconnected bool) bool {
	if disconnected {
		cc := g.connectedComponents()
		if len(cc) > 1 {
			sort.SliceStable(cc, func(i, j int) bool { return cmpSizeDesc(cc[i], cc[j]) })
			// for size zero cuts the balance requirement is loosened
			if float64(len(cc[0])) < float64(len(g.nodes))*(1-balance/2) {
				for _, c := range cc {
					addToSmaller(&p.Left, &p.Right, c)
				}
				return true
			}
			// rough partition over the main component
			mainCC := g.newSubgraph(cc[0])
			isFine := mainCC.getRoughPartition(p, balance, false)
			// reset subgraph ids
			for _, v := range mainCC.nodes {
				g.node(v).subgraphID = g.subgraphID
			}
			if isFine {
				// distribute remaining components
				for _, c := range cc[1:] {
					addToSmaller(&p.Left, &p.Right, c)
				}
			}
			return isFine
		}
	}
	// graph is connected - find two extreme points
	a, _ := g.getFurthest(g.nodes[0], false)
	b, _ := g.getFurthest(a, false)
	diff := g.getDiffData(a, b, true)
	sort.SliceStable(diff, func(i, j int) bool { return diff[i].diff() < diff[j].diff() })
	// partition bounds based on balance; round up if possible
	maxLeft := min(len(g.nodes)/2, int(math.Ceil(float64(len(g.nodes))*balance)))
	minRight := len(g.nodes) - maxLeft
	// corner case: most nodes share the same distance difference
	if diff[maxLeft-1].diff() == diff[minRight].diff() {
		centerDiff := diff[minRight].diff()
		minDist := Infinity
		var bottlenecks []NodeID
		for _, dd := range diff {
			if dd.diff() == centerDiff {
				if dd.min() < minDist {
					minDist = dd.min()
					bottlenecks = bottlenecks[:0]
				}
				if dd.min() == minDist {
					bottlenecks = append(bottlenecks, dd.node)
				}
			}
		}
		sort.Slice(bottlenecks, func(i, j int) bool { return bottlenecks[i] < bottlenecks[j] })
		// try again with the bottlenecks removed
		g.removeNodes(bottlenecks)
		isFine := g.getRoughPartition(p, balance, true)
		// add bottlenecks back to the graph and the cut
		for _, bn := range bottlenecks {
			g.AddNode(bn)
			p.Cut = append(p.Cut, bn)
		}
		// bottlenecks being the only cut vertices means a minimal cut
		return isFine && len(p.Cut) == len(bottlenecks)
	}
	// extend boundaries so the left and right pre-partitions stay connected
	for diff[maxLeft-1].diff() == diff[maxLeft].diff() {
		maxLeft++
	}
	for diff[minRight-1].diff() == diff[minRight].diff() {
		minRight--
	}
	for i, dd := range diff {
		switch {
		case i < maxLeft:
			p.Left = append(p.Left, dd.node)
		case i < minRight:
			p.Cut = append(p.Cut, dd.node)
		default:
			p.Right = append(p.Right, dd.node)
		}
	}
	return false
}

// roughPartitionToCuts refines a rough partition into minimum vertex cuts by
// building an s-t flow graph over the center and the side boundaries.
func (g *Graph) roughPartitionToCuts(p *Partition) [][]NodeID {
	s, t := g.sd.s, g.sd.t
	left := g.newSubgraph(p.Left)
	center := g.newSubgraph(p.Cut)
	right := g.newSubgraph(p.Right)
	center.AddNode(s)
	center.AddNode(t)
	// corner case: edges between the left and right partitions; handled
	// first as it can eliminate other s/t neighbors
	var sNeighbors, tNeighbors []NodeID
	for _, v := range left.nodes {
		for _, n := range g.node(v).neighbors {
			if right.Contains(n.Node) {
				sNeighbors = append(sNeighbors, v)
				tNeighbors = append(tNeighbors, n.Node)
			}
		}
	}
	sNeighbors = makeNodeSet(sNeighbors)
	tNeighbors = makeNodeSet(tNeighbors)
	left.removeNodes(sNeighbors)
	for _, v := range sNeighbors {
		center.AddNode(v)
	}
	right.removeNodes(tNeighbors)
	for _, v := range tNeighbors {
		center.AddNode(v)
	}
	// remaining neighbors of s and t
	for _, v := range left.nodes {
		for _, n := range g.node(v).neighbors {
			if center.Contains(n.Node) {
				sNeighbors = append(sNeighbors, n.Node)
			}
		}
	}
	for _, v := range right.nodes {
		for _, n := range g.node(v).neighbors {
			if center.Contains(n.Node) {
				tNeighbors = append(tNeighbors, n.Node)
			}
		}
	}
	sNeighbors = makeNodeSet(sNeighbors)
	tNeighbors = makeNodeSet(tNeighbors)
	for _, v := range sNeighbors {
		center.AddEdge(s, v, 1, true)
	}
	for _, v := range tNeighbors {
		center.AddEdge(t, v, 1, true)
	}
	cuts := center.minVertexCuts()
	// revert the s-t additions
	for _, v := range tNeighbors {
		nd := g.node(v)
		nd.neighbors = nd.neighbors[:len(nd.neighbors)-1]
	}
	for _, v := range sNeighbors {
		nd := g.node(v)
		nd.neighbors = nd.neighbors[:len(nd.neighbors)-1]
	}
	g.assignNodes()
	return cuts
}

// completePartition rebuilds Left and Right around the chosen cut: the cut is
// removed, each remaining component goes to the currently smaller side.
func (g *Graph) completePartition(p *Partition) {
	p.Cut = makeNodeSet(p.Cut)
	g.removeNodes(p.Cut)
	p.Left, p.Right = nil, nil
	components := g.connectedComponents()
	sort.SliceStable(components, func(i, j int) bool { return cmpSizeDesc(components[i], components[j]) })
	for _, cc := range components {
		addToSmaller(&p.Left, &p.Right, cc)
	}
	for _, v := range p.Cut {
		g.AddNode(v)
	}
}

// createPartition finds a balanced minimum vertex cut of the subgraph.
func (g *Graph) createPartition(p *Partition, balance float64, cfg Config) {
	allowDisconnected := !cfg.Shortcuts
	if g.getRoughPartition(p, balance, allowDisconnected) {
		return
	}
	cuts := g.roughPartitionToCuts(p)
	p.Cut = cuts[0]
	g.completePartition(p)
	for _, cut := range cuts[1:] {
		alt := Partition{Cut: cut}
		g.completePartition(&alt)
		if p.Rating() < alt.Rating() {
			*p = alt
		}
	}
}

// makeNodeSet sorts v and removes duplicates.
func makeNodeSet(v []NodeID) []NodeID {
	if len(v) == 0 {
		return v
	}
	sort.Slice(v, func(i, j int) bool { return v[i] < v[j] })
	last := 0
	for next := 1; next < len(v); next++ {
		if v[next] != v[last] {
			last++
			v[last] = v[next]
		}
	}
	return v[:last+1]
}
