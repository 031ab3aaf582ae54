package graph

import (
	"slices"
	"sort"
	"sync"
)

// halfMatrixIndex flattens an unordered node pair into a half-matrix offset.
func halfMatrixIndex(a, b int) int {
	if a < b {
		return (b*(b-1))>>1 + a
	}
	return (a*(a-1))>>1 + b
}

// addShortcuts inserts, into this child subgraph, edges reflecting paths that
// leave it through the parent cut and re-enter. Only non-redundant shortcuts
// are added: a shortcut (i,j) is dropped when some third border node k
// already realizes its distance.
func (g *Graph) addShortcuts(cut []NodeID, ci []CutIndex) {
	// border: neighbors of the cut within this subgraph
	var border []NodeID
	for _, c := range cut {
		for _, n := range g.node(c).neighbors {
			if g.Contains(n.Node) {
				border = append(border, n.Node)
			}
		}
	}
	border = makeNodeSet(border)
	if len(border) == 0 {
		return
	}
	// distances to the cut nodes are already in the index at this level
	cutLevel := ci[cut[0]].CutLevel
	// distances between border nodes, inside the subgraph and in the parent
	// graph (the latter via the already-labeled cut)
	var dPartition, dGraph []Distance
	if len(g.nodes) > g.sd.threadThreshold {
		for offset := 0; offset < len(border); {
			nextOffset := min(offset+maxParallelSearches, len(border))
			batch := border[offset:nextOffset]
			g.runDijkstraPar(batch)
			for id := range batch {
				ni := border[id+offset]
				for j := 0; j < id+offset; j++ {
					nj := border[j]
					dij := g.node(nj).distances[id]
					dPartition = append(dPartition, dij)
					dCut := cutLevelDistance(&ci[ni], &ci[nj], cutLevel)
					dGraph = append(dGraph, min(dij, dCut))
				}
			}
			offset = nextOffset
		}
	} else {
		for i := 1; i < len(border); i++ {
			ni := border[i]
			g.RunDijkstra(ni)
			for j := 0; j < i; j++ {
				nj := border[j]
				dij := g.node(nj).distance
				dPartition = append(dPartition, dij)
				dCut := cutLevelDistance(&ci[ni], &ci[nj], cutLevel)
				dGraph = append(dGraph, min(dij, dCut))
			}
		}
	}
	// separate pass: dGraph must be complete for the redundancy check
	idx := 0
	for i := 1; i < len(border); i++ {
		for j := 0; j < i; j++ {
			dgij := dGraph[idx]
			if dPartition[idx] > dgij {
				redundant := false
				for k := range border {
					if k == i || k == j {
						continue
					}
					if AddDist(dGraph[halfMatrixIndex(i, k)], dGraph[halfMatrixIndex(k, j)]) == dgij {
						redundant = true
						break
					}
				}
				if !redundant {
					g.AddEdge(border[i], border[j], dgij, true)
				}
			}
			idx++
		}
	}
}

// computeCutLabels fills, for every subgraph node, the current level's
// distance labels to each landmark, in landmark order. Searches are pruned so
// paths never pass an earlier landmark. These labels exist to drive the
// shortcut redundancy check; the hierarchy construction later rebuilds all
// labels from scratch.
func (g *Graph) computeCutLabels(ci []CutIndex, cut []NodeID) {
	cutSize := uint16(len(cut))
	appendBatch := func(offset, count int, column func(v NodeID, id int) Distance) {
		for id := 0; id < count; id++ {
			needLevel := cutSize - uint16(offset+id)
			for _, v := range g.nodes {
				ll := g.node(v).landmarkLevel
				if ll == 0 || ll <= needLevel {
					ci[v].Distances = append(ci[v].Distances, column(v, id))
				}
			}
		}
	}
	if len(g.nodes) > g.sd.threadThreshold {
		for offset := 0; offset < len(cut); {
			nextOffset := min(offset+maxParallelSearches, len(cut))
			batch := cut[offset:nextOffset]
			g.runDijkstraLLSubPar(batch)
			appendBatch(offset, len(batch), func(v NodeID, id int) Distance {
				return g.node(v).distances[id]
			})
			offset = nextOffset
		}
	} else {
		for c := range cut {
			g.runDijkstraLLSub(cut[c])
			appendBatch(c, 1, func(v NodeID, _ int) Distance {
				return g.node(v).distance
			})
		}
	}
}

// sortCutForPruning reorders a cut by measured pruning potential: for each
// landmark, the number of shortest paths that still require it.
func (g *Graph) sortCutForPruning(cut []NodeID) {
	type potential struct {
		count int
		node  NodeID
	}
	potentials := make([]potential, len(cut))
	for c, v := range cut {
		potentials[c] = potential{node: v}
		g.node(v).landmarkLevel = 1
	}
	if len(g.nodes) > g.sd.threadThreshold {
		for offset := 0; offset < len(cut); {
			nextOffset := min(offset+maxParallelSearches, len(cut))
			batch := cut[offset:nextOffset]
			g.runDijkstraLLPar(batch)
			for id := range batch {
				for _, v := range g.nodes {
					if g.node(v).distances[id]&1 == 0 {
						potentials[offset+id].count++
					}
				}
			}
			offset = nextOffset
		}
	} else {
		for c := range cut {
			g.runDijkstraLL(cut[c])
			for _, v := range g.nodes {
				if g.node(v).distance&1 == 0 {
					potentials[c].count++
				}
			}
		}
	}
	sort.Slice(potentials, func(i, j int) bool {
		if potentials[i].count != potentials[j].count {
			return potentials[i].count < potentials[j].count
		}
		return potentials[i].node < potentials[j].node
	})
	for c := range cut {
		cut[c] = potentials[c].node
	}
}

// extendOnPartition recurses into one side of a partition.
func (g *Graph) extendOnPartition(ci []CutIndex, balance float64, cutLevel uint16, part, cut []NodeID, cfg Config) {
	if len(part) > 1 {
		sub := g.newSubgraph(part)
		if cfg.Shortcuts {
			sub.addShortcuts(cut, ci)
		}
		sub.extendCutIndex(ci, balance, cutLevel+1, cfg)
	} else if len(part) == 1 {
		// a single remaining node forms its own cut one level down
		v := part[0]
		ci[v].CutLevel = cutLevel + 1
		ci[v].DistIndex = append(ci[v].DistIndex, ci[v].DistIndex[cutLevel]+1)
		if cfg.Shortcuts {
			ci[v].Distances = append(ci[v].Distances, 0)
		}
	}
}

// extendCutIndex performs one level of the recursive cut decomposition on the
// current subgraph: partition, assign landmark levels and label offsets, then
// recurse on both sides. Left recursion runs on its own goroutine for
// subgraphs above the threading threshold.
func (g *Graph) extendCutIndex(ci []CutIndex, balance float64, cutLevel uint16, cfg Config) {
	if len(g.nodes) < 2 {
		for _, v := range g.nodes {
			ci[v].CutLevel = 0
			ci[v].DistIndex = append(ci[v].DistIndex, 0)
		}
		return
	}
	var p Partition
	if cutLevel < MaxCutLevel {
		g.createPartition(&p, balance, cfg)
	} else {
		p.Cut = slices.Clone(g.nodes)
	}
	if cfg.LandmarkPruning {
		g.sortCutForPruning(p.Cut)
	}
	for c, v := range p.Cut {
		g.node(v).landmarkLevel = uint16(len(p.Cut) - c)
	}
	// extend label offsets: a cut node at position c needs c+1 slots at this
	// level (its own zero entry last), every other node needs |cut| slots
	for _, v := range g.nodes {
		prev := uint16(0)
		if cutLevel > 0 {
			prev = ci[v].DistIndex[cutLevel-1]
		}
		if ll := g.node(v).landmarkLevel; ll == 0 {
			ci[v].DistIndex = append(ci[v].DistIndex, prev+uint16(len(p.Cut)))
		} else {
			ci[v].DistIndex = append(ci[v].DistIndex, prev+uint16(len(p.Cut))-ll+1)
		}
	}
	for _, c := range p.Cut {
		ci[c].CutLevel = cutLevel
	}
	for _, v := range p.Right {
		ci[v].Partition |= 1 << cutLevel
	}
	if cfg.Shortcuts {
		g.computeCutLabels(ci, p.Cut)
	}
	for _, c := range p.Cut {
		g.node(c).landmarkLevel = 0
	}
	if len(g.nodes) > g.sd.threadThreshold {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.extendOnPartition(ci, balance, cutLevel, p.Left, p.Cut, cfg)
		}()
		g.extendOnPartition(ci, balance, cutLevel, p.Right, p.Cut, cfg)
		wg.Wait()
	} else {
		g.extendOnPartition(ci, balance, cutLevel, p.Left, p.Cut, cfg)
		g.extendOnPartition(ci, balance, cutLevel, p.Right, p.Cut, cfg)
	}
}

// CreateCutIndex runs the full recursive decomposition, producing the
// build-time label skeleton for every node. The returned slice is indexed by
// NodeID; distance and count labels are filled in afterwards by the
// contraction hierarchy construction.
func (g *Graph) CreateCutIndex(balance float64, cfg Config) []CutIndex {
	// deterministic neighbor order makes partitioning reproducible
	g.sortNeighbors()
	originalNodes := slices.Clone(g.nodes)
	ci := make([]CutIndex, len(g.sd.nodeData)-2)
	for _, v := range g.nodes {
		ci[v].DistIndex = make([]uint16, 0, 32)
	}
	g.extendCutIndex(ci, balance, 0, cfg)
	// top-level cut vertices were removed during recursion
	g.nodes = originalNodes
	g.assignNodes()
	return ci
}
