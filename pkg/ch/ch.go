// Package ch builds the contraction hierarchy over the labeling order,
// propagates the 2-hop distance and count labels through it, and maintains
// both hierarchy and labels under edge-weight updates.
package ch

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"runtime"
	"sort"

	"road_index/pkg/bucket"
	"road_index/pkg/graph"
)

// Aliases for the base graph types.
type (
	NodeID   = graph.NodeID
	Distance = graph.Distance
)

// ContractedRank marks nodes removed by pendant contraction; they have no
// hierarchy entry.
const ContractedRank uint16 = 65535

const maxWorkers = 8

// CHNode is one node of the hierarchy: its rank, the upward edges (toward
// lower ranks, each carrying distance and shortest-path count) and the IDs of
// nodes whose upward edges point here.
type CHNode struct {
	DistIndex     uint16
	UpNeighbors   []graph.Neighbor
	DownNeighbors []NodeID
}

// Hierarchy is the contraction hierarchy over all uncontracted nodes.
type Hierarchy struct {
	Nodes []CHNode
}

// upNeighbor returns the upward edge from v to w, or nil if absent.
func (h *Hierarchy) upNeighbor(v, w NodeID) *graph.Neighbor {
	ns := h.Nodes[v].UpNeighbors
	for i := range ns {
		if ns[i].Node == w {
			return &ns[i]
		}
	}
	return nil
}

// EdgeCount returns the number of upward edges.
func (h *Hierarchy) EdgeCount() int {
	total := 0
	for i := range h.Nodes {
		total += len(h.Nodes[i].UpNeighbors)
	}
	return total
}

// Size returns the serialized size of the hierarchy in bytes.
func (h *Hierarchy) Size() int {
	total := 8
	for i := 1; i < len(h.Nodes); i++ {
		total += 2
		if h.Nodes[i].DistIndex == ContractedRank {
			continue
		}
		total += 16 + 10*len(h.Nodes[i].UpNeighbors) + 4*len(h.Nodes[i].DownNeighbors)
	}
	return total
}

// Build constructs the hierarchy from the decomposition skeleton and fills in
// every node's distance and count labels. closest maps contracted nodes to
// their pendant parents (nil treats all nodes as uncontracted). The labels in
// ci are overwritten: each uncontracted node receives one slot per ancestor
// rank, relaxed bottom-up through the upward edges.
func Build(g *graph.Graph, ci []graph.CutIndex, closest []graph.Neighbor) *Hierarchy {
	h := &Hierarchy{Nodes: make([]CHNode, g.SuperNodeCount()+1)}
	for i := range h.Nodes {
		h.Nodes[i].DistIndex = ContractedRank
	}
	isRoot := func(v NodeID) bool {
		return closest == nil || closest[v].Node == v
	}
	bottomUp := make([]NodeID, 0, len(g.Nodes()))
	for _, v := range g.Nodes() {
		if !isRoot(v) {
			continue
		}
		// a root whose whole component collapsed into it has no label slots
		// and nothing to rank; its pendants answer through offsets alone
		if ci[v].DistIndex[ci[v].CutLevel] == 0 {
			continue
		}
		bottomUp = append(bottomUp, v)
		rank := ci[v].DistIndex[ci[v].CutLevel] - 1
		h.Nodes[v].DistIndex = rank
		// reserve the ancestor slots; the bottom-up pass fills them
		ci[v].Distances = make([]Distance, rank)
		ci[v].Paths = make([]uint16, rank)
		for i := range ci[v].Distances {
			ci[v].Distances[i] = graph.Infinity
		}
	}

	// seed with the upward graph edges
	for _, v := range bottomUp {
		g.Neighbors(v, func(n graph.Neighbor) {
			if isRoot(n.Node) && h.Nodes[n.Node].DistIndex < h.Nodes[v].DistIndex {
				h.Nodes[v].UpNeighbors = append(h.Nodes[v].UpNeighbors,
					graph.Neighbor{Node: n.Node, Distance: n.Distance, PathCount: 1})
				ci[v].Distances[h.Nodes[n.Node].DistIndex] = n.Distance
				ci[v].Paths[h.Nodes[n.Node].DistIndex] = 1
			}
		})
	}

	// add hierarchy shortcuts bottom-up: all relaxations at a rank complete
	// before any lower rank is processed
	sort.Slice(bottomUp, func(i, j int) bool {
		a, b := bottomUp[i], bottomUp[j]
		if h.Nodes[a].DistIndex != h.Nodes[b].DistIndex {
			return h.Nodes[a].DistIndex > h.Nodes[b].DistIndex
		}
		return a < b
	})
	for _, v := range bottomUp {
		up := dedupUpNeighbors(h, h.Nodes[v].UpNeighbors)
		h.Nodes[v].UpNeighbors = up
		for i := 0; i+1 < len(up); i++ {
			for j := i + 1; j < len(up); j++ {
				weight := up[i].Distance + up[j].Distance
				count := up[i].PathCount * up[j].PathCount
				ui := up[i].Node
				slot := h.Nodes[up[j].Node].DistIndex
				switch {
				case weight < ci[ui].Distances[slot]:
					h.Nodes[ui].UpNeighbors = append(h.Nodes[ui].UpNeighbors,
						graph.Neighbor{Node: up[j].Node, Distance: weight, PathCount: count})
					ci[ui].Distances[slot] = weight
					ci[ui].Paths[slot] = count
				case weight == ci[ui].Distances[slot]:
					ci[ui].Paths[slot] += count
					h.Nodes[ui].UpNeighbors = append(h.Nodes[ui].UpNeighbors,
						graph.Neighbor{Node: up[j].Node, Distance: weight, PathCount: ci[ui].Paths[slot]})
				}
			}
		}
		for _, upn := range up {
			h.Nodes[upn.Node].DownNeighbors = append(h.Nodes[upn.Node].DownNeighbors, v)
		}
	}
	// the increase maintenance intersects down-neighbor lists by merge
	for _, v := range bottomUp {
		downs := h.Nodes[v].DownNeighbors
		sort.Slice(downs, func(i, j int) bool { return downs[i] < downs[j] })
	}

	// propagate labels in ascending rank order: a node composes each upward
	// edge with the (already final) label of its target
	var list bucket.ParList[NodeID]
	for _, v := range bottomUp {
		list.Push(v, int(h.Nodes[v].DistIndex))
	}
	workers := min(runtime.GOMAXPROCS(0), maxWorkers)
	list.Drain(workers, func(x NodeID) {
		for _, n := range h.Nodes[x].UpNeighbors {
			nl := &ci[n.Node]
			for anc := 0; anc < int(h.Nodes[n.Node].DistIndex); anc++ {
				dist := graph.AddDist(n.Distance, nl.Distances[anc])
				if dist == graph.Infinity {
					continue
				}
				count := n.PathCount * nl.Paths[anc]
				if dist < ci[x].Distances[anc] {
					ci[x].Distances[anc] = dist
					ci[x].Paths[anc] = count
				} else if dist == ci[x].Distances[anc] {
					ci[x].Paths[anc] += count
				}
			}
		}
		ci[x].Distances = append(ci[x].Distances, 0)
		ci[x].Paths = append(ci[x].Paths, 1)
	})
	return h
}

// dedupUpNeighbors collapses duplicate upward edges, keeping per target the
// minimum distance and, for equal distances, the accumulated count.
func dedupUpNeighbors(h *Hierarchy, up []graph.Neighbor) []graph.Neighbor {
	if len(up) < 2 {
		return up
	}
	sort.Slice(up, func(i, j int) bool {
		di, dj := h.Nodes[up[i].Node].DistIndex, h.Nodes[up[j].Node].DistIndex
		if di != dj {
			return di > dj
		}
		if up[i].Distance != up[j].Distance {
			return up[i].Distance < up[j].Distance
		}
		return up[i].PathCount > up[j].PathCount
	})
	last := 0
	for next := 1; next < len(up); next++ {
		if up[next].Node != up[last].Node {
			last++
			up[last] = up[next]
		}
	}
	return up[:last+1]
}

// Write serializes the hierarchy: per node its rank, then the upward edges
// with distance and count, then the down-neighbor IDs.
func (h *Hierarchy) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(len(h.Nodes)))
	if _, err := bw.Write(scratch[:]); err != nil {
		return fmt.Errorf("write node count: %w", err)
	}
	for i := 1; i < len(h.Nodes); i++ {
		n := &h.Nodes[i]
		binary.LittleEndian.PutUint16(scratch[:2], n.DistIndex)
		if _, err := bw.Write(scratch[:2]); err != nil {
			return fmt.Errorf("write node %d: %w", i, err)
		}
		if n.DistIndex == ContractedRank {
			continue
		}
		binary.LittleEndian.PutUint64(scratch[:], uint64(len(n.UpNeighbors)))
		if _, err := bw.Write(scratch[:]); err != nil {
			return fmt.Errorf("write node %d: %w", i, err)
		}
		for _, up := range n.UpNeighbors {
			binary.LittleEndian.PutUint32(scratch[:4], uint32(up.Node))
			binary.LittleEndian.PutUint32(scratch[4:8], uint32(up.Distance))
			if _, err := bw.Write(scratch[:8]); err != nil {
				return fmt.Errorf("write node %d: %w", i, err)
			}
			binary.LittleEndian.PutUint16(scratch[:2], up.PathCount)
			if _, err := bw.Write(scratch[:2]); err != nil {
				return fmt.Errorf("write node %d: %w", i, err)
			}
		}
		binary.LittleEndian.PutUint64(scratch[:], uint64(len(n.DownNeighbors)))
		if _, err := bw.Write(scratch[:]); err != nil {
			return fmt.Errorf("write node %d: %w", i, err)
		}
		for _, down := range n.DownNeighbors {
			binary.LittleEndian.PutUint32(scratch[:4], uint32(down))
			if _, err := bw.Write(scratch[:4]); err != nil {
				return fmt.Errorf("write node %d: %w", i, err)
			}
		}
	}
	return bw.Flush()
}

const maxCHNodes = 100_000_000

// ReadHierarchy deserializes a hierarchy written by Write.
func ReadHierarchy(r io.Reader) (*Hierarchy, error) {
	br := bufio.NewReader(r)
	var scratch [8]byte
	if _, err := io.ReadFull(br, scratch[:]); err != nil {
		return nil, fmt.Errorf("read node count: %w", err)
	}
	nodeCount := binary.LittleEndian.Uint64(scratch[:])
	if nodeCount == 0 || nodeCount > maxCHNodes {
		return nil, fmt.Errorf("node count %d out of range", nodeCount)
	}
	h := &Hierarchy{Nodes: make([]CHNode, nodeCount)}
	for i := 1; i < int(nodeCount); i++ {
		n := &h.Nodes[i]
		if _, err := io.ReadFull(br, scratch[:2]); err != nil {
			return nil, fmt.Errorf("read node %d: %w", i, err)
		}
		n.DistIndex = binary.LittleEndian.Uint16(scratch[:2])
		if n.DistIndex == ContractedRank {
			continue
		}
		if _, err := io.ReadFull(br, scratch[:]); err != nil {
			return nil, fmt.Errorf("read node %d: %w", i, err)
		}
		upCount := binary.LittleEndian.Uint64(scratch[:])
		if upCount > nodeCount {
			return nil, fmt.Errorf("node %d: upward edge count %d out of range", i, upCount)
		}
		n.UpNeighbors = make([]graph.Neighbor, upCount)
		for j := range n.UpNeighbors {
			if _, err := io.ReadFull(br, scratch[:8]); err != nil {
				return nil, fmt.Errorf("read node %d: %w", i, err)
			}
			n.UpNeighbors[j].Node = NodeID(binary.LittleEndian.Uint32(scratch[:4]))
			n.UpNeighbors[j].Distance = Distance(binary.LittleEndian.Uint32(scratch[4:8]))
			if _, err := io.ReadFull(br, scratch[:2]); err != nil {
				return nil, fmt.Errorf("read node %d: %w", i, err)
			}
			n.UpNeighbors[j].PathCount = binary.LittleEndian.Uint16(scratch[:2])
		}
		if _, err := io.ReadFull(br, scratch[:]); err != nil {
			return nil, fmt.Errorf("read node %d: %w", i, err)
		}
		downCount := binary.LittleEndian.Uint64(scratch[:])
		if downCount > nodeCount {
			return nil, fmt.Errorf("node %d: down neighbor count %d out of range", i, downCount)
		}
		n.DownNeighbors = make([]NodeID, downCount)
		for j := range n.DownNeighbors {
			if _, err := io.ReadFull(br, scratch[:4]); err != nil {
				return nil, fmt.Errorf("read node %d: %w", i, err)
			}
			n.DownNeighbors[j] = NodeID(binary.LittleEndian.Uint32(scratch[:4]))
		}
	}
	return h, nil
}
