package label

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"road_index/pkg/graph"
)

const maxIndexNodes = 100_000_000

// ContractionLabel is one node's query-time label. Contracted nodes carry a
// nonzero DistanceOffset (their distance to the pendant-tree representative)
// and share the representative's cut index.
type ContractionLabel struct {
	CutIndex       *FlatCutIndex
	DistanceOffset Distance
	Parent         NodeID
}

// Size returns the serialized footprint of the label; shared cut-index data
// is only counted on its owner.
func (cl *ContractionLabel) Size() int {
	if cl.DistanceOffset != 0 {
		return 8
	}
	total := 12
	if cl.CutIndex != nil {
		total += cl.CutIndex.Size()
	}
	return total
}

// ContractionIndex answers distance, shortest-path-count and hoplink queries
// from the flattened labels.
type ContractionIndex struct {
	labels []ContractionLabel
	// compare only LCA-level slots; valid when the index was built with
	// shortcut edges
	shortcutQueries bool
}

// NewContractionIndex flattens the build-time labels. closest maps each node
// to its pendant parent (see graph.Contract); a nil closest treats every node
// as uncontracted. The config must match the one the labels were built with.
func NewContractionIndex(ci []graph.CutIndex, closest []graph.Neighbor, cfg graph.Config) *ContractionIndex {
	index := &ContractionIndex{
		labels:          make([]ContractionLabel, len(ci)),
		shortcutQueries: cfg.Shortcuts,
	}
	if closest == nil {
		for node := 1; node < len(ci); node++ {
			if !ci[node].Empty() {
				index.labels[node].CutIndex = NewFlatCutIndex(&ci[node])
			}
		}
		return index
	}
	// representatives own their label data
	for node := 1; node < len(closest); node++ {
		if closest[node].Node == NodeID(node) {
			index.labels[node].CutIndex = NewFlatCutIndex(&ci[node])
		}
	}
	// pendant nodes share their root's data; isolated nodes stay empty
	for node := 1; node < len(closest); node++ {
		n := closest[node]
		if n.Node == NodeID(node) || n.Node == graph.NoNode {
			continue
		}
		root := n.Node
		rootDist := n.Distance
		for closest[root].Node != root {
			rootDist += closest[root].Distance
			root = closest[root].Node
		}
		index.labels[node].CutIndex = index.labels[root].CutIndex
		index.labels[node].DistanceOffset = rootDist
		index.labels[node].Parent = n.Node
	}
	return index
}

// NodeCount returns the number of indexed nodes.
func (x *ContractionIndex) NodeCount() int { return len(x.labels) - 1 }

// GetContractionLabel returns v's label. The cut index is shared, so slot
// mutations through it are visible index-wide.
func (x *ContractionIndex) GetContractionLabel(v NodeID) ContractionLabel {
	return x.labels[v]
}

// UpdateDistanceOffset sets v's pendant distance offset.
func (x *ContractionIndex) UpdateDistanceOffset(v NodeID, d Distance) {
	x.labels[v].DistanceOffset = d
}

// IsContracted reports whether v was removed by pendant contraction.
func (x *ContractionIndex) IsContracted(v NodeID) bool {
	return x.labels[v].Parent != graph.NoNode
}

// GetDistance returns the shortest-path distance between v and w.
func (x *ContractionIndex) GetDistance(v, w NodeID) Distance {
	cv, cw := x.labels[v], x.labels[w]
	if cv.CutIndex == cw.CutIndex {
		// same pendant tree: distances run along the tree
		if v == w {
			return 0
		}
		if cv.DistanceOffset == 0 {
			return cw.DistanceOffset
		}
		if cw.DistanceOffset == 0 {
			return cv.DistanceOffset
		}
		if cv.Parent == w {
			return cv.DistanceOffset - cw.DistanceOffset
		}
		if cw.Parent == v {
			return cw.DistanceOffset - cv.DistanceOffset
		}
		// walk up from the deeper node until the ancestors meet; offsets
		// strictly decrease toward the root
		vAnc, wAnc := v, w
		cvAnc, cwAnc := cv, cw
		for vAnc != wAnc {
			switch {
			case cvAnc.DistanceOffset < cwAnc.DistanceOffset:
				wAnc = cwAnc.Parent
				cwAnc = x.labels[wAnc]
			case cvAnc.DistanceOffset > cwAnc.DistanceOffset:
				vAnc = cvAnc.Parent
				cvAnc = x.labels[vAnc]
			default:
				vAnc = cvAnc.Parent
				wAnc = cwAnc.Parent
				cvAnc = x.labels[vAnc]
				cwAnc = x.labels[wAnc]
			}
		}
		return cv.DistanceOffset + cw.DistanceOffset - 2*cvAnc.DistanceOffset
	}
	return graph.AddDist(cv.DistanceOffset+cw.DistanceOffset, x.getDistance(cv.CutIndex, cw.CutIndex))
}

// GetSPC returns the number of distinct shortest paths between v and w. The
// pendant path is unique when both share a representative.
func (x *ContractionIndex) GetSPC(v, w NodeID) uint16 {
	cv, cw := x.labels[v], x.labels[w]
	if cv.CutIndex == cw.CutIndex {
		return 1
	}
	return getPaths(cv.CutIndex, cw.CutIndex)
}

// GetHoplinks returns the number of label comparisons a query makes.
func (x *ContractionIndex) GetHoplinks(v, w NodeID) int {
	cv, cw := x.labels[v].CutIndex, x.labels[w].CutIndex
	if cv == cw {
		return 0
	}
	cutLevel := LCALevel(cv.pbv, cw.pbv)
	if x.shortcutQueries {
		return cutLevelHoplinks(cv, cw, cutLevel)
	}
	hoplinks := 0
	for cl := uint16(0); cl <= cutLevel; cl++ {
		hoplinks += cutLevelHoplinks(cv, cw, cl)
	}
	return hoplinks
}

// AvgHoplinks averages GetHoplinks over a query batch.
func (x *ContractionIndex) AvgHoplinks(queries [][2]NodeID) float64 {
	hopCount := 0
	for _, q := range queries {
		hopCount += x.GetHoplinks(q[0], q[1])
	}
	return float64(hopCount) / float64(len(queries))
}

// cutLevelDistance finds the min 2-hop distance using one level's slots.
func cutLevelDistance(a, b *FlatCutIndex, cutLevel uint16) Distance {
	minDist := graph.Infinity
	aOff, bOff := a.offset(cutLevel), b.offset(cutLevel)
	count := min(a.distIndex[cutLevel]-aOff, b.distIndex[cutLevel]-bOff)
	for i := uint16(0); i < count; i++ {
		if d := graph.AddDist(a.distances[aOff+i], b.distances[bOff+i]); d < minDist {
			minDist = d
		}
	}
	return minDist
}

func cutLevelHoplinks(a, b *FlatCutIndex, cutLevel uint16) int {
	return min(a.CutSize(cutLevel), b.CutSize(cutLevel))
}

// getDistance computes the 2-hop distance between two labels. With shortcut
// edges in the index the LCA-level slots alone hold the minimum; otherwise
// the whole common prefix is scanned.
func (x *ContractionIndex) getDistance(a, b *FlatCutIndex) Distance {
	cutLevel := LCALevel(a.pbv, b.pbv)
	if x.shortcutQueries {
		return cutLevelDistance(a, b, cutLevel)
	}
	minDist := graph.Infinity
	count := min(a.distIndex[cutLevel], b.distIndex[cutLevel])
	for i := uint16(0); i < count; i++ {
		if d := graph.AddDist(a.distances[i], b.distances[i]); d < minDist {
			minDist = d
		}
	}
	return minDist
}

// getPaths computes the shortest-path count: the sum of slot count products
// over all slots achieving the minimum distance.
func getPaths(a, b *FlatCutIndex) uint16 {
	cutLevel := LCALevel(a.pbv, b.pbv)
	minDist := graph.Infinity
	var spc uint16
	count := min(a.distIndex[cutLevel], b.distIndex[cutLevel])
	for i := uint16(0); i < count; i++ {
		d := graph.AddDist(a.distances[i], b.distances[i])
		c := a.paths[i] * b.paths[i]
		if d < minDist {
			minDist = d
			spc = c
		} else if d == minDist && d != graph.Infinity {
			spc += c
		}
	}
	return spc
}

// UncontractedCount returns the number of nodes that kept their own label.
func (x *ContractionIndex) UncontractedCount() int {
	total := 0
	for node := 1; node < len(x.labels); node++ {
		if !x.IsContracted(NodeID(node)) {
			total++
		}
	}
	return total
}

// Size returns the total serialized index size in bytes.
func (x *ContractionIndex) Size() int {
	total := 8
	for node := 1; node < len(x.labels); node++ {
		total += x.labels[node].Size()
	}
	return total
}

// Height returns the maximum cut level over all labels.
func (x *ContractionIndex) Height() uint16 {
	var maxLevel uint16
	for node := 1; node < len(x.labels); node++ {
		if ci := x.labels[node].CutIndex; ci != nil {
			maxLevel = max(maxLevel, ci.CutLevel())
		}
	}
	return maxLevel
}

// MaxCutSize returns the largest bottom-cut slot count over all labels.
func (x *ContractionIndex) MaxCutSize() int {
	maxCut := 0
	for node := 1; node < len(x.labels); node++ {
		if ci := x.labels[node].CutIndex; ci != nil {
			maxCut = max(maxCut, ci.BottomCutSize())
		}
	}
	return maxCut
}

// LabelCount returns the total number of owned label slots.
func (x *ContractionIndex) LabelCount() int {
	total := 0
	for node := 1; node < len(x.labels); node++ {
		if x.labels[node].CutIndex != nil && x.labels[node].DistanceOffset == 0 {
			total += x.labels[node].CutIndex.LabelCount()
		}
	}
	return total
}

// MaxLabelCount returns the largest slot count over all labels.
func (x *ContractionIndex) MaxLabelCount() int {
	maxCount := 0
	for node := 1; node < len(x.labels); node++ {
		if ci := x.labels[node].CutIndex; ci != nil {
			maxCount = max(maxCount, ci.LabelCount())
		}
	}
	return maxCount
}

// AvgCutSize returns the average slot count per cut over all labels.
func (x *ContractionIndex) AvgCutSize() float64 {
	var cutSum, labelCount float64
	for node := 1; node < len(x.labels); node++ {
		if ci := x.labels[node].CutIndex; ci != nil {
			cutSum += float64(ci.CutLevel()) + 1
			labelCount += float64(ci.LabelCount())
		}
	}
	return labelCount / max(1.0, cutSum)
}

// Write serializes the index: node count, then per node the distance offset
// followed by either the raw label buffer or the pendant parent.
func (x *ContractionIndex) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(len(x.labels)-1))
	if _, err := bw.Write(scratch[:]); err != nil {
		return fmt.Errorf("write node count: %w", err)
	}
	var buf []byte
	for node := 1; node < len(x.labels); node++ {
		cl := x.labels[node]
		binary.LittleEndian.PutUint32(scratch[:4], uint32(cl.DistanceOffset))
		if _, err := bw.Write(scratch[:4]); err != nil {
			return fmt.Errorf("write node %d: %w", node, err)
		}
		if cl.DistanceOffset == 0 {
			buf = buf[:0]
			if cl.CutIndex != nil {
				buf = cl.CutIndex.appendTo(buf)
			}
			binary.LittleEndian.PutUint64(scratch[:], uint64(len(buf)))
			if _, err := bw.Write(scratch[:]); err != nil {
				return fmt.Errorf("write node %d: %w", node, err)
			}
			if _, err := bw.Write(buf); err != nil {
				return fmt.Errorf("write node %d: %w", node, err)
			}
		} else {
			binary.LittleEndian.PutUint32(scratch[:4], uint32(cl.Parent))
			if _, err := bw.Write(scratch[:4]); err != nil {
				return fmt.Errorf("write node %d: %w", node, err)
			}
		}
	}
	return bw.Flush()
}

// ReadContractionIndex deserializes an index written by Write. Contracted
// nodes resolve their representative through parent pointers and share its
// label buffer. The config must match the one the index was built with.
func ReadContractionIndex(r io.Reader, cfg graph.Config) (*ContractionIndex, error) {
	br := bufio.NewReader(r)
	var scratch [8]byte
	if _, err := io.ReadFull(br, scratch[:]); err != nil {
		return nil, fmt.Errorf("read node count: %w", err)
	}
	nodeCount := binary.LittleEndian.Uint64(scratch[:])
	if nodeCount == 0 || nodeCount > maxIndexNodes {
		return nil, fmt.Errorf("node count %d out of range", nodeCount)
	}
	x := &ContractionIndex{
		labels:          make([]ContractionLabel, nodeCount+1),
		shortcutQueries: cfg.Shortcuts,
	}
	for node := 1; node <= int(nodeCount); node++ {
		if _, err := io.ReadFull(br, scratch[:4]); err != nil {
			return nil, fmt.Errorf("read node %d: %w", node, err)
		}
		offset := Distance(binary.LittleEndian.Uint32(scratch[:4]))
		x.labels[node].DistanceOffset = offset
		if offset == 0 {
			if _, err := io.ReadFull(br, scratch[:]); err != nil {
				return nil, fmt.Errorf("read node %d: %w", node, err)
			}
			dataSize := binary.LittleEndian.Uint64(scratch[:])
			if dataSize == 0 {
				continue
			}
			ci, err := readFlatCutIndex(br, dataSize)
			if err != nil {
				return nil, fmt.Errorf("read node %d: %w", node, err)
			}
			x.labels[node].CutIndex = ci
		} else {
			if _, err := io.ReadFull(br, scratch[:4]); err != nil {
				return nil, fmt.Errorf("read node %d: %w", node, err)
			}
			x.labels[node].Parent = NodeID(binary.LittleEndian.Uint32(scratch[:4]))
		}
	}
	// resolve shared label references
	for node := 1; node <= int(nodeCount); node++ {
		if x.labels[node].DistanceOffset != 0 {
			root := x.labels[node].Parent
			for x.labels[root].DistanceOffset != 0 {
				root = x.labels[root].Parent
			}
			x.labels[node].CutIndex = x.labels[root].CutIndex
		}
	}
	return x, nil
}
