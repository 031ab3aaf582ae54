package graph

import "sort"

// MaxCutLevel is the maximum height of the decomposition tree: 58 bits store
// the binary path, leaving 6 bits for the path length in a 64-bit word.
const MaxCutLevel = 58

// CutIndex is the build-time label of one node: its path through the
// decomposition tree, the level at which it became a cut vertex, per-level
// label offsets, and (once the hierarchy has propagated them) the distances
// and shortest-path counts to every ancestor landmark.
type CutIndex struct {
	// Partition is the path in the decomposition tree; bit i clear means the
	// node went left at level i.
	Partition uint64
	// CutLevel is the depth at which the node became a cut vertex.
	CutLevel uint16
	// DistIndex[i] is the exclusive end offset, within Distances, of the
	// labels contributed by cut level i.
	DistIndex []uint16
	// Distances and Paths hold the level-by-level landmark labels.
	Distances []Distance
	Paths     []uint16
}

// Empty reports whether the node never received a label.
func (ci *CutIndex) Empty() bool { return len(ci.DistIndex) == 0 }

// LabelCount returns the total number of label slots.
func (ci *CutIndex) LabelCount() int {
	if ci.Empty() {
		return 0
	}
	return int(ci.DistIndex[ci.CutLevel])
}

// IsConsistent validates the label invariants. With partial set, checks that
// only hold for completed labels are skipped.
func (ci *CutIndex) IsConsistent(partial bool) bool {
	if ci.CutLevel > MaxCutLevel {
		return false
	}
	if !partial && ci.CutLevel < 64 && ci.Partition >= 1<<ci.CutLevel {
		return false
	}
	if !partial && len(ci.DistIndex) != int(ci.CutLevel)+1 {
		return false
	}
	return sort.SliceIsSorted(ci.DistIndex, func(i, j int) bool { return ci.DistIndex[i] < ci.DistIndex[j] })
}

// levelOffset returns the start offset of the given cut level's labels.
func levelOffset(distIndex []uint16, cutLevel uint16) uint16 {
	if cutLevel == 0 {
		return 0
	}
	return distIndex[cutLevel-1]
}

// cutLevelDistance computes the 2-hop distance between two labels using only
// the slots of the given cut level. Used to identify redundant shortcuts.
func cutLevelDistance(a, b *CutIndex, cutLevel uint16) Distance {
	minDist := Infinity
	aOff := levelOffset(a.DistIndex, cutLevel)
	bOff := levelOffset(b.DistIndex, cutLevel)
	count := min(a.DistIndex[cutLevel]-aOff, b.DistIndex[cutLevel]-bOff)
	for i := uint16(0); i < count; i++ {
		if d := AddDist(a.Distances[aOff+i], b.Distances[bOff+i]); d < minDist {
			minDist = d
		}
	}
	return minDist
}
