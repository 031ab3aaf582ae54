// Package label holds the query-time index structures: the packed partition
// bitvector, the flattened per-node labels, and the ContractionIndex query
// surface with its binary serialization.
package label

import (
	"math/bits"

	"road_index/pkg/graph"
)

// Aliases for the base graph types, which the labels are expressed in.
type (
	NodeID   = graph.NodeID
	Distance = graph.Distance
)

// PBV packs a node's decomposition-tree path and cut level into one 64-bit
// word: the 6 low bits store the cut level, the high 58 bits the path.
type PBV uint64

// PBVFrom packs a partition bitstring of the given length. Length zero
// encodes the empty path specially.
func PBVFrom(partition uint64, length uint16) PBV {
	if length == 0 {
		return 0
	}
	return PBV(partition<<(64-length)>>(58-length) | uint64(length))
}

// Partition returns the packed path bits.
func (bv PBV) Partition() uint64 { return uint64(bv) >> 6 }

// CutLevel returns the path length.
func (bv PBV) CutLevel() uint16 { return uint16(bv & 63) }

// LCALevel returns the cut level of the lowest common ancestor of two nodes
// in the decomposition tree: the lowest level at which their paths differ,
// capped by both cut levels.
func LCALevel(bv1, bv2 PBV) uint16 {
	lca := min(bv1.CutLevel(), bv2.CutLevel())
	p1, p2 := bv1.Partition(), bv2.Partition()
	if p1 != p2 {
		if diff := uint16(bits.TrailingZeros64(p1 ^ p2)); diff < lca {
			lca = diff
		}
	}
	return lca
}

// LCA returns the packed path of the lowest common ancestor.
func LCA(bv1, bv2 PBV) PBV {
	cutLevel := LCALevel(bv1, bv2)
	// shifting by 64 does not work
	if cutLevel == 0 {
		return 0
	}
	return PBV(uint64(bv1)>>6<<(64-cutLevel)>>(58-cutLevel) | uint64(cutLevel))
}

// IsAncestor reports whether ancestor's path is a prefix of descendant's.
func IsAncestor(ancestor, descendant PBV) bool {
	cla, cld := ancestor.CutLevel(), descendant.CutLevel()
	// shifting by 64 does not work, so cla == 0 is checked separately
	return cla == 0 || (cla <= cld && uint64(ancestor^descendant)>>6<<(64-cla) == 0)
}
