package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPBVFromRoundTrip(t *testing.T) {
	cases := []struct {
		partition uint64
		length    uint16
	}{
		{0, 0},
		{0, 1},
		{1, 1},
		{0b101, 3},
		{0b11010, 5},
		{1<<58 - 1, 58},
	}
	for _, c := range cases {
		bv := PBVFrom(c.partition, c.length)
		assert.Equal(t, c.length, bv.CutLevel(), "length of (%b,%d)", c.partition, c.length)
		if c.length > 0 {
			assert.Equal(t, c.partition&(1<<c.length-1), bv.Partition(), "bits of (%b,%d)", c.partition, c.length)
		}
	}
}

func TestPBVEmptyPath(t *testing.T) {
	bv := PBVFrom(0b1111, 0)
	assert.Equal(t, PBV(0), bv)
	assert.Equal(t, uint16(0), bv.CutLevel())
	assert.Equal(t, uint64(0), bv.Partition())
}

func TestLCALevel(t *testing.T) {
	// siblings split at level 2: bits 0 and 1 agree, bit 2 differs
	a := PBVFrom(0b000, 3)
	b := PBVFrom(0b100, 3)
	assert.Equal(t, uint16(2), LCALevel(a, b))
	// identical paths: capped by the shallower cut level
	assert.Equal(t, uint16(2), LCALevel(PBVFrom(0b00, 2), PBVFrom(0b000, 3)))
	// differ at the first bit
	assert.Equal(t, uint16(0), LCALevel(PBVFrom(0b1, 1), PBVFrom(0b0, 1)))
	// root against anything
	assert.Equal(t, uint16(0), LCALevel(PBVFrom(0, 0), PBVFrom(0b10, 2)))
}

func TestLCAAndAncestorInvariants(t *testing.T) {
	// enumerate all paths up to length 6 and check P9 pairwise
	var all []PBV
	for length := uint16(0); length <= 6; length++ {
		for bits := uint64(0); bits < 1<<length; bits++ {
			all = append(all, PBVFrom(bits, length))
		}
	}
	for _, x := range all {
		require.True(t, IsAncestor(x, x), "every node is its own ancestor")
		for _, y := range all {
			lca := LCA(x, y)
			require.True(t, IsAncestor(lca, x), "lca(%064b,%064b) not ancestor of x", x, y)
			require.True(t, IsAncestor(lca, y), "lca(%064b,%064b) not ancestor of y", x, y)
			require.LessOrEqual(t, LCALevel(x, y), min(x.CutLevel(), y.CutLevel()))
			require.Equal(t, LCALevel(x, y), LCALevel(y, x))
			require.Equal(t, LCA(x, y), LCA(y, x))
			if IsAncestor(x, y) && IsAncestor(y, x) {
				require.Equal(t, x, y)
			}
		}
	}
}

func TestIsAncestorPrefix(t *testing.T) {
	anc := PBVFrom(0b01, 2)
	assert.True(t, IsAncestor(anc, PBVFrom(0b101, 3)))
	assert.True(t, IsAncestor(anc, PBVFrom(0b01, 2)))
	assert.False(t, IsAncestor(anc, PBVFrom(0b110, 3)))
	assert.False(t, IsAncestor(PBVFrom(0b101, 3), anc))
}
