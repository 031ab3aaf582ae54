package label

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road_index/pkg/graph"
)

func testCutIndex() graph.CutIndex {
	return graph.CutIndex{
		Partition: 0b10,
		CutLevel:  2,
		DistIndex: []uint16{2, 3, 5},
		Distances: []graph.Distance{7, 9, 4, 6, 0},
		Paths:     []uint16{1, 2, 1, 3, 1},
	}
}

func TestFlatCutIndexLayout(t *testing.T) {
	ci := testCutIndex()
	f := NewFlatCutIndex(&ci)
	assert.Equal(t, uint16(2), f.CutLevel())
	assert.Equal(t, uint64(0b10), f.Partition())
	assert.Equal(t, 5, f.LabelCount())
	assert.Equal(t, 2, f.CutSize(0))
	assert.Equal(t, 1, f.CutSize(1))
	assert.Equal(t, 2, f.CutSize(2))
	assert.Equal(t, 2, f.BottomCutSize())
	// 8 (pbv) + 6 (dist index) padded to 8, + 5*4 + 5*2
	assert.Equal(t, 8+8+20+10, f.Size())
}

func TestFlatCutIndexSerializeParse(t *testing.T) {
	ci := testCutIndex()
	f := NewFlatCutIndex(&ci)
	buf := f.appendTo(nil)
	require.Equal(t, f.Size(), len(buf))
	// parse back through the record reader
	parsed, err := readFlatCutIndex(bytes.NewReader(buf), uint64(len(buf)))
	require.NoError(t, err)
	assert.Equal(t, f.pbv, parsed.pbv)
	assert.Equal(t, f.distIndex, parsed.distIndex)
	assert.Equal(t, f.distances, parsed.distances)
	assert.Equal(t, f.paths, parsed.paths)
}

func TestPendantTreeDistances(t *testing.T) {
	// hand-built pendant tree rooted at 3: 1 -(1)- 2 -(2)- 3 -(5)- 4
	ci := make([]graph.CutIndex, 5)
	ci[3] = graph.CutIndex{CutLevel: 0, DistIndex: []uint16{1}, Distances: []graph.Distance{0}, Paths: []uint16{1}}
	closest := []graph.Neighbor{
		{}, // node 0 unused
		{Node: 2, Distance: 1},
		{Node: 3, Distance: 2},
		{Node: 3},
		{Node: 3, Distance: 5},
	}
	index := NewContractionIndex(ci, closest, graph.Config{})

	assert.Equal(t, graph.Distance(0), index.GetDistance(2, 2))
	assert.Equal(t, graph.Distance(1), index.GetDistance(1, 2))
	assert.Equal(t, graph.Distance(3), index.GetDistance(1, 3))
	assert.Equal(t, graph.Distance(8), index.GetDistance(1, 4))
	assert.Equal(t, graph.Distance(7), index.GetDistance(2, 4))
	assert.Equal(t, uint16(1), index.GetSPC(1, 4))
	assert.True(t, index.IsContracted(1))
	assert.False(t, index.IsContracted(3))
	// all nodes share the root's label buffer
	root := index.GetContractionLabel(3).CutIndex
	for v := graph.NodeID(1); v <= 4; v++ {
		assert.Same(t, root, index.GetContractionLabel(v).CutIndex)
	}
}
