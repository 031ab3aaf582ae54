package osm

import (
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road_index/pkg/graph"
)

func TestIsCarAccessible(t *testing.T) {
	tests := []struct {
		name string
		tags osm.Tags
		want bool
	}{
		{
			name: "residential road",
			tags: osm.Tags{{Key: "highway", Value: "residential"}},
			want: true,
		},
		{
			name: "motorway",
			tags: osm.Tags{{Key: "highway", Value: "motorway"}},
			want: true,
		},
		{
			name: "footway (not car accessible)",
			tags: osm.Tags{{Key: "highway", Value: "footway"}},
			want: false,
		},
		{
			name: "cycleway",
			tags: osm.Tags{{Key: "highway", Value: "cycleway"}},
			want: false,
		},
		{
			name: "private access",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "access", Value: "private"},
			},
			want: false,
		},
		{
			name: "motor_vehicle=no",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "motor_vehicle", Value: "no"},
			},
			want: false,
		},
		{
			name: "area=yes (pedestrian plaza)",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "area", Value: "yes"},
			},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isCarAccessible(tt.tags))
		})
	}
}

func TestBBoxContains(t *testing.T) {
	bbox := BBox{MinLat: 1.15, MaxLat: 1.48, MinLng: 103.6, MaxLng: 104.1}
	assert.True(t, bbox.Contains(1.35, 103.82))
	assert.False(t, bbox.Contains(2.75, 101.68))
	assert.True(t, BBox{}.IsZero())
	assert.False(t, bbox.IsZero())
}

// testResult builds a tiny parsed network by hand: three nodes in a column.
func testResult() *Result {
	return &Result{
		NodeCount: 3,
		Edges: []graph.Edge{
			{A: 1, B: 2, D: 100},
			{A: 2, B: 3, D: 100},
		},
		Lat: []float64{0, 1.3000, 1.3010, 1.3020},
		Lon: []float64{0, 103.8000, 103.8000, 103.8000},
	}
}

func TestSnapperNearest(t *testing.T) {
	res := testResult()
	s := NewSnapper(res)
	for id := graph.NodeID(1); id <= 3; id++ {
		got, err := s.Snap(res.Lat[id]+0.0001, res.Lon[id])
		require.NoError(t, err)
		assert.Equal(t, id, got, "snap near node %d", id)
	}
}

func TestSnapperTooFar(t *testing.T) {
	s := NewSnapper(testResult())
	_, err := s.Snap(2.5, 104.9)
	assert.ErrorIs(t, err, ErrPointTooFar)
}

func TestResultNewGraph(t *testing.T) {
	g := testResult().NewGraph()
	require.Equal(t, 3, g.NodeCount())
	assert.Equal(t, graph.Distance(200), g.GetDistance(1, 3, true))
}
