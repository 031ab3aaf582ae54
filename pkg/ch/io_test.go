package ch_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"road_index/pkg/ch"
	"road_index/pkg/graph"
	"road_index/pkg/label"
)

func TestHierarchyRoundTrip(t *testing.T) {
	for _, sc := range scenarios() {
		for _, contract := range []bool{false, true} {
			_, h, _ := buildIndex(sc.n, sc.edges, graph.Config{}, contract)
			var buf bytes.Buffer
			require.NoError(t, h.Write(&buf))
			first := append([]byte(nil), buf.Bytes()...)

			h2, err := ch.ReadHierarchy(&buf)
			require.NoError(t, err)
			var buf2 bytes.Buffer
			require.NoError(t, h2.Write(&buf2))
			require.Equal(t, first, buf2.Bytes(), "%s: hierarchy does not round-trip", sc.name)
		}
	}
}

func TestIndexRoundTrip(t *testing.T) {
	for _, sc := range scenarios() {
		for _, contract := range []bool{false, true} {
			_, _, index := buildIndex(sc.n, sc.edges, graph.Config{}, contract)
			var buf bytes.Buffer
			require.NoError(t, index.Write(&buf))
			first := append([]byte(nil), buf.Bytes()...)

			loaded, err := label.ReadContractionIndex(&buf, graph.Config{})
			require.NoError(t, err)
			var buf2 bytes.Buffer
			require.NoError(t, loaded.Write(&buf2))
			require.Equal(t, first, buf2.Bytes(), "%s: index does not round-trip", sc.name)

			// reloaded index answers identically (P5)
			for v := graph.NodeID(1); int(v) <= sc.n; v++ {
				for w := graph.NodeID(1); int(w) <= sc.n; w++ {
					require.Equal(t, index.GetDistance(v, w), loaded.GetDistance(v, w))
					require.Equal(t, index.GetSPC(v, w), loaded.GetSPC(v, w))
				}
			}
		}
	}
}

func TestMaintainReloadedIndex(t *testing.T) {
	// the full update-tool cycle: build, persist, reload, maintain
	sc := scenarios()[3] // grid
	g, h, index := buildIndex(sc.n, sc.edges, graph.Config{}, false)

	var clBuf, gsBuf bytes.Buffer
	require.NoError(t, index.Write(&clBuf))
	require.NoError(t, h.Write(&gsBuf))
	loadedIndex, err := label.ReadContractionIndex(&clBuf, graph.Config{})
	require.NoError(t, err)
	loadedH, err := ch.ReadHierarchy(&gsBuf)
	require.NoError(t, err)

	updates := decreaseUpdates(sc.edges, 1)
	for _, u := range updates {
		g.UpdateEdge(u.A, u.B, u.New)
		g.UpdateEdge(u.B, u.A, u.New)
	}
	ch.DCLDec(loadedH, loadedIndex, updates)

	_, _, rebuilt := buildIndex(sc.n, applyWeightUpdates(sc.edges, updates), graph.Config{}, false)
	assertIndexesAgree(t, sc.n, loadedIndex, rebuilt)
}

func TestReadHierarchyRejectsGarbage(t *testing.T) {
	_, err := ch.ReadHierarchy(bytes.NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
}

func TestReadIndexRejectsGarbage(t *testing.T) {
	_, err := label.ReadContractionIndex(bytes.NewReader([]byte{0xff, 0xff}), graph.Config{})
	require.Error(t, err)
}
