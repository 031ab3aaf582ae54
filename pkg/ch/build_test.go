package ch_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road_index/pkg/ch"
	"road_index/pkg/graph"
	"road_index/pkg/label"
)

// scenario is a small literal test network.
type scenario struct {
	name  string
	n     int
	edges []graph.Edge
}

func scenarios() []scenario {
	return []scenario{
		{"path", 5, []graph.Edge{{A: 1, B: 2, D: 2}, {A: 2, B: 3, D: 2}, {A: 3, B: 4, D: 2}, {A: 4, B: 5, D: 2}}},
		{"cycle", 4, []graph.Edge{{A: 1, B: 2, D: 2}, {A: 2, B: 3, D: 2}, {A: 3, B: 4, D: 2}, {A: 4, B: 1, D: 2}}},
		{"bowtie", 5, []graph.Edge{
			{A: 1, B: 2, D: 2}, {A: 2, B: 3, D: 2}, {A: 1, B: 3, D: 2},
			{A: 3, B: 4, D: 2}, {A: 4, B: 5, D: 2}, {A: 3, B: 5, D: 2},
		}},
		{"grid", 9, []graph.Edge{
			{A: 1, B: 2, D: 2}, {A: 2, B: 3, D: 2},
			{A: 4, B: 5, D: 2}, {A: 5, B: 6, D: 2},
			{A: 7, B: 8, D: 2}, {A: 8, B: 9, D: 2},
			{A: 1, B: 4, D: 2}, {A: 4, B: 7, D: 2},
			{A: 2, B: 5, D: 2}, {A: 5, B: 8, D: 2},
			{A: 3, B: 6, D: 2}, {A: 6, B: 9, D: 2},
		}},
		{"weighted", 6, []graph.Edge{
			{A: 1, B: 2, D: 4}, {A: 2, B: 3, D: 6}, {A: 1, B: 3, D: 10},
			{A: 3, B: 4, D: 2}, {A: 4, B: 5, D: 2}, {A: 5, B: 6, D: 8}, {A: 3, B: 6, D: 12},
		}},
		{"ladder", 8, []graph.Edge{
			{A: 1, B: 2, D: 2}, {A: 2, B: 3, D: 2}, {A: 3, B: 4, D: 2}, {A: 4, B: 1, D: 2},
			{A: 5, B: 6, D: 2}, {A: 6, B: 7, D: 2}, {A: 7, B: 8, D: 2}, {A: 8, B: 5, D: 2},
			{A: 4, B: 5, D: 2},
		}},
		{"pendants", 8, []graph.Edge{
			{A: 1, B: 2, D: 2}, {A: 2, B: 3, D: 2}, {A: 3, B: 1, D: 2},
			{A: 1, B: 4, D: 2}, {A: 4, B: 5, D: 4},
			{A: 2, B: 6, D: 6},
			{A: 3, B: 7, D: 2}, {A: 7, B: 8, D: 2},
		}},
		{"disconnected", 6, []graph.Edge{
			{A: 1, B: 2, D: 2}, {A: 2, B: 3, D: 2},
			{A: 4, B: 5, D: 2}, {A: 5, B: 6, D: 2},
		}},
	}
}

// buildIndex runs the whole pipeline: optional pendant contraction, cut
// decomposition, hierarchy construction, label flattening.
func buildIndex(n int, edges []graph.Edge, cfg graph.Config, contract bool) (*graph.Graph, *ch.Hierarchy, *label.ContractionIndex) {
	g := graph.NewGraphEdges(n, edges)
	g.RemoveIsolated()
	var closest []graph.Neighbor
	if contract {
		closest = g.Contract()
	}
	ci := g.CreateCutIndex(0.2, cfg)
	g.Reset()
	h := ch.Build(g, ci, closest)
	index := label.NewContractionIndex(ci, closest, cfg)
	return g, h, index
}

// bruteDijkstra computes ground-truth distance and path count over an edge
// list, independent of the code under test.
func bruteDijkstra(n int, edges []graph.Edge, source graph.NodeID) ([]graph.Distance, []uint16) {
	adj := make([][]graph.Neighbor, n+1)
	for _, e := range edges {
		adj[e.A] = append(adj[e.A], graph.Neighbor{Node: e.B, Distance: e.D})
		adj[e.B] = append(adj[e.B], graph.Neighbor{Node: e.A, Distance: e.D})
	}
	dist := make([]graph.Distance, n+1)
	count := make([]uint16, n+1)
	done := make([]bool, n+1)
	for i := range dist {
		dist[i] = graph.Infinity
	}
	dist[source] = 0
	count[source] = 1
	for {
		best := graph.NodeID(0)
		bestDist := graph.Infinity
		for v := 1; v <= n; v++ {
			if !done[v] && dist[v] < bestDist {
				best = graph.NodeID(v)
				bestDist = dist[v]
			}
		}
		if best == 0 {
			break
		}
		done[best] = true
		for _, nb := range adj[best] {
			if bestDist+nb.Distance < dist[nb.Node] {
				dist[nb.Node] = bestDist + nb.Distance
				count[nb.Node] = count[best]
			} else if bestDist+nb.Distance == dist[nb.Node] {
				count[nb.Node] += count[best]
			}
		}
	}
	return dist, count
}

// assertIndexMatchesBruteForce checks P1-P4 over all ordered node pairs.
func assertIndexMatchesBruteForce(t *testing.T, n int, edges []graph.Edge, index *label.ContractionIndex) {
	t.Helper()
	for s := graph.NodeID(1); int(s) <= n; s++ {
		dist, count := bruteDijkstra(n, edges, s)
		for v := graph.NodeID(1); int(v) <= n; v++ {
			got := index.GetDistance(s, v)
			require.Equal(t, dist[v], got, "distance %d->%d", s, v)
			if s == v {
				require.Equal(t, uint16(1), index.GetSPC(s, v), "spc %d->%d", s, v)
			} else if dist[v] != graph.Infinity {
				require.Equal(t, count[v], index.GetSPC(s, v), "spc %d->%d", s, v)
			}
			// symmetry
			require.Equal(t, got, index.GetDistance(v, s), "symmetry %d<->%d", s, v)
			require.Equal(t, index.GetSPC(s, v), index.GetSPC(v, s), "spc symmetry %d<->%d", s, v)
		}
	}
}

func TestIndexGroundTruth(t *testing.T) {
	for _, sc := range scenarios() {
		for _, contract := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/contract=%v", sc.name, contract), func(t *testing.T) {
				_, _, index := buildIndex(sc.n, sc.edges, graph.Config{}, contract)
				assertIndexMatchesBruteForce(t, sc.n, sc.edges, index)
			})
		}
	}
}

func TestScenarioAnswers(t *testing.T) {
	// spec scenarios with weights scaled by 2 to keep updates integral
	sc := scenarios()
	_, _, path := buildIndex(sc[0].n, sc[0].edges, graph.Config{}, true)
	assert.Equal(t, graph.Distance(8), path.GetDistance(1, 5))
	assert.Equal(t, uint16(1), path.GetSPC(1, 5))

	_, _, cycle := buildIndex(sc[1].n, sc[1].edges, graph.Config{}, true)
	assert.Equal(t, graph.Distance(4), cycle.GetDistance(1, 3))
	assert.Equal(t, uint16(2), cycle.GetSPC(1, 3))

	_, _, bow := buildIndex(sc[2].n, sc[2].edges, graph.Config{}, true)
	assert.Equal(t, graph.Distance(4), bow.GetDistance(1, 5))
	assert.Equal(t, uint16(1), bow.GetSPC(1, 5))

	_, _, grid := buildIndex(sc[3].n, sc[3].edges, graph.Config{}, true)
	assert.Equal(t, graph.Distance(8), grid.GetDistance(1, 9))
	assert.Equal(t, uint16(6), grid.GetSPC(1, 9))
}

func TestDisconnectedPairsAreUnreachable(t *testing.T) {
	sc := scenarios()[7]
	require.Equal(t, "disconnected", sc.name)
	_, _, index := buildIndex(sc.n, sc.edges, graph.Config{}, false)
	assert.Equal(t, graph.Infinity, index.GetDistance(1, 6))
	assert.Equal(t, uint16(0), index.GetSPC(1, 6))
	assert.Equal(t, graph.Distance(4), index.GetDistance(1, 3))
}

func TestShortcutProfileDistances(t *testing.T) {
	// with shortcut edges the queries compare only LCA-level slots; the
	// distances must still match ground truth (P8 soundness included: a
	// broken shortcut would surface as a short distance)
	cfg := graph.Config{Shortcuts: true}
	for _, sc := range scenarios() {
		if sc.name == "disconnected" {
			continue
		}
		for _, contract := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/contract=%v", sc.name, contract), func(t *testing.T) {
				_, _, index := buildIndex(sc.n, sc.edges, cfg, contract)
				for s := graph.NodeID(1); int(s) <= sc.n; s++ {
					dist, _ := bruteDijkstra(sc.n, sc.edges, s)
					for v := graph.NodeID(1); int(v) <= sc.n; v++ {
						require.Equal(t, dist[v], index.GetDistance(s, v), "distance %d->%d", s, v)
					}
				}
			})
		}
	}
}

func TestPruningProfileGroundTruth(t *testing.T) {
	cfg := graph.Config{LandmarkPruning: true}
	for _, sc := range scenarios() {
		t.Run(sc.name, func(t *testing.T) {
			_, _, index := buildIndex(sc.n, sc.edges, cfg, false)
			assertIndexMatchesBruteForce(t, sc.n, sc.edges, index)
		})
	}
}

func TestLandmarkPositionalConsistency(t *testing.T) {
	// every label carries exactly one zero-distance slot: the node's own
	// position within its cut (P6)
	for _, sc := range scenarios() {
		t.Run(sc.name, func(t *testing.T) {
			_, _, index := buildIndex(sc.n, sc.edges, graph.Config{}, false)
			for v := graph.NodeID(1); int(v) <= sc.n; v++ {
				cl := index.GetContractionLabel(v)
				if cl.CutIndex == nil || cl.DistanceOffset != 0 {
					continue
				}
				zeros := 0
				for _, d := range cl.CutIndex.Distances() {
					if d == 0 {
						zeros++
					}
				}
				require.Equal(t, 1, zeros, "node %d has %d zero slots", v, zeros)
				dists := cl.CutIndex.Distances()
				assert.Equal(t, graph.Distance(0), dists[len(dists)-1], "own slot must be last")
				assert.Equal(t, uint16(1), cl.CutIndex.Paths()[len(dists)-1])
			}
		})
	}
}

func TestHierarchyRanksUnique(t *testing.T) {
	// adjacent uncontracted nodes must have distinct ranks, and every
	// upward edge points to a strictly smaller rank
	for _, sc := range scenarios() {
		t.Run(sc.name, func(t *testing.T) {
			g, h, _ := buildIndex(sc.n, sc.edges, graph.Config{}, false)
			for v := 1; v <= sc.n; v++ {
				node := h.Nodes[v]
				if node.DistIndex == ch.ContractedRank {
					continue
				}
				g.Neighbors(graph.NodeID(v), func(n graph.Neighbor) {
					if h.Nodes[n.Node].DistIndex != ch.ContractedRank {
						assert.NotEqual(t, node.DistIndex, h.Nodes[n.Node].DistIndex,
							"adjacent nodes %d and %d share a rank", v, n.Node)
					}
				})
				for _, up := range node.UpNeighbors {
					assert.Less(t, h.Nodes[up.Node].DistIndex, node.DistIndex,
						"upward edge %d->%d does not climb", v, up.Node)
				}
			}
		})
	}
}

func TestHoplinks(t *testing.T) {
	sc := scenarios()[3] // grid
	_, _, index := buildIndex(sc.n, sc.edges, graph.Config{}, false)
	for s := graph.NodeID(1); int(s) <= sc.n; s++ {
		for v := graph.NodeID(1); int(v) <= sc.n; v++ {
			hops := index.GetHoplinks(s, v)
			assert.Equal(t, index.GetHoplinks(v, s), hops)
			if s != v {
				assert.Positive(t, hops)
			}
		}
	}
	assert.Positive(t, index.AvgHoplinks([][2]graph.NodeID{{1, 9}, {3, 7}}))
}
