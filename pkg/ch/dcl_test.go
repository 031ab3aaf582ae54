package ch_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"road_index/pkg/ch"
	"road_index/pkg/graph"
	"road_index/pkg/label"
)

// applyWeightUpdates returns a copy of edges with the updates applied.
func applyWeightUpdates(edges []graph.Edge, updates []ch.WeightUpdate) []graph.Edge {
	out := append([]graph.Edge(nil), edges...)
	for i, e := range out {
		for _, u := range updates {
			if (e.A == u.A && e.B == u.B) || (e.A == u.B && e.B == u.A) {
				out[i].D = u.New
			}
		}
	}
	return out
}

// decreaseUpdates halves the weight of the selected edges.
func decreaseUpdates(edges []graph.Edge, picks ...int) []ch.WeightUpdate {
	var updates []ch.WeightUpdate
	for _, i := range picks {
		e := edges[i]
		updates = append(updates, ch.WeightUpdate{Old: e.D, New: e.D / 2, A: e.A, B: e.B})
	}
	return updates
}

// increaseUpdates grows the weight of the selected edges by half.
func increaseUpdates(edges []graph.Edge, picks ...int) []ch.WeightUpdate {
	var updates []ch.WeightUpdate
	for _, i := range picks {
		e := edges[i]
		updates = append(updates, ch.WeightUpdate{Old: e.D, New: e.D + e.D/2, A: e.A, B: e.B})
	}
	return updates
}

// maintain applies one update batch to a freshly built index using the given
// variant and returns the maintained index.
func maintain(t *testing.T, sc scenario, contract bool, updates []ch.WeightUpdate, mode string, variant string) *label.ContractionIndex {
	t.Helper()
	g, h, index := buildIndex(sc.n, sc.edges, graph.Config{}, contract)
	for _, u := range updates {
		g.UpdateEdge(u.A, u.B, u.New)
		g.UpdateEdge(u.B, u.A, u.New)
	}
	normal, contracted := ch.SplitUpdates(index, updates)
	switch mode + "/" + variant {
	case "d/seq":
		ch.DCLDec(h, index, normal)
	case "d/opt":
		ch.DCLDecOpt(h, index, normal)
	case "d/par":
		ch.DCLDecPar(h, index, normal)
	case "i/seq":
		ch.DCLInc(g, h, index, normal)
	case "i/opt":
		ch.DCLIncOpt(g, h, index, normal)
	case "i/par":
		ch.DCLIncPar(g, h, index, normal)
	default:
		t.Fatalf("unknown mode/variant %s/%s", mode, variant)
	}
	ch.ApplyContractedUpdates(g, index, contracted)
	return index
}

// assertIndexesAgree compares two indexes over every ordered node pair and
// their full label tables.
func assertIndexesAgree(t *testing.T, n int, got, want *label.ContractionIndex) {
	t.Helper()
	for v := graph.NodeID(1); int(v) <= n; v++ {
		gl, wl := got.GetContractionLabel(v), want.GetContractionLabel(v)
		require.Equal(t, wl.DistanceOffset, gl.DistanceOffset, "offset of node %d", v)
		require.Equal(t, wl.Parent, gl.Parent, "parent of node %d", v)
		if gl.CutIndex != nil && gl.DistanceOffset == 0 {
			require.Equal(t, wl.CutIndex.Distances(), gl.CutIndex.Distances(), "distance table of node %d", v)
			require.Equal(t, wl.CutIndex.Paths(), gl.CutIndex.Paths(), "path table of node %d", v)
		}
		for w := graph.NodeID(1); int(w) <= n; w++ {
			require.Equal(t, want.GetDistance(v, w), got.GetDistance(v, w), "distance %d->%d", v, w)
			require.Equal(t, want.GetSPC(v, w), got.GetSPC(v, w), "spc %d->%d", v, w)
		}
	}
}

func updateScenarios() []scenario {
	var out []scenario
	for _, sc := range scenarios() {
		if sc.name == "disconnected" {
			continue
		}
		out = append(out, sc)
	}
	return out
}

func TestDynamicDecreaseMatchesRebuild(t *testing.T) {
	for _, sc := range updateScenarios() {
		for _, contract := range []bool{false, true} {
			for _, variant := range []string{"seq", "opt", "par"} {
				t.Run(fmt.Sprintf("%s/contract=%v/%s", sc.name, contract, variant), func(t *testing.T) {
					updates := decreaseUpdates(sc.edges, 0)
					maintained := maintain(t, sc, contract, updates, "d", variant)
					_, _, rebuilt := buildIndex(sc.n, applyWeightUpdates(sc.edges, updates), graph.Config{}, contract)
					assertIndexesAgree(t, sc.n, maintained, rebuilt)
				})
			}
		}
	}
}

func TestDynamicIncreaseMatchesRebuild(t *testing.T) {
	for _, sc := range updateScenarios() {
		for _, contract := range []bool{false, true} {
			for _, variant := range []string{"seq", "opt", "par"} {
				t.Run(fmt.Sprintf("%s/contract=%v/%s", sc.name, contract, variant), func(t *testing.T) {
					updates := increaseUpdates(sc.edges, 0)
					maintained := maintain(t, sc, contract, updates, "i", variant)
					_, _, rebuilt := buildIndex(sc.n, applyWeightUpdates(sc.edges, updates), graph.Config{}, contract)
					assertIndexesAgree(t, sc.n, maintained, rebuilt)
				})
			}
		}
	}
}

func TestDynamicBatchUpdates(t *testing.T) {
	// several edges change in one batch
	for _, sc := range []int{1, 3, 5} { // cycle, grid, ladder
		sc := scenarios()[sc]
		t.Run(sc.name+"/decrease", func(t *testing.T) {
			updates := decreaseUpdates(sc.edges, 0, 2)
			maintained := maintain(t, sc, false, updates, "d", "seq")
			_, _, rebuilt := buildIndex(sc.n, applyWeightUpdates(sc.edges, updates), graph.Config{}, false)
			assertIndexesAgree(t, sc.n, maintained, rebuilt)
		})
		t.Run(sc.name+"/increase", func(t *testing.T) {
			updates := increaseUpdates(sc.edges, 0, 2)
			maintained := maintain(t, sc, false, updates, "i", "seq")
			_, _, rebuilt := buildIndex(sc.n, applyWeightUpdates(sc.edges, updates), graph.Config{}, false)
			assertIndexesAgree(t, sc.n, maintained, rebuilt)
		})
	}
}

func TestVariantsProduceIdenticalTables(t *testing.T) {
	// scenario 6: all three decrease variants must produce identical
	// (distance, path_count) tables on the same batch
	sc := scenarios()[3] // grid
	updates := decreaseUpdates(sc.edges, 4)
	seq := maintain(t, sc, false, updates, "d", "seq")
	opt := maintain(t, sc, false, updates, "d", "opt")
	par := maintain(t, sc, false, updates, "d", "par")
	assertIndexesAgree(t, sc.n, opt, seq)
	assertIndexesAgree(t, sc.n, par, seq)

	inc := increaseUpdates(sc.edges, 4)
	seqI := maintain(t, sc, false, inc, "i", "seq")
	optI := maintain(t, sc, false, inc, "i", "opt")
	parI := maintain(t, sc, false, inc, "i", "par")
	assertIndexesAgree(t, sc.n, optI, seqI)
	assertIndexesAgree(t, sc.n, parI, seqI)
}

func TestPendantUpdates(t *testing.T) {
	// path graph: every edge lies in a pendant tree, so updates propagate
	// purely through distance offsets
	sc := scenarios()[0]
	for _, mode := range []string{"d", "i"} {
		for pick := range sc.edges {
			t.Run(fmt.Sprintf("%s/edge%d", mode, pick), func(t *testing.T) {
				var updates []ch.WeightUpdate
				if mode == "d" {
					updates = decreaseUpdates(sc.edges, pick)
				} else {
					updates = increaseUpdates(sc.edges, pick)
				}
				maintained := maintain(t, sc, true, updates, mode, "seq")
				_, _, rebuilt := buildIndex(sc.n, applyWeightUpdates(sc.edges, updates), graph.Config{}, true)
				assertIndexesAgree(t, sc.n, maintained, rebuilt)
			})
		}
	}
}

func TestMixedCoreAndPendantUpdates(t *testing.T) {
	// pendants scenario: one update on a core edge, one on a pendant edge
	// attaching a contracted subtree to the core
	sc := scenarios()[6]
	require.Equal(t, "pendants", sc.name)
	for _, mode := range []string{"d", "i"} {
		t.Run(mode, func(t *testing.T) {
			var updates []ch.WeightUpdate
			if mode == "d" {
				updates = decreaseUpdates(sc.edges, 0, 3)
			} else {
				updates = increaseUpdates(sc.edges, 0, 3)
			}
			maintained := maintain(t, sc, true, updates, mode, "seq")
			_, _, rebuilt := buildIndex(sc.n, applyWeightUpdates(sc.edges, updates), graph.Config{}, true)
			assertIndexesAgree(t, sc.n, maintained, rebuilt)
		})
	}
}

func TestScenarioOneIncrease(t *testing.T) {
	// path 1-2-3-4-5 (weights 2): increasing edge (2,3) to 3 makes
	// d(1,5) = 9 while the path stays unique
	sc := scenarios()[0]
	updates := []ch.WeightUpdate{{Old: 2, New: 3, A: 2, B: 3}}
	maintained := maintain(t, sc, true, updates, "i", "seq")
	require.Equal(t, graph.Distance(9), maintained.GetDistance(1, 5))
	require.Equal(t, uint16(1), maintained.GetSPC(1, 5))
}

func TestScenarioTwoDecrease(t *testing.T) {
	// 4-cycle (weights 2): decreasing edge (1,2) to 1 makes d(1,3) = 3
	// with a single shortest path
	sc := scenarios()[1]
	updates := []ch.WeightUpdate{{Old: 2, New: 1, A: 1, B: 2}}
	maintained := maintain(t, sc, false, updates, "d", "seq")
	require.Equal(t, graph.Distance(3), maintained.GetDistance(1, 3))
	require.Equal(t, uint16(1), maintained.GetSPC(1, 3))
}

func TestGSDecChangeSetMerged(t *testing.T) {
	sc := scenarios()[1]
	_, h, _ := buildIndex(sc.n, sc.edges, graph.Config{}, false)
	changes := h.GSDec([]ch.WeightUpdate{{Old: 2, New: 1, A: 1, B: 2}})
	require.NotEmpty(t, changes)
	seen := make(map[[2]graph.NodeID]bool)
	for _, c := range changes {
		key := [2]graph.NodeID{c.V, c.W}
		require.False(t, seen[key], "duplicate edge %v in change set", key)
		seen[key] = true
	}
}
