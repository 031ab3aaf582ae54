package ch

import (
	"runtime"
	"sync"

	"road_index/pkg/bucket"
	"road_index/pkg/graph"
	"road_index/pkg/label"
)

// The parallel variants partition work by label slot: slot i of every node is
// independent of slot j, so a thread-safe queue hands each worker one full
// slot bucket at a time, and the worker drains it with a private min-rank
// queue identical to the sequential pass.

// ichParItem is a slot-local candidate; the slot index is the bucket key.
type ichParItem struct {
	v         NodeID
	distance  Distance
	pathCount uint16
}

// DCLDecPar is DCLDec parallelized over label slots.
func DCLDecPar(h *Hierarchy, ci *label.ContractionIndex, updates []WeightUpdate) {
	changes := h.GSDec(updates)
	var grouping bucket.TSQueue[ichParItem]
	seedDec(h, ci, changes, func(it ichItem) {
		grouping.Push(ichParItem{it.v, it.distance, it.pathCount}, int(it.i))
	})
	workers := min(runtime.GOMAXPROCS(0), maxWorkers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				items, slot, ok := grouping.NextBucket()
				if !ok {
					return
				}
				i := uint16(slot)
				var bq bucket.MinQueue[ichParItem]
				for _, it := range items {
					bq.Push(it, int(h.Nodes[it.v].DistIndex))
				}
				for !bq.Empty() {
					next := bq.Pop()
					cv := ci.GetContractionLabel(next.v).CutIndex
					dists, paths := cv.Distances(), cv.Paths()
					if dists[i] > next.distance {
						dists[i] = next.distance
						paths[i] = next.pathCount
					} else if dists[i] == next.distance {
						paths[i] += next.pathCount
					} else {
						continue
					}
					for _, u := range h.Nodes[next.v].DownNeighbors {
						x := h.upNeighbor(u, next.v)
						dist := x.Distance + next.distance
						cu := ci.GetContractionLabel(u).CutIndex
						if cu.Distances()[i] >= dist {
							bq.Push(ichParItem{u, dist, x.PathCount * next.pathCount}, int(h.Nodes[u].DistIndex))
						}
					}
				}
			}
		}()
	}
	wg.Wait()
}

// DCLIncPar is DCLInc parallelized over label slots.
func DCLIncPar(g *graph.Graph, h *Hierarchy, ci *label.ContractionIndex, updates []WeightUpdate) {
	changes := h.GSInc(g, updates)
	var grouping bucket.TSQueue[ichParItem]
	seedInc(h, ci, changes, func(it ichItem) {
		grouping.Push(ichParItem{it.v, it.distance, it.pathCount}, int(it.i))
	})
	workers := min(runtime.GOMAXPROCS(0), maxWorkers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				items, slot, ok := grouping.NextBucket()
				if !ok {
					return
				}
				i := uint16(slot)
				var bq bucket.MinQueue[ichParItem]
				for _, it := range items {
					bq.Push(it, int(h.Nodes[it.v].DistIndex))
				}
				for !bq.Empty() {
					next := bq.Pop()
					cv := ci.GetContractionLabel(next.v).CutIndex
					for _, u := range h.Nodes[next.v].DownNeighbors {
						x := h.upNeighbor(u, next.v)
						cu := ci.GetContractionLabel(u).CutIndex
						dist := graph.AddDist(x.Distance, cv.Distances()[i])
						if dist != graph.Infinity && dist == cu.Distances()[i] {
							bq.Push(ichParItem{u, dist, x.PathCount * next.pathCount}, int(h.Nodes[u].DistIndex))
						}
					}
					dists, paths := cv.Distances(), cv.Paths()
					if paths[i] > next.pathCount {
						paths[i] -= next.pathCount
					} else {
						dists[i] = graph.Infinity
						for _, u := range h.Nodes[next.v].UpNeighbors {
							if h.Nodes[u.Node].DistIndex < i {
								continue
							}
							cu := ci.GetContractionLabel(u.Node).CutIndex
							dist := graph.AddDist(u.Distance, cu.Distances()[i])
							if dist == graph.Infinity {
								continue
							}
							count := u.PathCount * cu.Paths()[i]
							if dist < dists[i] {
								dists[i] = dist
								paths[i] = count
							} else if dist == dists[i] {
								paths[i] += count
							}
						}
					}
				}
			}
		}()
	}
	wg.Wait()
}
