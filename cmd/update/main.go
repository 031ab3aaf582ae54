// Command update applies a batch of edge-weight updates to a built index,
// repairing the hierarchy and the labels incrementally.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"road_index/pkg/ch"
	"road_index/pkg/graph"
	"road_index/pkg/label"
)

func main() {
	variant := flag.String("variant", "seq", "Maintenance variant: seq, opt or par")
	flag.Parse()
	if flag.NArg() != 4 {
		fmt.Fprintln(os.Stderr, "Usage: update [-variant seq|opt|par] <graph> <index_prefix> <updates> d|i")
		os.Exit(1)
	}
	graphPath, prefix, updatePath, mode := flag.Arg(0), flag.Arg(1), flag.Arg(2), flag.Arg(3)
	if mode != "d" && mode != "i" {
		log.Fatalf("mode must be d (decrease) or i (increase), got %q", mode)
	}

	g := loadGraph(graphPath)
	index := loadIndex(prefix + "_cl")
	hierarchy := loadHierarchy(prefix + "_gs")

	updates, err := readUpdates(updatePath, mode == "d")
	if err != nil {
		log.Fatalf("read updates: %v", err)
	}
	for _, u := range updates {
		g.UpdateEdge(u.A, u.B, u.New)
		g.UpdateEdge(u.B, u.A, u.New)
	}
	normal, contracted := ch.SplitUpdates(index, updates)

	start := time.Now()
	switch {
	case mode == "d" && *variant == "seq":
		ch.DCLDec(hierarchy, index, normal)
	case mode == "d" && *variant == "opt":
		ch.DCLDecOpt(hierarchy, index, normal)
	case mode == "d" && *variant == "par":
		ch.DCLDecPar(hierarchy, index, normal)
	case mode == "i" && *variant == "seq":
		ch.DCLInc(g, hierarchy, index, normal)
	case mode == "i" && *variant == "opt":
		ch.DCLIncOpt(g, hierarchy, index, normal)
	case mode == "i" && *variant == "par":
		ch.DCLIncPar(g, hierarchy, index, normal)
	default:
		log.Fatalf("unknown variant %q", *variant)
	}
	ch.ApplyContractedUpdates(g, index, contracted)
	fmt.Printf("ran %d random updates in %f\n", len(normal), time.Since(start).Seconds())
}

func loadGraph(path string) *graph.Graph {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open graph: %v", err)
	}
	defer f.Close()
	g, err := graph.ReadGraph(f)
	if err != nil {
		log.Fatalf("read graph: %v", err)
	}
	return g
}

func loadIndex(path string) *label.ContractionIndex {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open index: %v", err)
	}
	defer f.Close()
	index, err := label.ReadContractionIndex(f, graph.Config{})
	if err != nil {
		log.Fatalf("read index: %v", err)
	}
	return index
}

func loadHierarchy(path string) *ch.Hierarchy {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open hierarchy: %v", err)
	}
	defer f.Close()
	h, err := ch.ReadHierarchy(f)
	if err != nil {
		log.Fatalf("read hierarchy: %v", err)
	}
	return h
}

// readUpdates parses `a b w` lines; the new weight is w/2 for decreases and
// w+w/2 for increases, truncating as the original tooling does.
func readUpdates(path string, decrease bool) ([]ch.WeightUpdate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var updates []ch.WeightUpdate
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var a, b graph.NodeID
		var w graph.Distance
		if _, err := fmt.Sscan(scanner.Text(), &a, &b, &w); err != nil {
			continue
		}
		newWeight := w / 2
		if !decrease {
			newWeight = w + w/2
		}
		updates = append(updates, ch.WeightUpdate{Old: w, New: newWeight, A: a, B: b})
	}
	return updates, scanner.Err()
}
