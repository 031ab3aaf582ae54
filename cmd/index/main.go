// Command index builds the distance/path-count label index for a road
// network and writes the two index files <prefix>_cl and <prefix>_gs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"road_index/pkg/ch"
	"road_index/pkg/graph"
	"road_index/pkg/label"
	"road_index/pkg/osm"
)

func main() {
	graphPath := flag.String("graph", "", "Path to DIMACS-style graph file (p sp / a lines)")
	osmPath := flag.String("osm", "", "Path to .osm.pbf file (alternative to -graph)")
	output := flag.String("out", "index", "Output index path prefix")
	balance := flag.Float64("balance", 0.2, "Partition balance parameter")
	shortcuts := flag.Bool("shortcuts", false, "Insert cut shortcut edges (distance-only profile)")
	pruning := flag.Bool("pruning", false, "Order cuts by landmark pruning potential")
	flag.Parse()

	if (*graphPath == "") == (*osmPath == "") {
		fmt.Fprintln(os.Stderr, "Usage: index -graph <file> | -osm <file.osm.pbf> [-out prefix] [-balance 0.2]")
		os.Exit(1)
	}

	g, err := loadGraph(*graphPath, *osmPath)
	if err != nil {
		log.Fatalf("load graph: %v", err)
	}
	log.Printf("Loaded graph: %d nodes, %d edges", g.NodeCount(), g.EdgeCount())

	cfg := graph.Config{Shortcuts: *shortcuts, LandmarkPruning: *pruning}
	start := time.Now()

	closest := g.Contract()
	log.Printf("Contracted pendant trees: %d nodes remain", g.NodeCount())

	ci := g.CreateCutIndex(*balance, cfg)
	g.Reset()

	hierarchy := ch.Build(g, ci, closest)
	index := label.NewContractionIndex(ci, closest, cfg)

	log.Printf("Created index of size %d MB in %s",
		index.Size()/(1024*1024), time.Since(start).Round(time.Millisecond))

	var eg errgroup.Group
	eg.Go(func() error { return writeFile(*output+"_cl", index.Write) })
	eg.Go(func() error { return writeFile(*output+"_gs", hierarchy.Write) })
	if err := eg.Wait(); err != nil {
		log.Fatalf("write index: %v", err)
	}
	log.Printf("Wrote %s_cl and %s_gs", *output, *output)
}

func loadGraph(graphPath, osmPath string) (*graph.Graph, error) {
	if graphPath != "" {
		f, err := os.Open(graphPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return graph.ReadGraph(f)
	}
	f, err := os.Open(osmPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	result, err := osm.Parse(context.Background(), f)
	if err != nil {
		return nil, err
	}
	return result.NewGraph(), nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
