// Command query loads a label index and runs a batch of shortest-path-count
// queries against it. With -osm, query lines are lat/lon pairs snapped to the
// nearest network nodes instead of node IDs.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"road_index/pkg/graph"
	"road_index/pkg/label"
	"road_index/pkg/osm"
)

func main() {
	distance := flag.Bool("distance", false, "Run distance queries instead of path counts")
	osmPath := flag.String("osm", "", "OSM PBF file the index was built from; queries become lat/lon pairs")
	flag.Parse()
	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: query [-distance] [-osm file.osm.pbf] <index_prefix> <queries>")
		os.Exit(1)
	}
	prefix, queryPath := flag.Arg(0), flag.Arg(1)

	f, err := os.Open(prefix + "_cl")
	if err != nil {
		log.Fatalf("open index: %v", err)
	}
	index, err := label.ReadContractionIndex(f, graph.Config{})
	f.Close()
	if err != nil {
		log.Fatalf("read index: %v", err)
	}

	var queries [][2]graph.NodeID
	if *osmPath != "" {
		queries, err = readGeoQueries(queryPath, *osmPath)
	} else {
		queries, err = readQueries(queryPath)
	}
	if err != nil {
		log.Fatalf("read queries: %v", err)
	}

	start := time.Now()
	if *distance {
		for _, q := range queries {
			index.GetDistance(q[0], q[1])
		}
	} else {
		for _, q := range queries {
			index.GetSPC(q[0], q[1])
		}
	}
	fmt.Printf("ran %d random queries in %fs\n", len(queries), time.Since(start).Seconds())
}

func readQueries(path string) ([][2]graph.NodeID, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var queries [][2]graph.NodeID
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var a, b graph.NodeID
		if _, err := fmt.Sscan(scanner.Text(), &a, &b); err != nil {
			continue
		}
		queries = append(queries, [2]graph.NodeID{a, b})
	}
	return queries, scanner.Err()
}

// readGeoQueries snaps lat/lon pairs onto the network the index was built
// from. Pairs too far from any road are skipped.
func readGeoQueries(path, osmPath string) ([][2]graph.NodeID, error) {
	pbf, err := os.Open(osmPath)
	if err != nil {
		return nil, err
	}
	defer pbf.Close()
	network, err := osm.Parse(context.Background(), pbf)
	if err != nil {
		return nil, fmt.Errorf("parse network: %w", err)
	}
	snapper := osm.NewSnapper(network)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var queries [][2]graph.NodeID
	skipped := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var aLat, aLon, bLat, bLon float64
		if _, err := fmt.Sscan(scanner.Text(), &aLat, &aLon, &bLat, &bLon); err != nil {
			continue
		}
		a, errA := snapper.Snap(aLat, aLon)
		b, errB := snapper.Snap(bLat, bLon)
		if errA != nil || errB != nil {
			skipped++
			continue
		}
		queries = append(queries, [2]graph.NodeID{a, b})
	}
	if skipped > 0 {
		log.Printf("skipped %d query pairs too far from the network", skipped)
	}
	return queries, scanner.Err()
}
