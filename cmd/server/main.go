// Command server exposes a built label index over HTTP.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"road_index/pkg/api"
	"road_index/pkg/graph"
	"road_index/pkg/label"
)

func main() {
	prefix := flag.String("index", "", "Index path prefix (reads <prefix>_cl)")
	addr := flag.String("addr", ":8080", "Listen address")
	cors := flag.String("cors", "", "Access-Control-Allow-Origin value (empty disables CORS)")
	flag.Parse()

	if *prefix == "" {
		fmt.Fprintln(os.Stderr, "Usage: server -index <prefix> [-addr :8080]")
		os.Exit(1)
	}

	f, err := os.Open(*prefix + "_cl")
	if err != nil {
		log.Fatalf("open index: %v", err)
	}
	index, err := label.ReadContractionIndex(f, graph.Config{})
	f.Close()
	if err != nil {
		log.Fatalf("read index: %v", err)
	}
	log.Printf("Loaded index: %d nodes, %d uncontracted", index.NodeCount(), index.UncontractedCount())

	cfg := api.DefaultConfig(*addr)
	cfg.CORSOrigin = *cors
	srv := api.NewServer(cfg, api.NewHandlers(index))
	if err := api.ListenAndServe(srv); err != nil {
		log.Fatalf("server: %v", err)
	}
}
