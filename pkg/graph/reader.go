package graph

import (
	"bufio"
	"fmt"
	"io"
	"sort"
)

const maxNodes = 100_000_000

// ReadGraph parses a DIMACS-style graph: a `p sp N M` header followed by
// `a u v d` edge lines, each added undirected. Unknown lines are skipped.
// Isolated nodes are removed after loading.
func ReadGraph(r io.Reader) (*Graph, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	var g *Graph
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		switch line[0] {
		case 'p':
			var n, m int
			if _, err := fmt.Sscanf(line, "p sp %d %d", &n, &m); err != nil {
				return nil, fmt.Errorf("parse problem line %q: %w", line, err)
			}
			if n <= 0 || n > maxNodes {
				return nil, fmt.Errorf("node count %d out of range", n)
			}
			g = NewGraph(n)
		case 'a':
			var v, w NodeID
			var d Distance
			if _, err := fmt.Sscanf(line, "a %d %d %d", &v, &w, &d); err != nil {
				continue
			}
			if g == nil {
				return nil, fmt.Errorf("edge line before problem line: %q", line)
			}
			if v == NoNode || w == NoNode || int(v) > g.SuperNodeCount() || int(w) > g.SuperNodeCount() || d == 0 {
				continue
			}
			g.AddEdge(v, w, d, true)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	if g == nil {
		return nil, fmt.Errorf("missing problem line")
	}
	g.RemoveIsolated()
	return g, nil
}

// WriteTo writes the graph in the same DIMACS-style format ReadGraph parses.
func (g *Graph) WriteTo(w io.Writer) error {
	bw := bufio.NewWriter(w)
	edges := g.Edges()
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		if edges[i].B != edges[j].B {
			return edges[i].B < edges[j].B
		}
		return edges[i].D < edges[j].D
	})
	if _, err := fmt.Fprintf(bw, "p sp %d %d\n", g.SuperNodeCount(), len(edges)); err != nil {
		return err
	}
	for _, e := range edges {
		if _, err := fmt.Fprintf(bw, "a %d %d %d\n", e.A, e.B, e.D); err != nil {
			return err
		}
	}
	return bw.Flush()
}
