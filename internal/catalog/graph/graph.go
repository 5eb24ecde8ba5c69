// Package graph implements the weighted recommendation graph over product
// IDs. Edges carry a relation strength (shared-category count) and
// recommendations are produced by a bounded breadth-first traversal.
package graph

import "sort"

// Graph is an undirected weighted adjacency structure. Nodes are product
// IDs; an edge's weight accumulates each time the same pair is linked.
// It is not safe for concurrent use; the catalog serialises all access.
type Graph struct {
	adj   map[uint64]map[uint64]float64
	edges int
}

// Scored pairs a product ID with its accumulated traversal weight.
type Scored struct {
	ID     uint64
	Weight float64
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		adj: make(map[uint64]map[uint64]float64),
	}
}

// AddNode ensures id exists in the graph, as an isolated node if new. A
// product with no category links is still a valid traversal start.
func (g *Graph) AddNode(id uint64) {
	if _, exists := g.adj[id]; !exists {
		g.adj[id] = make(map[uint64]float64)
	}
}

// AddEdge records a symmetric edge between a and b, summing weight onto any
// existing edge. Self-loops are ignored.
func (g *Graph) AddEdge(a, b uint64, weight float64) {
	if a == b {
		return
	}
	g.AddNode(a)
	g.AddNode(b)
	if _, exists := g.adj[a][b]; !exists {
		g.edges++
	}
	g.adj[a][b] += weight
	g.adj[b][a] += weight
}

// Has reports whether id is a node in the graph.
func (g *Graph) Has(id uint64) bool {
	_, exists := g.adj[id]
	return exists
}

// Degree returns the number of direct neighbors of id.
func (g *Graph) Degree(id uint64) int {
	return len(g.adj[id])
}

// EdgeCount returns the number of distinct undirected edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Recommend traverses up to depth hops from id and returns the discovered
// nodes ranked by the best (highest) accumulated path weight found, ties
// broken by ascending ID, truncated to limit. The start node is never
// included. The second return value is false when id is not in the graph;
// an isolated node yields an empty ranking, not a failure. Depth or limit
// of zero short-circuits to an empty ranking.
func (g *Graph) Recommend(id uint64, depth, limit int) ([]Scored, bool) {
	neighbors, exists := g.adj[id]
	if !exists {
		return nil, false
	}
	if depth <= 0 || limit <= 0 {
		return nil, true
	}

	best := make(map[uint64]float64, len(neighbors))
	frontier := make(map[uint64]float64, len(neighbors))
	for n, w := range neighbors {
		best[n] = w
		frontier[n] = w
	}
	for hop := 1; hop < depth && len(frontier) > 0; hop++ {
		next := make(map[uint64]float64)
		for n, acc := range frontier {
			for m, w := range g.adj[n] {
				if m == id {
					continue
				}
				candidate := acc + w
				if prev, seen := best[m]; !seen || candidate > prev {
					best[m] = candidate
					next[m] = candidate
				}
			}
		}
		frontier = next
	}

	ranked := make([]Scored, 0, len(best))
	for n, w := range best {
		ranked = append(ranked, Scored{ID: n, Weight: w})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Weight != ranked[j].Weight {
			return ranked[i].Weight > ranked[j].Weight
		}
		return ranked[i].ID < ranked[j].ID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, true
}
