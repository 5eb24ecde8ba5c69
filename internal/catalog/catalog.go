// Package catalog implements the in-memory product catalog and the derived
// search structures: an inverted token index, an ordered name index for
// prefix queries, and a weighted recommendation graph. The Catalog is the
// single source of truth; every mutation updates all three indexes under
// one writer-exclusive lock so a concurrent reader sees either the pre-add
// or the post-add state, never a product present in one index and absent
// from another.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/megastore/catalog-search/internal/catalog/graph"
	"github.com/megastore/catalog-search/internal/catalog/index"
	"github.com/megastore/catalog-search/internal/catalog/nametree"
	"github.com/megastore/catalog-search/internal/catalog/tokenizer"
	apperrors "github.com/megastore/catalog-search/pkg/errors"
)

// Product is a single catalog record. Products are immutable once stored:
// there is no update or delete, and IDs are assigned monotonically and
// never reused.
type Product struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

// Stats summarises catalog size for health checks and metrics.
type Stats struct {
	Products int
	Terms    int
	Names    int
	Edges    int
}

// Catalog owns the authoritative id -> Product mapping and coordinates the
// three derived indexes.
type Catalog struct {
	mu       sync.RWMutex
	products map[uint64]Product
	nextID   uint64
	tokens   *index.HashIndex
	names    *nametree.Tree
	recs     *graph.Graph
}

// New returns an empty catalog with empty indexes.
func New() *Catalog {
	return &Catalog{
		products: make(map[uint64]Product),
		tokens:   index.NewHashIndex(),
		names:    nametree.New(),
		recs:     graph.New(),
	}
}

// Add validates, stores, and indexes a new product, returning its assigned
// ID. All four searchable fields feed the token index, the normalized name
// feeds the name index, and the product is linked in the recommendation
// graph to every existing product sharing its category (weight 1 per shared
// occurrence, accumulating on repeats). The whole sequence runs under the
// writer lock; on validation failure no state changes.
func (c *Catalog) Add(name, brand, category, description string) (uint64, error) {
	normName := normalize(name)
	if normName == "" {
		return 0, fmt.Errorf("%w: product name must not be empty", apperrors.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	p := Product{
		ID:          id,
		Name:        name,
		Brand:       brand,
		Category:    category,
		Description: description,
	}
	c.products[id] = p

	searchable := name + " " + brand + " " + category + " " + description
	c.tokens.Index(id, tokenizer.Tokenize(searchable))
	c.names.Index(normName, id)

	c.recs.AddNode(id)
	if normCat := normalize(category); normCat != "" {
		for otherID, other := range c.products {
			if otherID == id {
				continue
			}
			if normalize(other.Category) == normCat {
				c.recs.AddEdge(id, otherID, 1)
			}
		}
	}
	return id, nil
}

// Get returns the product stored under id.
func (c *Catalog) Get(id uint64) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, exists := c.products[id]
	if !exists {
		return Product{}, fmt.Errorf("product %d: %w", id, apperrors.ErrNotFound)
	}
	return p, nil
}

// Len returns the number of stored products.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// SearchTokens tokenizes the free-text query and returns the products whose
// searchable fields contain every query token, ordered by ascending ID. An
// empty or fully non-alphanumeric query returns no results.
func (c *Catalog) SearchTokens(query string) []Product {
	terms := tokenizer.Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	matched := c.tokens.SearchAnd(terms)
	ids := make([]uint64, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	results := make([]Product, 0, len(ids))
	for _, id := range ids {
		results = append(results, c.products[id])
	}
	return results
}

// SearchPrefix returns up to limit products whose normalized name starts
// with the normalized prefix, ordered by name then ID. The prefix gets the
// same TrimSpace+ToLower treatment as name keys, so surrounding whitespace
// never rules out a match. An empty prefix matches the whole catalog in
// name order.
func (c *Catalog) SearchPrefix(prefix string, limit int) []Product {
	normPrefix := normalize(prefix)

	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.names.SearchPrefix(normPrefix, limit)
	results := make([]Product, 0, len(ids))
	for _, id := range ids {
		results = append(results, c.products[id])
	}
	return results
}

// SearchName returns every product whose normalized name equals the
// normalized form of name, in insertion order. No partial matching; use
// SearchPrefix for that.
func (c *Catalog) SearchName(name string) []Product {
	normName := normalize(name)
	if normName == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.names.Lookup(normName)
	results := make([]Product, 0, len(ids))
	for _, id := range ids {
		results = append(results, c.products[id])
	}
	return results
}

// Recommend returns up to limit products related to id, discovered by a
// breadth-first traversal of up to depth hops and ranked by descending
// accumulated edge weight, ties broken by ascending ID. An unknown id is an
// error; a product with no category links yields an empty result.
func (c *Catalog) Recommend(id uint64, depth, limit int) ([]Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ranked, exists := c.recs.Recommend(id, depth, limit)
	if !exists {
		return nil, fmt.Errorf("product %d: %w", id, apperrors.ErrNotFound)
	}
	results := make([]Product, 0, len(ranked))
	for _, s := range ranked {
		results = append(results, c.products[s.ID])
	}
	return results, nil
}

// Stats returns current catalog and index sizes.
func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Products: len(c.products),
		Terms:    c.tokens.TermCount(),
		Names:    c.names.Len(),
		Edges:    c.recs.EdgeCount(),
	}
}

// normalize produces the canonical comparable form used for name keys and
// category matching.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
