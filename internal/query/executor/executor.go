// Package executor runs token search queries against the catalog and wraps
// the results in the API's response shape. It sits between the HTTP handler
// and the catalog so the query cache can serialise results independently of
// either.
package executor

import (
	"context"
	"time"

	"github.com/megastore/catalog-search/internal/catalog"
	"github.com/megastore/catalog-search/pkg/tracing"
)

// Result is a token search result set.
type Result struct {
	Query     string            `json:"query"`
	TotalHits int               `json:"total_hits"`
	Results   []catalog.Product `json:"results"`
	LatencyMs int64             `json:"latency_ms"`
}

// Executor executes token searches.
type Executor struct {
	cat *catalog.Catalog
}

// New creates an Executor over the given catalog.
func New(cat *catalog.Catalog) *Executor {
	return &Executor{cat: cat}
}

// Execute tokenizes query, intersects posting sets, and returns up to limit
// products ordered by ascending ID. TotalHits counts all matches before
// truncation. A limit of zero returns no products, only the hit count,
// matching the prefix and recommend operations.
func (e *Executor) Execute(ctx context.Context, query string, limit int) (*Result, error) {
	_, span := tracing.StartChildSpan(ctx, "token-search")
	start := time.Now()

	matches := e.cat.SearchTokens(query)
	total := len(matches)
	if limit <= 0 {
		matches = nil
	} else if len(matches) > limit {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []catalog.Product{}
	}

	span.SetAttr("total_hits", total)
	span.End()

	return &Result{
		Query:     query,
		TotalHits: total,
		Results:   matches,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}
