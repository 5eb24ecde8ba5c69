// Package query exposes the catalog's operations over HTTP: product add and
// lookup, token search, prefix suggestions, and graph recommendations.
package query

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/megastore/catalog-search/internal/analytics"
	"github.com/megastore/catalog-search/internal/catalog"
	"github.com/megastore/catalog-search/internal/query/cache"
	"github.com/megastore/catalog-search/internal/query/executor"
	apperrors "github.com/megastore/catalog-search/pkg/errors"
	"github.com/megastore/catalog-search/pkg/logger"
	"github.com/megastore/catalog-search/pkg/metrics"
	"github.com/megastore/catalog-search/pkg/tracing"
)

// Limits bounds per-request parameters.
type Limits struct {
	DefaultLimit int
	MaxResults   int
	DefaultDepth int
	MaxDepth     int
}

// Handler serves the catalog HTTP API. Cache, collector, and metrics are
// optional; a nil value disables the corresponding concern.
type Handler struct {
	cat       *catalog.Catalog
	exec      *executor.Executor
	cache     *cache.QueryCache
	collector *analytics.Collector
	metrics   *metrics.Metrics
	limits    Limits
	logger    *slog.Logger
}

// AddProductRequest is the JSON body for POST /api/v1/products.
type AddProductRequest struct {
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

// LookupResponse is the result set for exact-name queries.
type LookupResponse struct {
	Name    string            `json:"name"`
	Results []catalog.Product `json:"results"`
}

// SuggestResponse is the result set for prefix queries.
type SuggestResponse struct {
	Prefix  string            `json:"prefix"`
	Results []catalog.Product `json:"results"`
}

// RelatedResponse is the result set for recommendation queries.
type RelatedResponse struct {
	ProductID uint64            `json:"product_id"`
	Depth     int               `json:"depth"`
	Results   []catalog.Product `json:"results"`
}

// New creates a Handler over the given catalog.
func New(cat *catalog.Catalog, queryCache *cache.QueryCache, collector *analytics.Collector, m *metrics.Metrics, limits Limits) *Handler {
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = 10
	}
	if limits.MaxResults <= 0 {
		limits.MaxResults = 100
	}
	if limits.DefaultDepth <= 0 {
		limits.DefaultDepth = 1
	}
	if limits.MaxDepth <= 0 {
		limits.MaxDepth = 3
	}
	return &Handler{
		cat:       cat,
		exec:      executor.New(cat),
		cache:     queryCache,
		collector: collector,
		metrics:   m,
		limits:    limits,
		logger:    slog.Default().With("component", "query-handler"),
	}
}

// Register attaches all API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/products", h.AddProduct)
	mux.HandleFunc("GET /api/v1/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /api/v1/products/{id}/related", h.Related)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/lookup", h.Lookup)
	mux.HandleFunc("GET /api/v1/suggest", h.Suggest)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// AddProduct stores and indexes a new product.
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := h.cat.Add(req.Name, req.Brand, req.Category, req.Description)
	if err != nil {
		log.Warn("add product rejected", "name", req.Name, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.ProductsAddedTotal.Inc()
		stats := h.cat.Stats()
		h.metrics.ProductsTotal.Set(float64(stats.Products))
		h.metrics.GraphEdgesTotal.Set(float64(stats.Edges))
	}
	if h.cache != nil {
		// Stale intersections must not outlive the mutation.
		if err := h.cache.Invalidate(ctx); err != nil {
			log.Error("cache invalidation after add failed", "error", err)
		}
	}

	log.Info("product added", "id", id, "name", req.Name, "category", req.Category)
	h.writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	p, err := h.cat.Get(id)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// Search runs a token (AND) search over the catalog.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "search", logger.RequestIDFromContext(ctx))
	span.SetAttr("query", q)

	var result *executor.Result
	var err error
	cacheHit := false
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, q, limit, func() (*executor.Result, error) {
			return h.exec.Execute(ctx, q, limit)
		})
	} else {
		result, err = h.exec.Execute(ctx, q, limit)
	}
	span.End()

	if err != nil {
		log.Error("search execution failed", "query", q, "error", err)
		h.observe(newEvent(analytics.EventSearch, q, 0), "error", cacheHit, start, 0)
		h.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	latency := time.Since(start)
	log.Info("search completed",
		"query", q,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	event := newEvent(analytics.EventSearch, q, 0)
	event.TotalHits = result.TotalHits
	event.Returned = len(result.Results)
	event.CacheHit = cacheHit
	event.RequestID = logger.RequestIDFromContext(ctx)
	h.observe(event, outcomeFor(result.TotalHits), cacheHit, start, len(result.Results))

	h.writeJSON(w, http.StatusOK, result)
}

// Lookup returns every product whose name matches the given name exactly
// (case- and surrounding-space-insensitive), in insertion order.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	name := r.URL.Query().Get("name")
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'name' is required")
		return
	}

	results := h.cat.SearchName(name)
	if results == nil {
		results = []catalog.Product{}
	}

	event := newEvent(analytics.EventLookup, name, 0)
	event.TotalHits = len(results)
	event.Returned = len(results)
	event.RequestID = logger.RequestIDFromContext(ctx)
	h.observe(event, outcomeFor(len(results)), false, start, len(results))

	h.writeJSON(w, http.StatusOK, LookupResponse{Name: name, Results: results})
}

// Suggest returns products whose name starts with the given prefix, in name
// order.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	prefix := r.URL.Query().Get("prefix")
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	results := h.cat.SearchPrefix(prefix, limit)
	if results == nil {
		results = []catalog.Product{}
	}

	event := newEvent(analytics.EventSuggest, prefix, 0)
	event.TotalHits = len(results)
	event.Returned = len(results)
	event.RequestID = logger.RequestIDFromContext(ctx)
	h.observe(event, outcomeFor(len(results)), false, start, len(results))

	h.writeJSON(w, http.StatusOK, SuggestResponse{Prefix: prefix, Results: results})
}

// Related returns graph recommendations for a product.
func (h *Handler) Related(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}
	depth := h.limits.DefaultDepth
	if depthStr := r.URL.Query().Get("depth"); depthStr != "" {
		parsed, err := strconv.Atoi(depthStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "depth must be a positive integer")
			return
		}
		if parsed > h.limits.MaxDepth {
			parsed = h.limits.MaxDepth
		}
		depth = parsed
	}

	ctx, span := tracing.StartSpan(ctx, "related", logger.RequestIDFromContext(ctx))
	span.SetAttr("product_id", id)
	span.SetAttr("depth", depth)
	results, err := h.cat.Recommend(id, depth, limit)
	span.End()

	if err != nil {
		h.observe(newEvent(analytics.EventRelated, "", id), "not_found", false, start, 0)
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	if results == nil {
		results = []catalog.Product{}
	}

	log.Info("related completed",
		"product_id", id,
		"depth", depth,
		"returned", len(results),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	event := newEvent(analytics.EventRelated, "", id)
	event.TotalHits = len(results)
	event.Returned = len(results)
	event.RequestID = logger.RequestIDFromContext(ctx)
	h.observe(event, outcomeFor(len(results)), false, start, len(results))

	h.writeJSON(w, http.StatusOK, RelatedResponse{ProductID: id, Depth: depth, Results: results})
}

// CacheStats reports hit/miss counters for the query cache.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate drops all cached search results.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// newEvent builds the base analytics event for an operation.
func newEvent(t analytics.EventType, query string, productID uint64) analytics.QueryEvent {
	return analytics.QueryEvent{
		Type:      t,
		Query:     query,
		ProductID: productID,
		Timestamp: time.Now().UTC(),
	}
}

func (h *Handler) observe(event analytics.QueryEvent, outcome string, cacheHit bool, start time.Time, returned int) {
	event.LatencyMs = time.Since(start).Milliseconds()
	if h.collector != nil {
		h.collector.Track(event)
	}
	if h.metrics == nil {
		return
	}
	op := string(event.Type)
	h.metrics.QueriesTotal.WithLabelValues(op, outcome).Inc()
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else if op == string(analytics.EventSearch) {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.QueryLatency.WithLabelValues(op, cacheStatus).Observe(time.Since(start).Seconds())
	h.metrics.QueryResultsCount.WithLabelValues(op).Observe(float64(returned))
}

func outcomeFor(hits int) string {
	if hits == 0 {
		return "empty"
	}
	return "ok"
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "product id must be an unsigned integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := h.limits.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return 0, false
		}
		if parsed > h.limits.MaxResults {
			parsed = h.limits.MaxResults
		}
		limit = parsed
	}
	return limit, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
