// Package cache implements the Redis-backed search result cache. Keys are
// derived from the normalized (sorted-token) query so equivalent queries
// share an entry, and concurrent misses for the same key are collapsed with
// singleflight.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/megastore/catalog-search/internal/catalog/tokenizer"
	"github.com/megastore/catalog-search/internal/query/executor"
	"github.com/megastore/catalog-search/pkg/config"
	pkgredis "github.com/megastore/catalog-search/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "search:"

// QueryCache caches executor results in Redis with a TTL.
type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a QueryCache over the given Redis client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached result for (query, limit) if present.
func (c *QueryCache) Get(ctx context.Context, query string, limit int) (*executor.Result, bool) {
	key := c.buildKey(query, limit)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var result executor.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", query, "key", key)
	return &result, true
}

// Set stores a result for (query, limit) with the configured TTL.
func (c *QueryCache) Set(ctx context.Context, query string, limit int, result *executor.Result) {
	key := c.buildKey(query, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or computes and stores one,
// collapsing concurrent misses for the same key into a single computation.
// The second return value reports whether the result came from cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	limit int,
	computeFn func() (*executor.Result, error),
) (*executor.Result, bool, error) {
	if result, ok := c.Get(ctx, query, limit); ok {
		return result, true, nil
	}
	key := c.buildKey(query, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.Get(ctx, query, limit); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.Result), false, nil
}

// Invalidate removes every cached search result. Called after a catalog
// mutation so stale intersections are never served past the mutation.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns hit and miss counts since start.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) buildKey(query string, limit int) string {
	raw := fmt.Sprintf("%s:limit=%d", NormalizeQuery(query), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// NormalizeQuery reduces a free-text query to a canonical key form: its
// deduplicated tokens in sorted order. Token order does not change an AND
// intersection, so reordered queries share a cache entry.
func NormalizeQuery(query string) string {
	terms := tokenizer.Tokenize(query)
	sort.Strings(terms)
	return strings.Join(terms, ",")
}
