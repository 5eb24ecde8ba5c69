// Command loadtest seeds a running catalog search service with synthetic
// products and drives mixed search, suggest, and related traffic against it,
// printing a latency summary at the end.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	adjectives = []string{"red", "blue", "green", "black", "white", "compact", "wireless", "ergonomic", "premium", "classic"}
	nouns      = []string{"shoe", "jacket", "keyboard", "monitor", "blender", "lamp", "backpack", "headphones", "kettle", "chair"}
	brands     = []string{"nike", "acme", "globex", "initech", "umbrella"}
	categories = []string{"footwear", "apparel", "electronics", "kitchen", "furniture"}
)

type sample struct {
	op      string
	latency time.Duration
	status  int
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "base URL of the catalog search service")
	products := flag.Int("products", 500, "number of products to seed")
	queries := flag.Int("queries", 5000, "number of queries to issue")
	workers := flag.Int("workers", 8, "concurrent query workers")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	ids, err := seed(client, *addr, *products)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded %d products\n", len(ids))

	var mu sync.Mutex
	var samples []sample

	start := time.Now()
	g, ctx := errgroup.WithContext(context.Background())
	perWorker := *queries / *workers
	for w := 0; w < *workers; w++ {
		seedVal := int64(w + 1)
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seedVal))
			local := make([]sample, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s, err := issue(ctx, client, *addr, rng, ids)
				if err != nil {
					return err
				}
				local = append(local, s)
			}
			mu.Lock()
			samples = append(samples, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "load test failed: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	report(samples, elapsed)
}

func seed(client *http.Client, addr string, n int) ([]uint64, error) {
	rng := rand.New(rand.NewSource(42))
	ids := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		body, _ := json.Marshal(map[string]string{
			"name":        fmt.Sprintf("%s %s %d", adjectives[rng.Intn(len(adjectives))], nouns[rng.Intn(len(nouns))], i),
			"brand":       brands[rng.Intn(len(brands))],
			"category":    categories[rng.Intn(len(categories))],
			"description": "synthetic load test product",
		})
		resp, err := client.Post(addr+"/api/v1/products", "application/json", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		var created struct {
			ID uint64 `json:"id"`
		}
		err = json.NewDecoder(resp.Body).Decode(&created)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding create response: %w", err)
		}
		if resp.StatusCode != http.StatusCreated {
			return nil, fmt.Errorf("create returned status %d", resp.StatusCode)
		}
		ids = append(ids, created.ID)
	}
	return ids, nil
}

func issue(ctx context.Context, client *http.Client, addr string, rng *rand.Rand, ids []uint64) (sample, error) {
	var op, url string
	switch rng.Intn(3) {
	case 0:
		op = "search"
		url = fmt.Sprintf("%s/api/v1/search?q=%s+%s", addr, adjectives[rng.Intn(len(adjectives))], nouns[rng.Intn(len(nouns))])
	case 1:
		op = "suggest"
		url = fmt.Sprintf("%s/api/v1/suggest?prefix=%s", addr, adjectives[rng.Intn(len(adjectives))][:2])
	default:
		op = "related"
		url = fmt.Sprintf("%s/api/v1/products/%d/related?depth=%d", addr, ids[rng.Intn(len(ids))], 1+rng.Intn(2))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return sample{}, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return sample{}, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return sample{op: op, latency: time.Since(start), status: resp.StatusCode}, nil
}

func report(samples []sample, elapsed time.Duration) {
	byOp := make(map[string][]time.Duration)
	errors := 0
	for _, s := range samples {
		byOp[s.op] = append(byOp[s.op], s.latency)
		if s.status >= 500 {
			errors++
		}
	}

	fmt.Printf("\n%d requests in %s (%.0f req/s), %d server errors\n\n",
		len(samples), elapsed.Round(time.Millisecond), float64(len(samples))/elapsed.Seconds(), errors)
	fmt.Printf("%-10s %8s %10s %10s %10s\n", "op", "count", "p50", "p95", "p99")
	for _, op := range []string{"search", "suggest", "related"} {
		lats := byOp[op]
		if len(lats) == 0 {
			continue
		}
		sort.Slice(lats, func(i, j int) bool { return lats[i] < lats[j] })
		fmt.Printf("%-10s %8d %10s %10s %10s\n", op, len(lats),
			percentile(lats, 0.50), percentile(lats, 0.95), percentile(lats, 0.99))
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx].Round(time.Microsecond)
}
