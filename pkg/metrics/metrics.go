// Package metrics defines the Prometheus metric collectors for the catalog
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	ProductsTotal        prometheus.Gauge
	ProductsAddedTotal   prometheus.Counter
	GraphEdgesTotal      prometheus.Gauge
	QueriesTotal         *prometheus.CounterVec
	QueryLatency         *prometheus.HistogramVec
	QueryResultsCount    *prometheus.HistogramVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		ProductsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_products_total",
				Help: "Number of products currently in the catalog.",
			},
		),
		ProductsAddedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_products_added_total",
				Help: "Total products added since start.",
			},
		),
		GraphEdgesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "recommendation_graph_edges_total",
				Help: "Number of distinct edges in the recommendation graph.",
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_queries_total",
				Help: "Total queries by operation (search, suggest, related) and outcome (ok, empty, not_found, error).",
			},
			[]string{"op", "outcome"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_query_latency_seconds",
				Help:    "Query latency in seconds by operation and cache status.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"op", "cache_status"},
		),
		QueryResultsCount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_query_results_count",
				Help:    "Number of results returned per query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
			[]string{"op"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of query cache misses.",
			},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ProductsTotal,
		m.ProductsAddedTotal,
		m.GraphEdgesTotal,
		m.QueriesTotal,
		m.QueryLatency,
		m.QueryResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
