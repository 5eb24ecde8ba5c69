package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/megastore/catalog-search/internal/analytics"
	"github.com/megastore/catalog-search/internal/catalog"
	"github.com/megastore/catalog-search/internal/ingest"
	"github.com/megastore/catalog-search/internal/loader"
	"github.com/megastore/catalog-search/internal/query"
	"github.com/megastore/catalog-search/internal/query/cache"
	"github.com/megastore/catalog-search/pkg/config"
	"github.com/megastore/catalog-search/pkg/health"
	"github.com/megastore/catalog-search/pkg/kafka"
	"github.com/megastore/catalog-search/pkg/logger"
	"github.com/megastore/catalog-search/pkg/metrics"
	"github.com/megastore/catalog-search/pkg/middleware"
	"github.com/megastore/catalog-search/pkg/postgres"
	pkgredis "github.com/megastore/catalog-search/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting catalog search service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat := catalog.New()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metrics.Handler())
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			slog.Info("metrics server listening", "addr", addr)
			if err := http.ListenAndServe(addr, metricsMux); err != nil {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	var pgClient *postgres.Client
	if cfg.Loader.Enabled {
		pgClient, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("postgres unavailable, bulk load skipped", "error", err)
		} else {
			defer pgClient.Close()
			loaded, err := loader.New(pgClient, cat, cfg.Loader.Table).Load(ctx)
			if err != nil {
				slog.Error("bulk load failed", "error", err)
				os.Exit(1)
			}
			slog.Info("catalog loaded from postgres", "products", loaded)
			if m != nil {
				stats := cat.Stats()
				m.ProductsTotal.Set(float64(stats.Products))
				m.GraphEdgesTotal.Set(float64(stats.Edges))
			}
		}
	}

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents)
	defer producer.Close()
	collector := analytics.NewCollector(producer, 100, 5*time.Second)
	collector.Start(ctx)
	defer collector.Close()

	if cfg.Ingest.Enabled {
		consumer := ingest.New(cfg.Kafka, cat)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("product ingest consumer error", "error", err)
			}
		}()
		slog.Info("product ingest consumer started", "topic", cfg.Kafka.Topics.ProductIngest)
	}

	checker := health.NewChecker()
	checker.Register("catalog", func(ctx context.Context) health.ComponentHealth {
		stats := cat.Stats()
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d products, %d terms, %d edges", stats.Products, stats.Terms, stats.Edges),
		}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	if pgClient != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pgClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	h := query.New(cat, queryCache, collector, m, query.Limits{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxResults:   cfg.Search.MaxResults,
		DefaultDepth: cfg.Search.DefaultDepth,
		MaxDepth:     cfg.Search.MaxDepth,
	})

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		chain = middleware.RateLimit(limiter)(chain)
	}
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("catalog search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog search service stopped")
}
