package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radiusdt/vector-insights/internal/analysis"
	"github.com/radiusdt/vector-insights/internal/config"
	"github.com/radiusdt/vector-insights/internal/database"
	"github.com/radiusdt/vector-insights/internal/httpserver"
	"github.com/radiusdt/vector-insights/internal/insights"
	"github.com/radiusdt/vector-insights/internal/metrics"
	"github.com/radiusdt/vector-insights/internal/middleware"
	"github.com/radiusdt/vector-insights/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := middleware.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting Vector-Insights",
		zap.String("env", cfg.Server.Env),
		zap.String("addr", cfg.Server.Addr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("vector_insights", reg)

	// Record source: PostgreSQL first, then ClickHouse
	var source storage.RecordSource
	if cfg.Database.Enabled {
		db, err := database.NewPostgresDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Warn("PostgreSQL not available, source analyses disabled", zap.Error(err))
		} else {
			defer db.Close()
			source = storage.NewPostgresRecordSource(db.Pool, cfg.Database.Table)
		}
	}
	if source == nil && cfg.ClickHouse.Enabled {
		ch, err := database.NewClickHouseDB(ctx, cfg.ClickHouse, logger)
		if err != nil {
			logger.Warn("ClickHouse not available, source analyses disabled", zap.Error(err))
		} else {
			defer ch.Close()
			source = storage.NewClickHouseRecordSource(ch.Conn, cfg.ClickHouse.Table)
		}
	}

	// Result cache: Redis when reachable, process memory otherwise
	var cache storage.ResultCache = storage.NewInMemoryResultCache(cfg.Analysis.CacheSize)
	if cfg.Redis.Enabled {
		rdb, err := database.NewRedisDB(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis not available, caching results in memory", zap.Error(err))
		} else {
			defer rdb.Close()
			cache = storage.NewRedisResultCache(rdb.Client, cfg.Redis.TTL)
		}
	}

	svc := insights.NewService(insights.Config{
		Thresholds:       cfg.Analysis.Thresholds,
		Levels:           analysis.DefaultOptions(),
		ConversionColumn: cfg.Analysis.ConversionColumn,
		Cache:            cache,
		Source:           source,
		Metrics:          m,
		Logger:           logger,
	})

	rl := middleware.NewRateLimitMiddleware(cfg.RateLimit, logger, m)
	handler := httpserver.NewServer(&httpserver.Dependencies{
		Service:     svc,
		Config:      cfg,
		Logger:      logger,
		Metrics:     m,
		Gatherer:    reg,
		RateLimiter: rl,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Drop idle per-client limiters
	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := rl.CleanupClients(10 * time.Minute); n > 0 {
					logger.Debug("removed idle rate limiters", zap.Int("count", n))
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced to shutdown", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
