package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ridwanfathin/price-dashboard-service/internal/activity"
	"github.com/ridwanfathin/price-dashboard-service/internal/backend"
	"github.com/ridwanfathin/price-dashboard-service/internal/cache"
	"github.com/ridwanfathin/price-dashboard-service/internal/config"
	"github.com/ridwanfathin/price-dashboard-service/internal/database"
	"github.com/ridwanfathin/price-dashboard-service/internal/export"
	"github.com/ridwanfathin/price-dashboard-service/internal/handler"
	"github.com/ridwanfathin/price-dashboard-service/internal/recordstore"
	"github.com/ridwanfathin/price-dashboard-service/internal/server"
	"github.com/ridwanfathin/price-dashboard-service/internal/service"
	"github.com/ridwanfathin/price-dashboard-service/internal/stats"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server shutdown complete")
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("initializing snapshot cache", "backend", cfg.CacheBackend)
	snapshotCache, closeCache, err := buildCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize %s cache: %w", cfg.CacheBackend, err)
	}
	defer closeCache()

	backendClient := backend.NewClient(&backend.Config{
		BaseURL:     cfg.BackendURL,
		Token:       cfg.BackendToken,
		Timeout:     cfg.BackendTimeout,
		MaxAttempts: cfg.BackendMaxAttempts,
		Logger:      logger,
	})

	lastVisitMode, err := activity.ParseLastVisitMode(cfg.LastVisitMode)
	if err != nil {
		logger.Warn("invalid LAST_VISIT_MODE, using now", "error", err)
		lastVisitMode = activity.LastVisitNow
	}
	location := cfg.Location()

	records := recordstore.New(backendClient, snapshotCache, logger)
	activityAggregator := activity.New(activity.Options{
		LastVisitMode: lastVisitMode,
		Location:      location,
	})
	statsAggregator := stats.New(&stats.Config{
		Fetcher: backendClient,
		Cache:   snapshotCache,
		Records: records,
		Local: stats.LocalOptions{
			Activity: activityAggregator,
			Location: location,
		},
		Logger: logger,
	})

	dashboardService := service.NewDashboardService(records, statsAggregator, activityAggregator, export.NewService(logger), logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, cfg.CurrencySuffix, logger)

	go records.Run(ctx, cfg.RefreshInterval)

	appServer := server.NewServer(cfg, dashboardHandler, logger)
	return appServer.Start(ctx)
}

// buildCache opens the configured snapshot cache and returns its cleanup function
func buildCache(ctx context.Context, cfg *config.Config) (cache.Cache, func(), error) {
	noop := func() {}

	switch cfg.CacheBackend {
	case config.CacheSQLite:
		c, err := cache.OpenSQLiteCache(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return c, func() { _ = c.Close() }, nil

	case config.CachePostgres:
		db, err := database.NewPostgresDB(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, noop, err
		}
		c, err := cache.NewPostgresCache(ctx, db.GetPool())
		if err != nil {
			db.Close()
			return nil, noop, err
		}
		return c, db.Close, nil

	case config.CacheS3:
		c, err := cache.NewS3Cache(&cache.S3Config{
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			AccessKeySecret: cfg.S3AccessKeySecret,
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Prefix:          cfg.S3Prefix,
		})
		if err != nil {
			return nil, noop, err
		}
		return c, noop, nil

	default:
		return cache.NewMemoryCache(), noop, nil
	}
}

func newLogger(format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
