package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/nidhogg/cogito/internal/api"
	"github.com/nidhogg/cogito/internal/cognition"
	"github.com/nidhogg/cogito/internal/config"
	"github.com/nidhogg/cogito/internal/monitor"
	"github.com/nidhogg/cogito/internal/repository"
	"github.com/nidhogg/cogito/internal/workmem"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting Cogito...")

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/cogito.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("failed to load config, using defaults", zap.String("path", cfgPath), zap.Error(err))
		cfg = config.Default()
	} else {
		logger.Info("Config loaded", zap.String("path", cfgPath))
	}

	ctx := context.Background()

	// Initialize the persistence backend. An unavailable backend degrades to
	// in-process state rather than refusing to start.
	var repo repository.Repository
	switch cfg.Persistence.Backend {
	case "postgres":
		if pg, pgErr := repository.NewPostgres(ctx, cfg.Persistence.Postgres.DSN, logger); pgErr != nil {
			logger.Warn("PostgreSQL unavailable, running without persistence", zap.Error(pgErr))
		} else {
			repo = pg
		}
	case "redis":
		if rd, rdErr := repository.NewRedis(ctx, cfg.Persistence.Redis.URL, logger); rdErr != nil {
			logger.Warn("Redis unavailable, running without persistence", zap.Error(rdErr))
		} else {
			repo = rd
		}
	case "sqlite":
		if sq, sqErr := repository.NewSQLite(ctx, cfg.Persistence.SQLite.Path, logger); sqErr != nil {
			logger.Warn("SQLite unavailable, running without persistence", zap.Error(sqErr))
		} else {
			repo = sq
		}
	case "", "memory":
		repo = repository.NewMemory()
	default:
		logger.Warn("unknown persistence backend, running without persistence",
			zap.String("backend", cfg.Persistence.Backend))
	}

	// Prometheus registry and subsystem metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := monitor.NewMetrics(registry)

	// Assemble the cognitive subsystem
	wmOpts := workmem.DefaultOptions()
	if cfg.Memory.WorkingCapacity > 0 {
		wmOpts.Capacity = cfg.Memory.WorkingCapacity
	}
	if cfg.Memory.RelevanceThreshold > 0 {
		wmOpts.RelevanceThreshold = cfg.Memory.RelevanceThreshold
	}
	subsystem := cognition.New(logger, repo, metrics, cognition.Options{
		WorkingMemory:       wmOpts,
		MaintenanceInterval: time.Duration(cfg.Memory.MaintenanceIntervalSeconds) * time.Second,
	})
	if err := subsystem.Start(ctx); err != nil {
		logger.Fatal("failed to start subsystem", zap.Error(err))
	}

	// Build HTTP handler
	handler := api.NewHandler(subsystem, registry, logger)

	// Start server
	port := fmt.Sprintf("%d", cfg.Server.Port)
	if port == "0" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("Cogito listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Cogito...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	if err := subsystem.Stop(shutdownCtx); err != nil {
		logger.Error("failed to persist state on shutdown", zap.Error(err))
	}
	if repo != nil {
		repo.Close()
	}
}
