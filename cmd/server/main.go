package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"lead-scoring-service/internal/adapters/primary/http/handlers"
	"lead-scoring-service/internal/adapters/primary/http/middleware"
	"lead-scoring-service/internal/adapters/secondary/artifacts"
	"lead-scoring-service/internal/adapters/secondary/file"
	"lead-scoring-service/internal/adapters/secondary/postgres"
	"lead-scoring-service/internal/adapters/secondary/sysmem"
	"lead-scoring-service/internal/config"
	ports "lead-scoring-service/internal/core/ports/output"
	"lead-scoring-service/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	// ============================================================================
	// Secondary Adapters (Output Ports)
	// ============================================================================

	var registryStore ports.RegistryStore
	var eventLog ports.EventLog

	switch cfg.Storage.Backend {
	case "postgres":
		poolCfg, err := pgxpool.ParseConfig(cfg.Storage.DSN())
		if err != nil {
			log.Fatalf("parse db config: %v", err)
		}
		poolCfg.MaxConns = int32(cfg.Storage.MaxOpenConns)
		poolCfg.MinConns = int32(cfg.Storage.MaxIdleConns)
		poolCfg.MaxConnLifetime = cfg.Storage.ConnMaxLifetime

		pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
		if err != nil {
			log.Fatalf("create db pool: %v", err)
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			log.Fatalf("ping db: %v", err)
		}
		log.Info("database connection established")

		registryStore = postgres.NewRegistryStore(pool)
		eventLog = postgres.NewEventLog(pool)

	default:
		registryStore = file.NewRegistryStore(filepath.Join(cfg.Storage.DataDir, "model_performance.json"))
		eventLog = file.NewEventLog(
			filepath.Join(cfg.Storage.DataDir, "conversions.jsonl"),
			filepath.Join(cfg.Storage.DataDir, "monitoring_log.jsonl"),
		)
		log.WithField("data_dir", cfg.Storage.DataDir).Info("file storage backend initialized")
	}

	artifactStore := artifacts.NewStore(cfg.Artifacts.Dir)

	// Memory probe is best-effort; the engine runs fine without it.
	var memProbe ports.MemoryProbe
	if probe, err := sysmem.NewProbe(); err != nil {
		log.Warnf("memory probe unavailable (continuing without memory-pressure eviction): %v", err)
	} else {
		memProbe = probe
	}

	// ============================================================================
	// Core Services (Application Layer)
	// ============================================================================

	registry, err := services.NewPerformanceRegistry(context.Background(), registryStore, eventLog, nil)
	if err != nil {
		log.Fatalf("init performance registry: %v", err)
	}

	allocator := services.NewThompsonAllocator(cfg.Bandit.SamplingTrials)
	selector := services.NewModelSelector(registry, allocator, artifactStore)
	cache := services.NewModelCache(artifactStore, nil)
	lifecycle := services.NewLifecycleManager(registry, cache, memProbe, services.LifecycleConfig{
		KeepRecentModels:    cfg.Bandit.KeepRecentModels,
		MemoryHighWater:     uint64(cfg.Bandit.MemoryHighWaterMB) << 20,
		MemoryModerateWater: uint64(cfg.Bandit.MemoryModerateMB) << 20,
		MemoryCheckInterval: cfg.Bandit.MemoryCheckInterval,
	}, nil)

	engine := services.NewEngine(registry, allocator, selector, cache, lifecycle, eventLog, nil)

	// ============================================================================
	// Primary Adapter (HTTP)
	// ============================================================================

	h := handlers.New(engine)

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())

	api := router.Group("/api/v1/lead-scoring")
	h.RegisterRoutes(api)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
