package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/cab-booking-backend/internal/app"
	"github.com/nekogravitycat/cab-booking-backend/internal/association"
	"github.com/nekogravitycat/cab-booking-backend/internal/config"
	"github.com/nekogravitycat/cab-booking-backend/internal/db"
	"github.com/nekogravitycat/cab-booking-backend/internal/pkg/logger"
	"github.com/nekogravitycat/cab-booking-backend/internal/store/memory"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Logger
	l, err := logger.New(cfg.IsProduction)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer l.Sync()
	zap.ReplaceGlobals(l)

	containerCfg := app.Config{
		ProdOrigins:           cfg.ProdOrigins,
		AssociationCacheTTL:   cfg.AssociationCacheTTL,
		JWTSecret:             cfg.JWTSecret,
		JWTTTL:                cfg.JWTAccessTokenTTL,
		OpenMarketExclusivity: cfg.OpenMarketExclusivity,
		RateLimitPerMinute:    cfg.RateLimitPerMinute,
		RateLimitBurst:        cfg.RateLimitBurst,
		Logger:                l,
	}

	// Store
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.New()
		if cfg.SeedFile != "" {
			if err := store.LoadSeedFile(cfg.SeedFile); err != nil {
				l.Fatal("failed to load seed file", zap.String("path", cfg.SeedFile), zap.Error(err))
			}
		}
		containerCfg.MemoryStore = store
		l.Warn("using in-memory store, data is lost on exit")
	default:
		pool, err := db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			l.Fatal("failed to connect to db", zap.Error(err))
		}
		defer pool.Close()

		if cfg.DBAutoMigrate {
			if err := db.Migrate(ctx, pool); err != nil {
				l.Fatal("failed to migrate db", zap.Error(err))
			}
			l.Info("database schema applied")
		}
		containerCfg.DBPool = pool
	}

	// Association cache
	if cfg.RedisURL != "" {
		rdb, err := association.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			l.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		containerCfg.RedisClient = rdb
	}

	container := app.NewContainer(containerCfg)

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		l.Info("server running", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	l.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error("server forced to shutdown", zap.Error(err))
	}

	l.Info("server exited gracefully")
}
