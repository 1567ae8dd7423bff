package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumeahq/lumea/internal/config"
	"github.com/lumeahq/lumea/internal/database"
	"github.com/lumeahq/lumea/internal/httpserver"
	"github.com/lumeahq/lumea/internal/metrics"
	"github.com/lumeahq/lumea/internal/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Can't use logger yet, fall back to panic
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	logger, err := middleware.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("starting lumea",
		zap.String("env", cfg.Server.Env),
		zap.String("addr", cfg.Server.Addr),
		zap.String("rollup_timezone", cfg.Rollup.Timezone),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize PostgreSQL. A missing database is not fatal; the server
	// falls back to the in-memory gateway for local development.
	db, err := database.NewPostgresDB(ctx, cfg.Database)
	if err != nil {
		logger.Warn("failed to connect to PostgreSQL, using in-memory storage", zap.Error(err))
		db = nil
	} else {
		defer db.Close()
	}

	// Initialize Redis. Without it clicks are still recorded, just never
	// marked unique.
	redis, err := database.NewRedisDB(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("failed to connect to Redis, click dedup disabled", zap.Error(err))
		redis = nil
	} else {
		defer redis.Close()
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.NewMetrics("lumea")
	}

	handler := httpserver.NewServer(&httpserver.Dependencies{
		DB:      db,
		Redis:   redis,
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("HTTP server starting", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Periodically push connection pool stats into Prometheus
	if db != nil && m != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					stat := db.Pool.Stat()
					m.UpdateDBStats(int(stat.IdleConns()), int(stat.AcquiredConns()), int(stat.TotalConns()))
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	cancel()

	logger.Info("server stopped")
}
