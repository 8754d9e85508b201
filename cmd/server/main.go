// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/revsplit/internal/analytics"
	"github.com/andresuchdata/revsplit/internal/api"
	"github.com/andresuchdata/revsplit/internal/cache"
	"github.com/andresuchdata/revsplit/internal/config"
	"github.com/andresuchdata/revsplit/internal/repository"
	"github.com/andresuchdata/revsplit/internal/repository/postgres"
	"github.com/andresuchdata/revsplit/internal/service"
	"github.com/andresuchdata/revsplit/internal/storage"
	"github.com/andresuchdata/revsplit/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.App.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	repo, closeRepo := newRepository(cfg)
	defer closeRepo()

	dashboardCache, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Dashboard cache unavailable, continuing without it")
		dashboardCache = cache.NewNoopDashboardCache()
	}

	objectStorage, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Object storage unavailable, uploads will not be archived")
		objectStorage = storage.NoopStorage{}
	}

	processor := analytics.NewProcessor(analytics.Config{
		LearningCutoffRowIndex: cfg.App.LearningCutoffRowIndex,
		Workers:                cfg.App.AnalyticsWorkers,
		Now:                    time.Now,
		Logger:                 logger.Component("analytics"),
	})

	dashboardService := service.NewDashboardService(repo, dashboardCache, objectStorage, processor)

	router := api.NewRouter(&api.Services{
		DashboardService: dashboardService,
		MaxUploadBytes:   int64(cfg.App.MaxUploadMB) << 20,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

// newRepository picks postgres when a database is configured and falls back
// to the in-memory store otherwise.
func newRepository(cfg *config.Config) (repository.DatasetRepository, func()) {
	if !cfg.Database.Enabled {
		logger.Log.Info().Msg("Database disabled, datasets are kept in memory")
		return repository.NewMemoryRepository(), func() {}
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to prepare database schema")
	}

	return postgres.NewDatasetRepository(db), func() { _ = db.Close() }
}
