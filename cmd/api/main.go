package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Minister124/BlazorAuth-sub000/internal/audit"
	"github.com/Minister124/BlazorAuth-sub000/internal/cache"
	"github.com/Minister124/BlazorAuth-sub000/internal/config"
	"github.com/Minister124/BlazorAuth-sub000/internal/database"
	"github.com/Minister124/BlazorAuth-sub000/internal/handlers"
	"github.com/Minister124/BlazorAuth-sub000/internal/jobs"
	"github.com/Minister124/BlazorAuth-sub000/internal/log"
	"github.com/Minister124/BlazorAuth-sub000/internal/repository"
	"github.com/Minister124/BlazorAuth-sub000/internal/server"
	"github.com/Minister124/BlazorAuth-sub000/internal/service"
	"github.com/Minister124/BlazorAuth-sub000/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	var (
		repos  repository.Set
		dbPool *pgxpool.Pool
	)
	switch cfg.Store.Driver {
	case "postgres":
		dbPool, err = database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect postgres")
		}
		repos = repository.NewPostgresSet(dbPool)
	case "memory":
		repos = repository.NewMemorySet()
		logger.Warn().Msg("memory store selected; data will not survive a restart")
	default:
		logger.Fatal().Str("driver", cfg.Store.Driver).Msg("unknown store driver")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		// The cache and audit stream are optional; the API degrades to
		// direct role lookups and skips audit publishing.
		logger.Warn().Err(err).Msg("redis unavailable, continuing without cache")
		redisClient = nil
	}

	var objectStore *storage.ObjectStore
	if cfg.Storage.Endpoint != "" {
		objectStore, err = storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBuckets(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure buckets failed")
		}
	}

	auditor := audit.NewPublisher(redisClient, cfg.Audit.Stream, logger)

	if err := service.Seed(ctx, repos, cfg.Security.BootstrapEmail, cfg.Security.BootstrapPassword, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed failed")
	}

	handlerSet := handlers.NewHandlerSet(logger, repos, dbPool, redisClient, objectStore, auditor, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(repos.Sessions, repos.Users, auditor, cfg.Security.PendingExpiryDays, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		cancel := scheduler.Stop()
		cancel()
	}

	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
