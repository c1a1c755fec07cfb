// Command events is the event service: lifecycle, participation requests
// and the public event API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Shivanand-hulikatti/explore-events/internal/cache"
	"github.com/Shivanand-hulikatti/explore-events/internal/config"
	"github.com/Shivanand-hulikatti/explore-events/internal/database"
	"github.com/Shivanand-hulikatti/explore-events/internal/handler"
	"github.com/Shivanand-hulikatti/explore-events/internal/lib/logger"
	"github.com/Shivanand-hulikatti/explore-events/internal/lib/logger/sl"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
	"github.com/Shivanand-hulikatti/explore-events/internal/service"
	"github.com/Shivanand-hulikatti/explore-events/internal/statsclient"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	log.Info("starting events service", slog.String("env", cfg.Env))

	ctx := context.Background()

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, log, cfg.DB)
	if err != nil {
		log.Error("database unavailable", sl.Err(err))
		os.Exit(1)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		log.Error("migration failed", sl.Err(err))
		os.Exit(1)
	}

	// ── 2. Stats client, hit dispatcher and view cache ────────────────────
	stats := statsclient.New(cfg.Stats.URL, cfg.Stats.Timeout)
	dispatcher := statsclient.NewDispatcher(log, stats, cfg.Stats.QueueSize, cfg.Stats.Workers, cfg.Stats.Timeout)
	dispatcher.Start()

	var views service.ViewCache
	if cfg.Redis.Addr != "" {
		client, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			// Stale counts are optional; run without them.
			log.Warn("view cache disabled", sl.Err(err))
		} else {
			defer client.Close()
			views = cache.NewViewCache(client, cfg.Redis.TTL)
		}
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	composer := service.NewComposer(log, requestRepo, userRepo, categoryRepo, stats, views, cfg.Stats.Timeout)
	router := handler.NewEventsRouter(handler.EventsDeps{
		Log:       log,
		Events:    service.NewEventService(log, eventRepo, userRepo, categoryRepo, composer, dispatcher, cfg.Stats.AppName),
		Requests:  service.NewRequestService(log, requestRepo, eventRepo, userRepo),
		Directory: service.NewDirectoryService(userRepo, categoryRepo),
		Timeout:   cfg.HTTPServer.Timeout,
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server listening", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", sl.Err(err))
			os.Exit(1)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", sl.Err(err))
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Warn("pending hits were not delivered", sl.Err(err))
	}
	log.Info("server stopped")
}
