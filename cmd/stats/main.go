// Command stats is the analytics service: hit recording and view queries.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Shivanand-hulikatti/explore-events/internal/config"
	"github.com/Shivanand-hulikatti/explore-events/internal/database"
	"github.com/Shivanand-hulikatti/explore-events/internal/handler"
	"github.com/Shivanand-hulikatti/explore-events/internal/lib/logger"
	"github.com/Shivanand-hulikatti/explore-events/internal/lib/logger/sl"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
	"github.com/Shivanand-hulikatti/explore-events/internal/service"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	log.Info("starting stats service", slog.String("env", cfg.Env))

	ctx := context.Background()

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

	svc := service.NewStatsService(log, repository.NewHitRepository(pool))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      handler.NewStatsRouter(log, svc, cfg.HTTPServer.Timeout),
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", sl.Err(err))
	}
	log.Info("server stopped")
}
