package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nfl-pickem/bootstrap"
	"nfl-pickem/config"
	"nfl-pickem/handlers"
	"nfl-pickem/logging"
	"nfl-pickem/middleware"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "time/tzdata"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Configure(cfg.ToLoggingConfig())
	defer logging.Sync()
	cfg.LogConfiguration()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logging.Fatalf("Startup failed: %v", err)
	}
	defer app.Close()

	if cfg.Scheduler.Enabled {
		if err := app.Updater.Start(); err != nil {
			logging.Fatalf("Failed to start background updater: %v", err)
		}
	} else {
		logging.Info("Background updater disabled; jobs can still be run from the admin API")
	}

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger, middleware.SecurityMiddleware)

	handlers.RegisterRoutes(r, handlers.Handlers{
		Auth:        handlers.NewAuthHandler(app.Auth, cfg.Auth.TokenTTL, !cfg.IsDevelopment()),
		Games:       handlers.NewGameHandler(app.Repos.Games, app.Season),
		Picks:       handlers.NewPickHandler(app.Picks, app.Season),
		Admin:       handlers.NewAdminHandler(app.Reconciler, app.Scoring, app.Standings, app.Updater, app.Schedule, app.Season),
		AdminGames:  handlers.NewAdminGameHandler(app.Games, app.Season),
		Users:       handlers.NewUserHandler(app.Users),
		Leaderboard: handlers.NewLeaderboardHandler(app.Standings, app.Activity, app.Season),
		Health:      handlers.NewHealthHandler(app.Storage, app.Ping()),
	}, middleware.NewAuthMiddleware(app.Auth))

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
	}

	server := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// admin job runs are synchronous and bounded by the job timeout
		WriteTimeout: cfg.Scheduler.JobTimeout + 30*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logging.Infof("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Errorf("Server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Errorf("Graceful shutdown failed: %v", err)
	}
}
