package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/officetrack/backend/internal/adapter/postgres"
	activityrepo "github.com/officetrack/backend/internal/adapter/postgres/activity"
	addendumrepo "github.com/officetrack/backend/internal/adapter/postgres/addendum"
	feedrepo "github.com/officetrack/backend/internal/adapter/postgres/feed"
	officerepo "github.com/officetrack/backend/internal/adapter/postgres/office"
	profilerepo "github.com/officetrack/backend/internal/adapter/postgres/profile"
	subscriptionrepo "github.com/officetrack/backend/internal/adapter/postgres/subscription"
	templaterepo "github.com/officetrack/backend/internal/adapter/postgres/template"
	"github.com/officetrack/backend/internal/app"
	"github.com/officetrack/backend/internal/auth"
	"github.com/officetrack/backend/internal/config"
	"github.com/officetrack/backend/internal/notify"
	activitysvc "github.com/officetrack/backend/internal/service/activity"
	"github.com/officetrack/backend/internal/service/fanout"
	syncsvc "github.com/officetrack/backend/internal/service/sync"
	"github.com/officetrack/backend/internal/transport/middleware"
	"github.com/officetrack/backend/internal/transport/rest"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := app.NewLogger(cfg.Log)
	log.Info("starting", slog.String("version", app.BuildVersion()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	templates := templaterepo.New(pool)
	offices := officerepo.New(pool)
	activities := activityrepo.New(pool)
	profiles := profilerepo.New(pool)
	addendums := addendumrepo.New(pool)
	subscriptions := subscriptionrepo.New(pool)
	feed := feedrepo.New(pool)
	txManager := postgres.NewTxManager(pool)

	dispatcher := fanout.NewDispatcher(log, activities, profiles, feed, cfg.Fanout)
	dispatcher.Start()
	defer dispatcher.Stop()

	// No mail or SMS credentials are provisioned yet, so invites land in
	// the log.
	notifier := notify.New(log, notify.LogSink{Log: log}, notify.LogSink{Log: log})

	activityService := activitysvc.NewService(log,
		templates, offices, activities, profiles, addendums, subscriptions,
		dispatcher, notifier, txManager)
	syncService := syncsvc.NewService(log,
		feed, profiles, activities, offices, subscriptions, templates)

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)

	router := rest.NewRouter(rest.RouterDeps{
		Activity: rest.NewActivityHandler(activityService, log),
		Sync:     rest.NewSyncHandler(syncService, log),
		Health:   rest.NewHealthHandler(pool, dispatcher, app.BuildVersion()),
		Auth:     middleware.Auth(verifier),
	})

	limiter := middleware.NewRateLimiter(cfg.Server.RatePerMinute)
	handler := middleware.Chain(
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS(cfg.CORS),
		limiter.Limit,
	)(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
