package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentrygo "github.com/getsentry/sentry-go"

	"github.com/jamshare/backend/internal/broker"
	"github.com/jamshare/backend/internal/catalog"
	"github.com/jamshare/backend/internal/config"
	"github.com/jamshare/backend/internal/engine"
	"github.com/jamshare/backend/internal/keys"
	"github.com/jamshare/backend/internal/logging"
	"github.com/jamshare/backend/internal/presence"
	"github.com/jamshare/backend/internal/router"
	"github.com/jamshare/backend/internal/sentry"
	"github.com/jamshare/backend/internal/store"
)

func main() {
	// Initialize structured logging (reads LOGGING_LEVEL env var)
	logging.Initialize()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Optional error reporting
	if cfg.SentryDSN != "" {
		if err := sentrygo.Init(sentrygo.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.SentryEnvironment,
			BeforeSend:  sentry.ScrubEvent,
		}); err != nil {
			slog.Error("failed to initialize sentry", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer sentrygo.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Core components
	idGen := keys.NewGenerator()
	sessionStore := store.NewMemoryStore(idGen.SessionID)
	tracker := presence.NewTracker(cfg.PresenceTimeout)
	bus := broker.New()
	controller := engine.NewController(sessionStore, tracker, bus)
	catalogClient := catalog.New(cfg.CatalogBaseURL)

	// Push client-count changes to connected subscribers.
	tracker.OnChange(func(sessionID string, count int) {
		if s, err := sessionStore.Get(sessionID); err == nil {
			bus.Publish(broker.Event{
				SessionID: sessionID,
				Version:   s.Version,
				Changed:   []string{"clientCount"},
			})
		}
	})

	// Background maintenance
	go tracker.Run(ctx, cfg.SweepInterval)
	janitor := store.NewJanitor(sessionStore, tracker, cfg.SessionTTL)
	go janitor.Run(ctx, cfg.JanitorInterval)

	// HTTP server
	r := router.New(cfg, router.Deps{
		Store:      sessionStore,
		Presence:   tracker,
		Broker:     bus,
		Controller: controller,
		Catalog:    catalogClient,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("starting server", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", slog.String("error", err.Error()))
	}
}
