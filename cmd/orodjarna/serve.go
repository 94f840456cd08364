package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/orodjarna/internal/api"
	"github.com/erazemk/orodjarna/internal/config"
	"github.com/erazemk/orodjarna/internal/slackapp"
	"github.com/erazemk/orodjarna/internal/store"
)

func cmdServe(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := openDatabase(cfg.Server.DB)
	if err != nil {
		return err
	}
	defer database.Close()
	slog.Info("database ready", "path", cfg.Server.DB)

	// Load the token secret from the database (generated on first run).
	secret, err := store.GetTokenSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading token secret: %w", err)
	}

	b, err := newBot(ctx, cfg, database)
	if err != nil {
		return err
	}

	if cfg.Slack.BotToken != "" {
		b.Sink = slackapp.NewSink(cfg.Slack.BotToken)
	} else {
		slog.Warn("no Slack bot token configured, replies are written to stdout")
		b.Sink = &consoleSink{w: os.Stdout}
	}
	if cfg.Slack.SigningSecret == "" {
		slog.Warn("no Slack signing secret configured, webhook requests are not verified")
	}

	events := slackapp.NewHandler(b, cfg.Slack.SigningSecret)
	events.HandleTimeout = cfg.HandleTimeout()

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.LoggingMiddleware(newMux(database, secret, events)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server started", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}

		// Mentions acknowledged before shutdown still get their reply.
		events.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped, closing database")
	return nil
}

func newMux(database *sql.DB, secret string, events http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/", api.NewRouter(database, secret))
	mux.Handle("POST /slack/events", events)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok\n"))
	})
	return mux
}
