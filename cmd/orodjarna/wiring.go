package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/erazemk/orodjarna/internal/bot"
	"github.com/erazemk/orodjarna/internal/command"
	"github.com/erazemk/orodjarna/internal/config"
	"github.com/erazemk/orodjarna/internal/custody"
	"github.com/erazemk/orodjarna/internal/db"
	"github.com/erazemk/orodjarna/internal/dedup"
	"github.com/erazemk/orodjarna/internal/fallback"
	"github.com/erazemk/orodjarna/internal/store"
)

// openDatabase opens the database and ensures its schema.
func openDatabase(path string) (*sql.DB, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return database, nil
}

// newBot assembles the event pipeline over database. The caller sets Sink.
func newBot(ctx context.Context, cfg *config.Config, database *sql.DB) (*bot.Bot, error) {
	grammar, err := command.New(cfg.Grammar)
	if err != nil {
		return nil, fmt.Errorf("building grammar: %w", err)
	}

	records := store.NewRecords(database)
	exec := custody.NewExecutor(records, cfg.Policy())
	loc := custody.NewLocator(grammar, exec.Resolver)

	b := bot.New(grammar, dedup.New(cfg.Dedup.Capacity, cfg.DedupTTL()), exec, loc)
	b.Photos = records
	b.FallbackTimeout = cfg.FallbackTimeout()
	if cfg.Fallback.SystemPrompt != "" {
		b.SystemPrompt = cfg.Fallback.SystemPrompt
	}

	b.Generator, err = newGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (bot.Generator, error) {
	canned := fallback.Canned{Text: cfg.Fallback.CannedText}
	if cfg.Fallback.Provider == "canned" {
		return canned, nil
	}
	if cfg.Fallback.APIKey == "" {
		slog.Warn("no Gemini API key configured, using canned fallback replies")
		return canned, nil
	}

	gen, err := fallback.NewGemini(ctx, cfg.Fallback.APIKey, cfg.Fallback.Model)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini fallback: %w", err)
	}
	return gen, nil
}
