package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/erazemk/orodjarna/internal/auth"
	"github.com/erazemk/orodjarna/internal/config"
	"github.com/erazemk/orodjarna/internal/store"
)

// cmdToken issues an admin API token for the subject given as argument.
func cmdToken(cfg *config.Config, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return errors.New("usage: orodjarna token <subject>")
	}

	ctx := context.Background()
	database, err := openDatabase(cfg.Server.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	secret, err := store.GetTokenSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading token secret: %w", err)
	}

	token, claims, err := auth.GenerateToken(secret, args[0], cfg.TokenTTL())
	if err != nil {
		return err
	}

	slog.Info("token issued", "subject", claims.Subject, "token", claims.ID, "expires", claims.ExpiresAt.Time)
	fmt.Println(token)
	return nil
}

// cmdRevoke revokes the token given as argument.
func cmdRevoke(cfg *config.Config, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return errors.New("usage: orodjarna revoke <token>")
	}

	ctx := context.Background()
	database, err := openDatabase(cfg.Server.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	secret, err := store.GetTokenSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading token secret: %w", err)
	}

	claims, err := auth.ValidateToken(secret, args[0])
	if err != nil {
		return fmt.Errorf("token is not valid, nothing to revoke: %w", err)
	}

	if err := store.RevokeToken(ctx, database, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}

	slog.Info("token revoked", "subject", claims.Subject, "token", claims.ID)
	return nil
}
