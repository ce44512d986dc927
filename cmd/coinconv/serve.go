package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/coinconv/internal/api"
	"github.com/mtlprog/coinconv/internal/config"
	"github.com/mtlprog/coinconv/internal/database"
	"github.com/mtlprog/coinconv/internal/market"
	"github.com/mtlprog/coinconv/internal/worker"
)

func serveCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API with periodic market refresh",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "HTTP port", Value: cfg.HTTPPort},
			&cli.DurationFlag{Name: "refresh", Usage: "market refresh interval", Value: cfg.RefreshInterval},
		},
		Action: func(c *cli.Context) error {
			if c.Duration("refresh") <= 0 {
				return fmt.Errorf("--refresh must be positive, got %s", c.Duration("refresh"))
			}
			cfg.HTTPPort = c.String("port")
			cfg.RefreshInterval = c.Duration("refresh")
			cfg.AssetLimit = c.Int("limit")
			return serve(c.Context, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	var repo market.Repository
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		migrationsSub, err := fs.Sub(migrationsFS, "migrations")
		if err != nil {
			return fmt.Errorf("creating migrations sub-fs: %w", err)
		}
		if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		repo = market.NewPgAssetRepository(pool)
	} else {
		slog.Warn("DATABASE_URL not set, market list is kept in memory only")
	}

	marketSvc := newMarket(cfg, repo)

	notifier, closeNotifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}
	defer closeNotifier()

	var hook worker.AfterRefreshHook
	if cfg.SheetsEnabled() {
		exportSvc, err := newSheetsExport(ctx, cfg)
		if err != nil {
			return err
		}
		hook = exportSvc
	}

	refreshWorker := worker.NewRefreshWorker(marketSvc, cfg.RefreshInterval, hook)
	go refreshWorker.Run(ctx)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, refresh endpoint is unprotected")
	}

	srv := api.NewServer(cfg.HTTPPort, marketSvc, notifier, cfg.AdminAPIKey)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
