package main

import (
	"context"
	"embed"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/coinconv/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	app := &cli.App{
		Name:  "coinconv",
		Usage: "convert between top cryptocurrencies and fiat currencies",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "number of top assets to load",
				Value: cfg.AssetLimit,
			},
		},
		Commands: []*cli.Command{
			serveCommand(cfg),
			convertCommand(cfg),
			assetsCommand(cfg),
			shellCommand(cfg),
			exportCommand(cfg),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatalf("coinconv: %v", err)
	}
}
