package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/coinconv/internal/coingecko"
	"github.com/mtlprog/coinconv/internal/config"
	"github.com/mtlprog/coinconv/internal/converter"
	"github.com/mtlprog/coinconv/internal/domain"
	"github.com/mtlprog/coinconv/internal/export"
	"github.com/mtlprog/coinconv/internal/market"
	"github.com/mtlprog/coinconv/internal/notify"
	"github.com/mtlprog/coinconv/internal/shell"
)

func convertCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "convert an amount once and print the result",
		ArgsUsage: "[amount]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Usage: "asset or fiat", Value: string(domain.ModeAssetToAsset)},
			&cli.StringFlag{Name: "from", Usage: "source asset id (defaults to the top asset)"},
			&cli.StringFlag{Name: "to", Usage: "target asset id (defaults to the second asset)"},
			&cli.StringFlag{Name: "fiat", Usage: "fiat currency code in fiat mode", Value: domain.DefaultFiat},
			&cli.BoolFlag{Name: "notify", Usage: "send the conversion notification"},
		},
		Action: func(c *cli.Context) error {
			mode, ok := domain.ParseMode(c.String("mode"))
			if !ok {
				return fmt.Errorf("unknown mode %q", c.String("mode"))
			}

			notifier, closeNotifier, err := newNotifier(cfg)
			if err != nil {
				return err
			}
			defer closeNotifier()

			view := converter.NewView(newMarket(cfg, nil), notifier, c.Int("limit"))
			view.Load(c.Context)
			if len(view.Assets()) == 0 {
				return errors.New("no assets available")
			}

			steps := []func() error{
				func() error { return view.SetMode(mode) },
			}
			if mode == domain.ModeFiatToAsset {
				steps = append(steps, func() error { return view.SetFiat(c.String("fiat")) })
			} else if id := c.String("from"); id != "" {
				steps = append(steps, func() error { return view.SelectSource(id) })
			}
			if id := c.String("to"); id != "" {
				steps = append(steps, func() error { return view.SelectTarget(id) })
			}
			if amount := c.Args().First(); amount != "" {
				steps = append(steps, func() error { return view.SetAmount(amount) })
			}
			for _, step := range steps {
				if err := step(); err != nil {
					return err
				}
			}

			return printConversion(c.Context, view, c.Bool("notify"))
		},
	}
}

func printConversion(ctx context.Context, view *converter.View, announce bool) error {
	summary, ok := converter.Summary(view.State())
	if !ok {
		return converter.ErrIncomplete
	}
	if announce {
		if _, err := view.Convert(ctx); err != nil {
			return err
		}
	}
	fmt.Println(summary)
	if rate, ok := view.ExchangeRate(); ok {
		fmt.Println(rate.Unit)
		fmt.Println(rate.USD)
	}
	return nil
}

func assetsCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:      "assets",
		Usage:     "list top assets, optionally filtered by name or symbol",
		ArgsUsage: "[query]",
		Action: func(c *cli.Context) error {
			assets, err := newMarket(cfg, nil).FetchTopAssets(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			assets = domain.FilterAssets(assets, strings.Join(c.Args().Slice(), " "))

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSYMBOL\tNAME\tPRICE")
			for _, a := range assets {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, a.Ticker(), a.Name, domain.FormatUSD(a.PriceUSD))
			}
			return tw.Flush()
		},
	}
}

func shellCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "interactive converter",
		Action: func(c *cli.Context) error {
			notifier, closeNotifier, err := newNotifier(cfg)
			if err != nil {
				return err
			}
			defer closeNotifier()

			view := converter.NewView(newMarket(cfg, nil), notifier, c.Int("limit"))
			return shell.New(view, os.Stdin, os.Stdout).Run(c.Context)
		},
	}
}

func exportCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write the rate table to an xlsx file or Google Sheets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "xlsx", Usage: "output xlsx path (Google Sheets when empty)"},
		},
		Action: func(c *cli.Context) error {
			var svc *export.Service
			if path := c.String("xlsx"); path != "" {
				svc = export.NewService(export.NewXLSXWriter(path))
			} else if cfg.SheetsEnabled() {
				var err error
				if svc, err = newSheetsExport(c.Context, cfg); err != nil {
					return err
				}
			} else {
				return errors.New("pass --xlsx or set GOOGLE_CREDENTIALS_JSON and SPREADSHEET_ID")
			}

			assets, err := newMarket(cfg, nil).FetchTopAssets(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			if err := svc.Export(c.Context, assets); err != nil {
				return err
			}
			slog.Info("rate table exported", "assets", len(assets))
			return nil
		},
	}
}

func newMarket(cfg config.Config, repo market.Repository) *market.Service {
	client := coingecko.NewClient(cfg.CoinGeckoURL, cfg.CoinGeckoAPIKey, cfg.CoinGeckoDelay, cfg.CoinGeckoRetryMax)
	return market.NewService(client, repo, cfg.MarketCacheTTL, cfg.AssetLimit)
}

// newNotifier always logs; with REDIS_URL set it also publishes to NOTIFY_CHANNEL.
func newNotifier(cfg config.Config) (notify.Notifier, func(), error) {
	if cfg.RedisURL == "" {
		return notify.LogNotifier{}, func() {}, nil
	}
	client, err := notify.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
	return notify.Multi{notify.LogNotifier{}, notify.NewRedisNotifier(client, cfg.NotifyChannel)}, closeFn, nil
}

func newSheetsExport(ctx context.Context, cfg config.Config) (*export.Service, error) {
	writer, err := export.NewSheetsWriter(ctx, cfg.SpreadsheetID, cfg.GoogleCredentialsJSON)
	if err != nil {
		return nil, fmt.Errorf("creating sheets writer: %w", err)
	}
	return export.NewService(writer), nil
}
