// Package main is the horizon command line tool. It imports monthly return
// files, runs bootstrap simulations into a directory and turns stored
// monthly paths into annual return tables.
package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/aristath/horizon/internal/modules/annual"
	"github.com/aristath/horizon/pkg/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log := logger.New(logger.Config{Level: "error", Pretty: true})
		log.Error().Err(err).Msg("horizon failed")
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "horizon",
		Usage: "bootstrap simulation of long horizon monthly returns",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", EnvVars: []string{"LOG_LEVEL"}},
		},
		Commands: []*cli.Command{
			{
				Name:  "import",
				Usage: "load monthly return CSV files into the history database",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dir", Usage: "directory of <asset>_monthly_returns.csv files", Required: true},
					&cli.StringFlag{Name: "db", Usage: "history database path (defaults to the configured data dir)"},
				},
				Action: importAction,
			},
			{
				Name:  "simulate",
				Usage: "bootstrap monthly paths and save one array per asset",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "returns-dir", Usage: "read returns from CSV files in this directory"},
					&cli.BoolFlag{Name: "from-db", Usage: "read returns from the history database"},
					&cli.StringFlag{Name: "db", Usage: "history database path used with --from-db"},
					&cli.StringFlag{Name: "assets", Usage: "comma separated asset list (default: all)"},
					&cli.IntFlag{Name: "simulations", Value: 10000},
					&cli.IntFlag{Name: "horizon-months", Value: 900},
					&cli.Uint64Flag{Name: "seed", Usage: "random seed (default: random, reported in the manifest)"},
					&cli.IntFlag{Name: "workers", Usage: "worker goroutines (default: one per CPU)"},
					&cli.IntFlag{Name: "max-cells", Usage: "refuse runs above this many simulations x months x assets", EnvVars: []string{"SIM_MAX_CELLS"}},
					&cli.StringFlag{Name: "out", Usage: "output directory", Value: "simulated_paths"},
				},
				Action: simulateAction,
			},
			{
				Name:  "annual",
				Usage: "compound stored monthly paths of one asset into annual returns",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "paths", Usage: "directory holding the simulated arrays", Required: true},
					&cli.StringFlag{Name: "asset", Required: true},
					&cli.IntFlag{Name: "months-per-year", Value: annual.DefaultMonthsPerYear},
					&cli.StringFlag{Name: "csv", Usage: "output CSV path (default: <asset>_annual_returns_all_sims.csv)"},
					&cli.IntFlag{Name: "head", Value: 5, Usage: "rows and columns of the preview"},
				},
				Action: annualAction,
			},
		},
	}
}
