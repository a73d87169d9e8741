package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/aristath/horizon/internal/config"
	"github.com/aristath/horizon/internal/database"
	"github.com/aristath/horizon/internal/domain"
	"github.com/aristath/horizon/internal/modules/annual"
	"github.com/aristath/horizon/internal/modules/historical"
	"github.com/aristath/horizon/internal/modules/pathstore"
	"github.com/aristath/horizon/internal/modules/simulation"
	"github.com/aristath/horizon/internal/utils"
	"github.com/aristath/horizon/pkg/logger"
)

func newLogger(c *cli.Context) zerolog.Logger {
	return logger.New(logger.Config{Level: c.String("log-level"), Pretty: true})
}

// openHistoryDB opens the database at path, or the configured one when path is empty
func openHistoryDB(path string) (*database.DB, error) {
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		path = cfg.HistoryDBPath()
	}

	db, err := database.New(database.Config{Path: path, Profile: database.ProfileStandard, Name: "history"})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func importAction(c *cli.Context) error {
	log := newLogger(c)

	db, err := openHistoryDB(c.String("db"))
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := importDir(c.Context, c.String("dir"), historical.NewRepository(db.Conn(), log), log)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Imported %d assets into %s\n", n, db.Path())
	return nil
}

type seriesSaver interface {
	SaveSeries(ctx context.Context, series historical.Series) error
}

// importDir stores every return file of dir and returns the number of assets imported
func importDir(ctx context.Context, dir string, repo seriesSaver, log zerolog.Logger) (int, error) {
	files, err := historical.DiscoverCSV(dir)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("%w: no return files in %s", domain.ErrInvalidPanel, dir)
	}

	for _, asset := range historical.SortedAssets(files) {
		series, err := historical.LoadSeriesCSV(files[asset])
		if err != nil {
			return 0, err
		}
		series.Asset = asset
		if err := repo.SaveSeries(ctx, series); err != nil {
			return 0, err
		}
		log.Info().Str("asset", asset).Int("months", len(series.Observations)).Msg("Imported returns")
	}
	return len(files), nil
}

// simulateOptions mirrors the simulate flags
type simulateOptions struct {
	ReturnsDir     string
	FromDB         bool
	DBPath         string
	Assets         []string
	NumSimulations int
	HorizonMonths  int
	Seed           *uint64
	Workers        int
	MaxCells       int
	Out            string
}

func simulateAction(c *cli.Context) error {
	opts := simulateOptions{
		ReturnsDir:     c.String("returns-dir"),
		FromDB:         c.Bool("from-db"),
		DBPath:         c.String("db"),
		Assets:         utils.ParseAssetList(c.String("assets")),
		NumSimulations: c.Int("simulations"),
		HorizonMonths:  c.Int("horizon-months"),
		Workers:        c.Int("workers"),
		MaxCells:       c.Int("max-cells"),
		Out:            c.String("out"),
	}
	if c.IsSet("seed") {
		seed := c.Uint64("seed")
		opts.Seed = &seed
	}

	_, err := runSimulate(c.Context, opts, c.App.Writer, newLogger(c))
	return err
}

func loadPanel(ctx context.Context, opts simulateOptions, log zerolog.Logger) (*historical.ReturnPanel, historical.AlignReport, error) {
	switch {
	case opts.FromDB && opts.ReturnsDir != "":
		return nil, historical.AlignReport{}, fmt.Errorf("%w: use either --returns-dir or --from-db", domain.ErrInvalidParameter)
	case opts.FromDB:
		db, err := openHistoryDB(opts.DBPath)
		if err != nil {
			return nil, historical.AlignReport{}, err
		}
		defer db.Close()
		return historical.NewRepository(db.Conn(), log).LoadPanel(ctx, opts.Assets)
	case opts.ReturnsDir != "":
		return historical.LoadPanelFromDir(opts.ReturnsDir, opts.Assets)
	default:
		return nil, historical.AlignReport{}, fmt.Errorf("%w: one of --returns-dir or --from-db is required", domain.ErrInvalidParameter)
	}
}

// runSimulate loads the panel, simulates and writes every asset array plus a manifest to opts.Out
func runSimulate(ctx context.Context, opts simulateOptions, out io.Writer, log zerolog.Logger) (pathstore.Manifest, error) {
	panel, report, err := loadPanel(ctx, opts, log)
	if err != nil {
		return pathstore.Manifest{}, err
	}

	if report.DroppedRows > 0 {
		log.Warn().Int("dropped_rows", report.DroppedRows).Msg("Dropped months missing from some assets")
	}
	fmt.Fprintf(out, "Loaded %d months for %d assets (%s to %s, %d months dropped)\n",
		report.Rows, len(report.Assets), report.FirstMonth, report.LastMonth, report.DroppedRows)
	printPanelHead(out, panel, 5)

	engine := simulation.NewEngine(opts.Workers, log)
	engine.SetMaxCells(opts.MaxCells)
	result, err := engine.Run(ctx, panel, simulation.Params{
		NumSimulations: opts.NumSimulations,
		HorizonMonths:  opts.HorizonMonths,
		Seed:           opts.Seed,
	}, nil)
	if err != nil {
		return pathstore.Manifest{}, err
	}

	backend, err := pathstore.NewFileBackend(opts.Out)
	if err != nil {
		return pathstore.Manifest{}, err
	}
	store := pathstore.New(backend, "", log)

	saved := store.SaveAll(ctx, result.Assets, result.Paths)
	for _, asset := range saved.Saved {
		fmt.Fprintf(out, "Saved %s (%d x %d)\n", pathstore.FileName(asset), result.NumSimulations, result.HorizonMonths)
	}
	if len(saved.Saved) == 0 {
		return pathstore.Manifest{}, saved.Err()
	}

	manifest := pathstore.Manifest{
		CreatedAt:      time.Now().UTC(),
		Assets:         saved.Saved,
		Seed:           result.Seed,
		NumSimulations: result.NumSimulations,
		HorizonMonths:  result.HorizonMonths,
		HistoryMonths:  result.HistoryMonths,
	}
	if err := store.SaveManifest(ctx, manifest); err != nil {
		return manifest, err
	}
	fmt.Fprintf(out, "Seed %d, output in %s\n", result.Seed, backend.Root())

	// Arrays that were written stay usable even when others failed.
	return manifest, saved.Err()
}

// annualOptions mirrors the annual flags
type annualOptions struct {
	PathsDir      string
	Asset         string
	MonthsPerYear int
	CSVPath       string
	Head          int
}

func annualAction(c *cli.Context) error {
	_, err := runAnnual(c.Context, annualOptions{
		PathsDir:      c.String("paths"),
		Asset:         c.String("asset"),
		MonthsPerYear: c.Int("months-per-year"),
		CSVPath:       c.String("csv"),
		Head:          c.Int("head"),
	}, c.App.Writer, newLogger(c))
	return err
}

// runAnnual aggregates one stored asset array and writes the annual table as CSV.
// It returns the path of the CSV file.
func runAnnual(ctx context.Context, opts annualOptions, out io.Writer, log zerolog.Logger) (string, error) {
	backend, err := pathstore.NewFileBackend(opts.PathsDir)
	if err != nil {
		return "", err
	}
	store := pathstore.New(backend, "", log)

	if manifest, err := store.LoadManifest(ctx); err == nil {
		fmt.Fprintf(out, "Run %s: %d simulations x %d months, seed %d\n",
			manifest.RunID, manifest.NumSimulations, manifest.HorizonMonths, manifest.Seed)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	paths, err := store.Load(ctx, opts.Asset)
	if err != nil {
		return "", err
	}
	table, err := annual.Aggregate(paths, opts.MonthsPerYear)
	if err != nil {
		return "", err
	}

	head := annual.Head(table, opts.Head, opts.Head)
	fmt.Fprintf(out, "Annual returns for %s, shape (%d, %d)\n", opts.Asset, head.Shape[0], head.Shape[1])
	printHead(out, head)

	csvPath := opts.CSVPath
	if csvPath == "" {
		csvPath = annual.CSVFileName(opts.Asset)
	}
	f, err := os.Create(csvPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if err := annual.WriteCSV(f, table); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	fmt.Fprintf(out, "Saved %s\n", csvPath)
	return csvPath, nil
}

func printPanelHead(out io.Writer, panel *historical.ReturnPanel, n int) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "month\t%s\n", strings.Join(panel.Assets(), "\t"))
	months := panel.Months()
	for r := 0; r < min(n, panel.Rows()); r++ {
		cells := make([]string, 0, panel.NumAssets())
		for _, v := range panel.Row(r) {
			cells = append(cells, strconv.FormatFloat(v, 'f', 6, 64))
		}
		label := strconv.Itoa(r)
		if r < len(months) {
			label = months[r]
		}
		fmt.Fprintf(tw, "%s\t%s\n", label, strings.Join(cells, "\t"))
	}
	tw.Flush()
}

func printHead(out io.Writer, head annual.HeadView) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "\t%s\n", strings.Join(head.Columns, "\t"))
	for _, row := range head.Rows {
		cells := make([]string, 0, len(row.Values))
		for _, v := range row.Values {
			cells = append(cells, strconv.FormatFloat(v, 'f', 6, 64))
		}
		fmt.Fprintf(tw, "%s\t%s\n", row.Label, strings.Join(cells, "\t"))
	}
	tw.Flush()
}
