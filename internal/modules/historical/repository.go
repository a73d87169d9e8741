package historical

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/horizon/internal/database"
	"github.com/rs/zerolog"
)

// Repository stores aligned monthly returns in the history database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new returns repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "monthly_returns").Logger(),
	}
}

// SaveSeries upserts every observation of a series
func (r *Repository) SaveSeries(ctx context.Context, series Series) error {
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO monthly_returns (asset, month, date, monthly_return)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(asset, month) DO UPDATE SET
				date = excluded.date,
				monthly_return = excluded.monthly_return
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, obs := range series.Observations {
			if _, err := stmt.ExecContext(ctx, series.Asset, obs.Month(), obs.Date.Unix(), obs.Return); err != nil {
				return fmt.Errorf("failed to insert %s %s: %w", series.Asset, obs.Month(), err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save series %s: %w", series.Asset, err)
	}

	r.log.Debug().
		Str("asset", series.Asset).
		Int("observations", len(series.Observations)).
		Msg("Saved return series")
	return nil
}

// LoadSeries returns the stored history of one asset in chronological order
func (r *Repository) LoadSeries(ctx context.Context, asset string) (Series, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, monthly_return
		FROM monthly_returns
		WHERE asset = ?
		ORDER BY month ASC
	`, asset)
	if err != nil {
		return Series{}, fmt.Errorf("failed to query returns for %s: %w", asset, err)
	}
	defer rows.Close()

	series := Series{Asset: asset}
	for rows.Next() {
		var unix int64
		var obs Observation
		if err := rows.Scan(&unix, &obs.Return); err != nil {
			return Series{}, fmt.Errorf("failed to scan return for %s: %w", asset, err)
		}
		obs.Date = time.Unix(unix, 0).UTC()
		series.Observations = append(series.Observations, obs)
	}
	if err := rows.Err(); err != nil {
		return Series{}, fmt.Errorf("failed to iterate returns for %s: %w", asset, err)
	}

	return series, nil
}

// ListAssets returns every asset with stored returns
func (r *Repository) ListAssets(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT asset FROM monthly_returns ORDER BY asset`)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []string
	for rows.Next() {
		var asset string
		if err := rows.Scan(&asset); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// LoadPanel loads and aligns the stored series of assets.
// With no assets given, every stored asset is used.
func (r *Repository) LoadPanel(ctx context.Context, assets []string) (*ReturnPanel, AlignReport, error) {
	if len(assets) == 0 {
		all, err := r.ListAssets(ctx)
		if err != nil {
			return nil, AlignReport{}, err
		}
		assets = all
	}

	series := make(map[string]Series, len(assets))
	for _, asset := range assets {
		s, err := r.LoadSeries(ctx, asset)
		if err != nil {
			return nil, AlignReport{}, err
		}
		if len(s.Observations) > 0 {
			series[asset] = s
		}
	}

	panel, report, err := BuildPanel(assets, series)
	if err != nil {
		return nil, report, err
	}

	if report.DroppedRows > 0 {
		r.log.Warn().
			Int("dropped_rows", report.DroppedRows).
			Str("first_month", report.FirstMonth).
			Str("last_month", report.LastMonth).
			Msg("Dropped months missing data for some assets")
	}

	return panel, report, nil
}
