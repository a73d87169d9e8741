// Package runs orchestrates simulation runs and keeps their registry.
package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aristath/horizon/internal/domain"
	"github.com/rs/zerolog"
)

// Repository stores run records in the simulation_runs table
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a run repository on the history database
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "simulation_runs").Logger(),
	}
}

const runColumns = `id, status, assets, seed, num_simulations, horizon_months, history_months,
	location, error, created_at, completed_at`

// Create inserts a new run record
func (r *Repository) Create(ctx context.Context, run domain.Run) error {
	assetsJSON, err := json.Marshal(run.Assets)
	if err != nil {
		return fmt.Errorf("failed to encode assets: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO simulation_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		string(run.Status),
		string(assetsJSON),
		strconv.FormatUint(run.Seed, 10),
		run.NumSimulations,
		run.HorizonMonths,
		run.HistoryMonths,
		run.Location,
		run.Error,
		run.CreatedAt.Unix(),
		nullableUnix(run.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	r.log.Debug().Str("run_id", run.ID).Str("status", string(run.Status)).Msg("Run recorded")
	return nil
}

// UpdateStatus stores the final state of a run
func (r *Repository) UpdateStatus(ctx context.Context, run domain.Run) error {
	assetsJSON, err := json.Marshal(run.Assets)
	if err != nil {
		return fmt.Errorf("failed to encode assets: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE simulation_runs
		SET status = ?, assets = ?, history_months = ?, error = ?, completed_at = ?
		WHERE id = ?
	`,
		string(run.Status),
		string(assetsJSON),
		run.HistoryMonths,
		run.Error,
		nullableUnix(run.CompletedAt),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", run.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of run %s: %w", run.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: run %s", domain.ErrNotFound, run.ID)
	}
	return nil
}

// Get returns one run by id
func (r *Repository) Get(ctx context.Context, id string) (*domain.Run, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM simulation_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: run %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// List returns the most recent runs first. A non-positive limit returns every run.
func (r *Repository) List(ctx context.Context, limit int) ([]domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM simulation_runs ORDER BY created_at DESC, id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var (
		run         domain.Run
		status      string
		assetsJSON  string
		seed        string
		createdAt   int64
		completedAt sql.NullInt64
	)

	err := row.Scan(
		&run.ID,
		&status,
		&assetsJSON,
		&seed,
		&run.NumSimulations,
		&run.HorizonMonths,
		&run.HistoryMonths,
		&run.Location,
		&run.Error,
		&createdAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Status = domain.RunStatus(status)
	if err := json.Unmarshal([]byte(assetsJSON), &run.Assets); err != nil {
		return nil, fmt.Errorf("failed to decode assets of run %s: %w", run.ID, err)
	}
	run.Seed, err = strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed of run %s: %w", run.ID, err)
	}
	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		run.CompletedAt = &t
	}

	return &run, nil
}

func nullableUnix(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}
