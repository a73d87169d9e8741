package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker verifies the integrity of a database
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
	Name() string
}

// CheckHistoryDatabaseJob verifies the integrity of the history database
type CheckHistoryDatabaseJob struct {
	db  HealthChecker
	log zerolog.Logger
}

// NewCheckHistoryDatabaseJob creates a new CheckHistoryDatabaseJob
func NewCheckHistoryDatabaseJob(db HealthChecker) *CheckHistoryDatabaseJob {
	return &CheckHistoryDatabaseJob{
		db:  db,
		log: zerolog.Nop(),
	}
}

// SetLogger sets the logger for the job
func (j *CheckHistoryDatabaseJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *CheckHistoryDatabaseJob) Name() string {
	return "check_history_database"
}

// Run executes the integrity check
func (j *CheckHistoryDatabaseJob) Run() error {
	if j.db == nil {
		j.log.Warn().Msg("Database not initialized, skipping")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		j.log.Error().
			Err(err).
			Str("database", j.db.Name()).
			Msg("Database integrity check failed")
		return fmt.Errorf("database %s is corrupted: %w", j.db.Name(), err)
	}

	j.log.Info().Str("database", j.db.Name()).Msg("Database integrity check passed")
	return nil
}
