package scheduler

import (
	"context"
	"fmt"

	"github.com/aristath/horizon/internal/domain"
	"github.com/aristath/horizon/internal/modules/runs"
	"github.com/aristath/horizon/internal/progress"
	"github.com/rs/zerolog"
)

// RunExecutor starts simulation runs
type RunExecutor interface {
	Run(ctx context.Context, req runs.Request, onProgress progress.Callback) (*domain.Run, error)
}

// RefreshSimulationJob re-runs a fixed simulation so a fresh set of paths is always available
type RefreshSimulationJob struct {
	ctx      context.Context
	executor RunExecutor
	request  runs.Request
	log      zerolog.Logger
}

// NewRefreshSimulationJob creates a refresh job. ctx bounds every run; cancelling it
// aborts a refresh in progress.
func NewRefreshSimulationJob(ctx context.Context, executor RunExecutor, request runs.Request) *RefreshSimulationJob {
	return &RefreshSimulationJob{
		ctx:      ctx,
		executor: executor,
		request:  request,
		log:      zerolog.Nop(),
	}
}

// SetLogger sets the logger for the job
func (j *RefreshSimulationJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *RefreshSimulationJob) Name() string {
	return "refresh_simulation"
}

// Run executes the refresh
func (j *RefreshSimulationJob) Run() error {
	run, err := j.executor.Run(j.ctx, j.request, nil)
	if err != nil {
		return fmt.Errorf("refresh simulation failed: %w", err)
	}

	event := j.log.Info()
	if run.Status == domain.RunStatusPartial {
		event = j.log.Warn().Str("error", run.Error)
	}
	event.
		Str("run_id", run.ID).
		Str("status", string(run.Status)).
		Str("location", run.Location).
		Msg("Refresh simulation finished")

	return nil
}
