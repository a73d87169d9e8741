package di

import (
	"context"

	"github.com/aristath/horizon/internal/config"
	"github.com/aristath/horizon/internal/modules/runs"
	"github.com/aristath/horizon/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the background jobs and adds the scheduled ones to sched.
// sched may be nil, in which case the jobs are only created.
func RegisterJobs(ctx context.Context, container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	instances := &JobInstances{}

	checkHistory := scheduler.NewCheckHistoryDatabaseJob(container.HistoryDB)
	checkHistory.SetLogger(log.With().Str("job", "check_history_database").Logger())
	instances.CheckHistoryDatabase = checkHistory

	if cfg.Refresh.Enabled() {
		refresh := scheduler.NewRefreshSimulationJob(ctx, container.RunService, runs.Request{
			Assets:         cfg.Refresh.Assets,
			NumSimulations: cfg.Refresh.NumSimulations,
			HorizonMonths:  cfg.Refresh.HorizonMonths,
		})
		refresh.SetLogger(log.With().Str("job", "refresh_simulation").Logger())
		instances.RefreshSimulation = refresh
	}

	if sched == nil {
		return instances, nil
	}

	if err := sched.AddJob("@daily", checkHistory); err != nil {
		return nil, err
	}
	if instances.RefreshSimulation != nil {
		if err := sched.AddJob(cfg.Refresh.Schedule, instances.RefreshSimulation); err != nil {
			return nil, err
		}
	}

	log.Info().Bool("refresh_enabled", instances.RefreshSimulation != nil).Msg("Jobs registered")
	return instances, nil
}
