package runs

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/aristath/horizon/internal/domain"
	"github.com/aristath/horizon/internal/modules/annual"
	"github.com/aristath/horizon/internal/modules/historical"
	"github.com/aristath/horizon/internal/modules/pathstore"
	"github.com/aristath/horizon/internal/modules/simulation"
	"github.com/aristath/horizon/internal/progress"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// PanelLoader provides aligned historical panels
type PanelLoader interface {
	LoadPanel(ctx context.Context, assets []string) (*historical.ReturnPanel, historical.AlignReport, error)
}

// Request describes a simulation run. An empty asset list uses every stored asset.
type Request struct {
	Assets         []string `json:"assets"`
	NumSimulations int      `json:"num_simulations"`
	HorizonMonths  int      `json:"horizon_months"`
	Seed           *uint64  `json:"seed,omitempty"`
}

// Service runs simulations end to end: load, simulate, persist, record
type Service struct {
	repo   *Repository
	panels PanelLoader
	engine *simulation.Engine
	store  *pathstore.Store
	log    zerolog.Logger
}

// NewService creates a run service. Each run is stored below store at its run id.
func NewService(
	repo *Repository,
	panels PanelLoader,
	engine *simulation.Engine,
	store *pathstore.Store,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:   repo,
		panels: panels,
		engine: engine,
		store:  store,
		log:    log.With().Str("service", "runs").Logger(),
	}
}

// Run executes req and returns the recorded run.
//
// Invalid parameters fail before anything is recorded. Once recorded, a run ends
// as completed, partial (some asset arrays could not be saved, listed in
// Run.Error) or failed; the returned error is nil only for completed and partial runs.
func (s *Service) Run(ctx context.Context, req Request, onProgress progress.Callback) (*domain.Run, error) {
	// Resolve the seed up front so it is recorded before sampling starts.
	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}
	params := simulation.Params{
		NumSimulations: req.NumSimulations,
		HorizonMonths:  req.HorizonMonths,
		Seed:           &seed,
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	runStore := s.store.At(runID)
	run := domain.Run{
		CreatedAt:      time.Now().UTC(),
		ID:             runID,
		Status:         domain.RunStatusRunning,
		Location:       runStore.Describe(),
		Assets:         append([]string{}, req.Assets...),
		Seed:           seed,
		NumSimulations: req.NumSimulations,
		HorizonMonths:  req.HorizonMonths,
	}
	if err := s.repo.Create(ctx, run); err != nil {
		return nil, err
	}

	log := s.log.With().Str("run_id", runID).Logger()
	log.Info().
		Strs("assets", req.Assets).
		Int("simulations", req.NumSimulations).
		Int("horizon_months", req.HorizonMonths).
		Msg("Starting simulation run")

	panel, _, err := s.panels.LoadPanel(ctx, req.Assets)
	if err != nil {
		return s.fail(run, fmt.Errorf("failed to load panel: %w", err))
	}
	run.Assets = panel.Assets()
	run.HistoryMonths = panel.Rows()

	result, err := s.engine.Run(ctx, panel, params, onProgress)
	if err != nil {
		return s.fail(run, err)
	}

	report := runStore.SaveAll(ctx, result.Assets, result.Paths)
	if len(report.Saved) == 0 {
		return s.fail(run, fmt.Errorf("no simulated paths could be saved: %w", report.Err()))
	}

	manifest := pathstore.Manifest{
		CreatedAt:      run.CreatedAt,
		RunID:          runID,
		Assets:         report.Saved,
		Seed:           result.Seed,
		NumSimulations: result.NumSimulations,
		HorizonMonths:  result.HorizonMonths,
		HistoryMonths:  result.HistoryMonths,
	}
	if err := runStore.SaveManifest(ctx, manifest); err != nil {
		return s.fail(run, err)
	}

	run.Status = domain.RunStatusCompleted
	if !report.OK() {
		run.Status = domain.RunStatusPartial
		run.Error = report.Err().Error()
	}
	completed := time.Now().UTC()
	run.CompletedAt = &completed

	if err := s.repo.UpdateStatus(context.WithoutCancel(ctx), run); err != nil {
		return nil, err
	}

	log.Info().
		Str("status", string(run.Status)).
		Str("location", run.Location).
		Int("saved_assets", len(report.Saved)).
		Msg("Simulation run finished")

	return &run, nil
}

// fail records run as failed and returns cause
func (s *Service) fail(run domain.Run, cause error) (*domain.Run, error) {
	completed := time.Now().UTC()
	run.Status = domain.RunStatusFailed
	run.Error = cause.Error()
	run.CompletedAt = &completed

	s.log.Error().Err(cause).Str("run_id", run.ID).Msg("Simulation run failed")

	// The run may have failed because ctx was cancelled; the record must still be closed.
	if err := s.repo.UpdateStatus(context.Background(), run); err != nil {
		s.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to record run failure")
	}
	return &run, cause
}

// Get returns a recorded run
func (s *Service) Get(ctx context.Context, id string) (*domain.Run, error) {
	return s.repo.Get(ctx, id)
}

// List returns recorded runs, newest first
func (s *Service) List(ctx context.Context, limit int) ([]domain.Run, error) {
	return s.repo.List(ctx, limit)
}

// Paths loads the stored array of one asset of a run
func (s *Service) Paths(ctx context.Context, runID, asset string) (*mat.Dense, error) {
	if _, err := s.repo.Get(ctx, runID); err != nil {
		return nil, err
	}
	return s.store.At(runID).Load(ctx, asset)
}

// Annual loads one asset of a run and compounds it into annual returns
func (s *Service) Annual(ctx context.Context, runID, asset string, monthsPerYear int) (*mat.Dense, error) {
	paths, err := s.Paths(ctx, runID, asset)
	if err != nil {
		return nil, err
	}
	return annual.Aggregate(paths, monthsPerYear)
}
