package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/aristath/horizon/internal/domain"
	"github.com/aristath/horizon/internal/modules/historical"
	"github.com/aristath/horizon/internal/progress"
	"github.com/aristath/horizon/internal/utils"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// progressLogInterval is how many completed simulations pass between progress log lines
const progressLogInterval = 1000

// DefaultMaxCells caps simulations x months x assets of one run (8 GiB of float64)
const DefaultMaxCells = 1 << 30

// Params configures one simulation run
type Params struct {
	NumSimulations int
	HorizonMonths  int
	// Seed makes the run reproducible. When nil a seed is drawn at random
	// and reported in the Result.
	Seed *uint64
}

// Validate checks that the simulation count and horizon are positive and
// that one asset's array is addressable
func (p Params) Validate() error {
	if p.NumSimulations <= 0 {
		return fmt.Errorf("%w: num_simulations must be positive, got %d", domain.ErrInvalidParameter, p.NumSimulations)
	}
	if p.HorizonMonths <= 0 {
		return fmt.Errorf("%w: horizon_months must be positive, got %d", domain.ErrInvalidParameter, p.HorizonMonths)
	}
	if p.NumSimulations > math.MaxInt/p.HorizonMonths {
		return fmt.Errorf("%w: %d simulations of %d months overflow the array size",
			domain.ErrInvalidParameter, p.NumSimulations, p.HorizonMonths)
	}
	return nil
}

// Cells returns the number of values one asset's array holds
func (p Params) Cells() int {
	return p.NumSimulations * p.HorizonMonths
}

// Result holds the simulated monthly returns of every asset.
// Each matrix has one row per simulation and one column per month.
type Result struct {
	Paths          map[string]*mat.Dense
	Assets         []string
	Seed           uint64
	NumSimulations int
	HorizonMonths  int
	HistoryMonths  int
}

// Path returns the (simulation x month) matrix of one asset
func (r *Result) Path(asset string) (*mat.Dense, error) {
	m, ok := r.Paths[asset]
	if !ok {
		return nil, fmt.Errorf("%w: no simulated paths for %s", domain.ErrNotFound, asset)
	}
	return m, nil
}

// Engine runs historical bootstrap simulations on a bounded worker pool
type Engine struct {
	numWorkers int
	maxCells   int
	log        zerolog.Logger
}

// NewEngine creates an engine. A non-positive worker count uses one worker per logical CPU.
func NewEngine(numWorkers int, log zerolog.Logger) *Engine {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers()
	}
	return &Engine{
		numWorkers: numWorkers,
		maxCells:   DefaultMaxCells,
		log:        log.With().Str("component", "simulation_engine").Logger(),
	}
}

// Workers returns the size of the worker pool
func (e *Engine) Workers() int {
	return e.numWorkers
}

// SetMaxCells sets the largest run, in simulations x months x assets, the
// engine allocates. A non-positive value restores DefaultMaxCells.
func (e *Engine) SetMaxCells(n int) {
	if n <= 0 {
		n = DefaultMaxCells
	}
	e.maxCells = n
}

// MaxCells returns the allocation ceiling of one run
func (e *Engine) MaxCells() int {
	return e.maxCells
}

func (e *Engine) checkSize(params Params, assets int) error {
	if params.Cells() > e.maxCells/assets {
		return fmt.Errorf("%w: %d simulations x %d months x %d assets exceeds the limit of %d values",
			domain.ErrInvalidParameter, params.NumSimulations, params.HorizonMonths, assets, e.maxCells)
	}
	return nil
}

// Run draws params.NumSimulations paths of params.HorizonMonths months from panel.
//
// For every (simulation, month) a single historical row is drawn and copied to
// every asset, so the cross-asset co-movement of that month is kept while the
// order of months is not.
//
// The context is checked between simulations; a cancelled run returns the
// context error and no result. onProgress may be nil.
func (e *Engine) Run(ctx context.Context, panel *historical.ReturnPanel, params Params, onProgress progress.Callback) (*Result, error) {
	if err := panel.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := e.checkSize(params, panel.NumAssets()); err != nil {
		return nil, err
	}

	seed := rand.Uint64()
	if params.Seed != nil {
		seed = *params.Seed
	}

	historyMonths := panel.Rows()
	assets := panel.Assets()

	if params.HorizonMonths > historyMonths {
		e.log.Info().
			Int("history_months", historyMonths).
			Int("horizon_months", params.HorizonMonths).
			Msg("Horizon is longer than the history, historical months will be reused")
	}

	e.log.Info().
		Int("simulations", params.NumSimulations).
		Int("horizon_months", params.HorizonMonths).
		Int("assets", len(assets)).
		Int("workers", e.numWorkers).
		Uint64("seed", seed).
		Msg("Running historical bootstrap")

	defer utils.OperationTimer("bootstrap_simulation", e.log)()

	// Pre-allocated result arrays; each worker only writes the rows of its own simulations.
	paths := make([]*mat.Dense, len(assets))
	for a := range assets {
		paths[a] = mat.NewDense(params.NumSimulations, params.HorizonMonths, nil)
	}

	if err := e.runPool(ctx, panel, paths, seed, params, onProgress); err != nil {
		return nil, err
	}

	result := &Result{
		Paths:          make(map[string]*mat.Dense, len(assets)),
		Assets:         assets,
		Seed:           seed,
		NumSimulations: params.NumSimulations,
		HorizonMonths:  params.HorizonMonths,
		HistoryMonths:  historyMonths,
	}
	for a, asset := range assets {
		result.Paths[asset] = paths[a]
	}

	e.log.Info().
		Int("simulations", params.NumSimulations).
		Msg("Monte Carlo simulation complete")

	return result, nil
}
