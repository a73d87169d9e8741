package simulation

import (
	"context"
	"fmt"
	"sync"

	"github.com/aristath/horizon/internal/modules/historical"
	"github.com/aristath/horizon/internal/progress"
	"gonum.org/v1/gonum/mat"
)

// runPool distributes simulation indices over the workers and reports progress
// from the calling goroutine as simulations complete.
func (e *Engine) runPool(
	ctx context.Context,
	panel *historical.ReturnPanel,
	paths []*mat.Dense,
	seed uint64,
	params Params,
	onProgress progress.Callback,
) error {
	total := params.NumSimulations

	jobs := make(chan int, total)
	completed := make(chan int, total)

	numActualWorkers := e.numWorkers
	if total < numActualWorkers {
		numActualWorkers = total
	}

	var wg sync.WaitGroup
	for i := 0; i < numActualWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, jobs, completed, panel, paths, seed, params.HorizonMonths)
		}()
	}

	for sim := 0; sim < total; sim++ {
		jobs <- sim
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(completed)
	}()

	done := 0
	for range completed {
		done++
		progress.Call(onProgress, done, total, "Simulating paths")
		if done%progressLogInterval == 0 {
			e.log.Info().
				Int("completed", done).
				Int("total", total).
				Msg("Simulations complete")
		}
	}

	if err := ctx.Err(); err != nil {
		e.log.Warn().
			Int("completed", done).
			Int("total", total).
			Msg("Simulation cancelled")
		return fmt.Errorf("simulation cancelled after %d of %d runs: %w", done, total, err)
	}

	return nil
}

// worker simulates every index it receives until jobs is drained.
// Once ctx is cancelled the remaining indices are skipped.
func worker(
	ctx context.Context,
	jobs <-chan int,
	completed chan<- int,
	panel *historical.ReturnPanel,
	paths []*mat.Dense,
	seed uint64,
	horizonMonths int,
) {
	rows := make([][]float64, len(paths))
	for sim := range jobs {
		if ctx.Err() != nil {
			continue
		}

		// NewPathSampler cannot fail here: the panel was validated by Run.
		sampler, _ := NewPathSampler(panel.Rows(), streamFor(seed, sim))
		for a := range paths {
			rows[a] = paths[a].RawRowView(sim)
		}
		simulatePath(sampler, panel, rows, horizonMonths)

		completed <- sim
	}
}

// simulatePath fills one simulation's row of every asset.
// out[a][t] receives asset a's return for month t.
func simulatePath(sampler *PathSampler, panel *historical.ReturnPanel, out [][]float64, horizonMonths int) {
	for t := 0; t < horizonMonths; t++ {
		row := panel.Row(sampler.Next())
		for a, value := range row {
			out[a][t] = value
		}
	}
}
