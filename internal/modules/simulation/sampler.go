// Package simulation resamples historical months into synthetic return paths.
package simulation

import (
	"fmt"
	"math/rand/v2"

	"github.com/aristath/horizon/internal/domain"
)

// PathSampler draws historical row indices uniformly, with replacement.
// Draws are independent; the only state is the random stream.
type PathSampler struct {
	rng  *rand.Rand
	rows int
}

// NewPathSampler creates a sampler over a panel of rows months
func NewPathSampler(rows int, src rand.Source) (*PathSampler, error) {
	if rows <= 0 {
		return nil, fmt.Errorf("%w: cannot sample from %d historical months", domain.ErrInvalidPanel, rows)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: nil random source", domain.ErrInvalidParameter)
	}
	return &PathSampler{
		rng:  rand.New(src),
		rows: rows,
	}, nil
}

// Next returns a row index in [0, rows)
func (s *PathSampler) Next() int {
	return s.rng.IntN(s.rows)
}

// streamFor returns the random source of simulation sim.
// Every simulation owns its own PCG stream, so output depends only on the
// seed and never on how simulations are scheduled across workers.
func streamFor(seed uint64, sim int) rand.Source {
	return rand.NewPCG(seed, uint64(sim))
}
