// Package annual turns simulated monthly paths into per-year compounded returns.
package annual

import (
	"fmt"

	"github.com/aristath/horizon/internal/domain"
	"gonum.org/v1/gonum/mat"
)

// DefaultMonthsPerYear is the calendar year length used when none is given
const DefaultMonthsPerYear = domain.MonthsPerYear

// Aggregate compounds each consecutive block of monthsPerYear months of every
// simulation into one annual return.
//
// paths has one row per simulation and one column per month. The result has one
// row per simulation and one column per year, where cell (s, y) is
// prod(1 + r) - 1 over months [y*monthsPerYear, (y+1)*monthsPerYear) of simulation s.
func Aggregate(paths *mat.Dense, monthsPerYear int) (*mat.Dense, error) {
	if monthsPerYear <= 0 {
		return nil, fmt.Errorf("%w: months per year must be positive, got %d", domain.ErrInvalidParameter, monthsPerYear)
	}
	if paths == nil || paths.IsEmpty() {
		return nil, fmt.Errorf("%w: no simulated paths to aggregate", domain.ErrInvalidParameter)
	}

	sims, months := paths.Dims()
	if months%monthsPerYear != 0 {
		return nil, fmt.Errorf("%w: horizon of %d months is not a multiple of %d",
			domain.ErrMisalignedHorizon, months, monthsPerYear)
	}
	years := months / monthsPerYear

	table := mat.NewDense(sims, years, nil)
	for s := 0; s < sims; s++ {
		monthly := paths.RawRowView(s)
		annual := table.RawRowView(s)
		for y := 0; y < years; y++ {
			growth := 1.0
			for _, r := range monthly[y*monthsPerYear : (y+1)*monthsPerYear] {
				growth *= 1 + r
			}
			annual[y] = growth - 1
		}
	}

	return table, nil
}
