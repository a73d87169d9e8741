// Package historical holds the aligned table of historical monthly returns
// that the simulator resamples, and the loaders that build it.
package historical

import (
	"fmt"
	"math"
	"strings"

	"github.com/aristath/horizon/internal/domain"
	"gonum.org/v1/gonum/mat"
)

// ReturnPanel is an immutable, rectangular table of monthly returns.
// Rows are historical months, columns are assets.
type ReturnPanel struct {
	assets []string
	months []string
	index  map[string]int
	values *mat.Dense
}

// NewReturnPanel validates rows and builds a panel. months labels the rows
// and may be nil; when given it must have one label per row. The rows are copied.
func NewReturnPanel(assets []string, months []string, rows [][]float64) (*ReturnPanel, error) {
	if len(assets) == 0 {
		return nil, fmt.Errorf("%w: no assets", domain.ErrInvalidPanel)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no historical months", domain.ErrInvalidPanel)
	}
	if months != nil && len(months) != len(rows) {
		return nil, fmt.Errorf("%w: %d month labels for %d rows", domain.ErrInvalidPanel, len(months), len(rows))
	}

	index := make(map[string]int, len(assets))
	stems := make(map[string]string, len(assets))
	for i, asset := range assets {
		if asset == "" {
			return nil, fmt.Errorf("%w: empty asset name in column %d", domain.ErrInvalidPanel, i)
		}
		if strings.ContainsAny(asset, `/\`) {
			return nil, fmt.Errorf("%w: asset %q contains a path separator", domain.ErrInvalidPanel, asset)
		}
		if _, dup := index[asset]; dup {
			return nil, fmt.Errorf("%w: duplicate asset %q", domain.ErrInvalidPanel, asset)
		}
		// Assets are stored under their file stem, which must stay unique.
		stem := FileStem(asset)
		if other, clash := stems[stem]; clash {
			return nil, fmt.Errorf("%w: assets %q and %q share the file name %q", domain.ErrInvalidPanel, other, asset, stem)
		}
		stems[stem] = asset
		index[asset] = i
	}

	values := mat.NewDense(len(rows), len(assets), nil)
	for r, row := range rows {
		if len(row) != len(assets) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", domain.ErrInvalidPanel, r, len(row), len(assets))
		}
		for c, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: missing value for %s in row %d", domain.ErrInvalidPanel, assets[c], r)
			}
		}
		values.SetRow(r, row)
	}

	var labels []string
	if months != nil {
		labels = append([]string(nil), months...)
	}

	return &ReturnPanel{
		assets: append([]string(nil), assets...),
		months: labels,
		index:  index,
		values: values,
	}, nil
}

// Validate reports whether the panel can be sampled from.
// A nil or zero-value panel is invalid.
func (p *ReturnPanel) Validate() error {
	if p == nil || p.values == nil {
		return fmt.Errorf("%w: panel not loaded", domain.ErrInvalidPanel)
	}
	return nil
}

// Rows returns the number of historical months
func (p *ReturnPanel) Rows() int {
	if p == nil || p.values == nil {
		return 0
	}
	r, _ := p.values.Dims()
	return r
}

// NumAssets returns the number of asset columns
func (p *ReturnPanel) NumAssets() int {
	return len(p.assets)
}

// Assets returns the asset names in column order
func (p *ReturnPanel) Assets() []string {
	return append([]string(nil), p.assets...)
}

// Months returns the row labels, or nil when the panel was built without them
func (p *ReturnPanel) Months() []string {
	return append([]string(nil), p.months...)
}

// Row returns a read-only view of the returns of every asset in month r.
// Callers must not modify the slice.
func (p *ReturnPanel) Row(r int) []float64 {
	return p.values.RawRowView(r)
}

// At returns the return of the asset in column c for month r
func (p *ReturnPanel) At(r, c int) float64 {
	return p.values.At(r, c)
}

// Column returns a copy of one asset's history
func (p *ReturnPanel) Column(asset string) ([]float64, error) {
	c, ok := p.index[asset]
	if !ok {
		return nil, fmt.Errorf("%w: asset %q", domain.ErrNotFound, asset)
	}
	return mat.Col(nil, c, p.values), nil
}

// HasRow reports whether values equals some historical row exactly
func (p *ReturnPanel) HasRow(values []float64) bool {
	if len(values) != len(p.assets) {
		return false
	}
	for r := 0; r < p.Rows(); r++ {
		row := p.Row(r)
		match := true
		for c, v := range values {
			if row[c] != v {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
