package testing

import (
	"time"

	"github.com/aristath/horizon/internal/modules/historical"
)

// FixtureAssets are the columns of the fixture panel
var FixtureAssets = []string{"IWDA.L", "AGG", "GLD"}

// FixtureRows holds five historical months for FixtureAssets
var FixtureRows = [][]float64{
	{0.021, -0.004, 0.013},
	{-0.035, 0.011, 0.027},
	{0.047, 0.002, -0.019},
	{0.008, -0.013, 0.005},
	{-0.012, 0.006, 0.031},
}

// FixtureMonths labels FixtureRows
var FixtureMonths = []string{"2024-01", "2024-02", "2024-03", "2024-04", "2024-05"}

// NewPanelFixture returns the three asset, five month panel
func NewPanelFixture() *historical.ReturnPanel {
	panel, err := historical.NewReturnPanel(FixtureAssets, FixtureMonths, FixtureRows)
	if err != nil {
		panic(err)
	}
	return panel
}

// NewSeriesFixtures returns FixtureRows split into one series per asset
func NewSeriesFixtures() []historical.Series {
	series := make([]historical.Series, len(FixtureAssets))
	for c, asset := range FixtureAssets {
		series[c].Asset = asset
		for r, month := range FixtureMonths {
			date, _ := time.Parse(historical.MonthLayout, month)
			series[c].Observations = append(series[c].Observations, historical.Observation{
				Date:   date.AddDate(0, 1, -1),
				Return: FixtureRows[r][c],
			})
		}
	}
	return series
}
