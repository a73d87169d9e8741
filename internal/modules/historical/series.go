package historical

import (
	"fmt"
	"sort"
	"time"

	"github.com/aristath/horizon/internal/domain"
)

// MonthLayout formats the month key used to align series
const MonthLayout = "2006-01"

// Observation is one month's return for a single asset
type Observation struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"monthly_return"`
}

// Month returns the alignment key of the observation
func (o Observation) Month() string {
	return o.Date.Format(MonthLayout)
}

// Series is the monthly return history of one asset
type Series struct {
	Asset        string        `json:"asset"`
	Observations []Observation `json:"observations"`
}

// AlignReport describes the outcome of aligning several series into a panel
type AlignReport struct {
	Assets      []string `json:"assets"`
	Rows        int      `json:"rows"`
	DroppedRows int      `json:"dropped_rows"`
	FirstMonth  string   `json:"first_month"`
	LastMonth   string   `json:"last_month"`
}

// BuildPanel aligns the series of the given assets on their month and keeps
// only the months every asset has a value for. Columns follow the order of
// assets, rows are chronological.
func BuildPanel(assets []string, series map[string]Series) (*ReturnPanel, AlignReport, error) {
	report := AlignReport{Assets: append([]string(nil), assets...)}
	if len(assets) == 0 {
		return nil, report, fmt.Errorf("%w: no assets requested", domain.ErrInvalidPanel)
	}

	byAsset := make([]map[string]float64, len(assets))
	allMonths := make(map[string]struct{})

	for i, asset := range assets {
		s, ok := series[asset]
		if !ok {
			return nil, report, fmt.Errorf("%w: no return series for %s", domain.ErrInvalidPanel, asset)
		}

		values := make(map[string]float64, len(s.Observations))
		for _, obs := range s.Observations {
			month := obs.Month()
			if _, dup := values[month]; dup {
				return nil, report, fmt.Errorf("%w: %s has more than one return for %s", domain.ErrInvalidPanel, asset, month)
			}
			values[month] = obs.Return
			allMonths[month] = struct{}{}
		}
		byAsset[i] = values
	}

	common := make([]string, 0, len(allMonths))
	for month := range allMonths {
		complete := true
		for _, values := range byAsset {
			if _, ok := values[month]; !ok {
				complete = false
				break
			}
		}
		if complete {
			common = append(common, month)
		}
	}
	sort.Strings(common)

	report.DroppedRows = len(allMonths) - len(common)
	report.Rows = len(common)

	if len(common) == 0 {
		return nil, report, fmt.Errorf("%w: no month has data for every asset", domain.ErrInvalidPanel)
	}
	report.FirstMonth = common[0]
	report.LastMonth = common[len(common)-1]

	rows := make([][]float64, len(common))
	for r, month := range common {
		row := make([]float64, len(assets))
		for c, values := range byAsset {
			row[c] = values[month]
		}
		rows[r] = row
	}

	panel, err := NewReturnPanel(assets, common, rows)
	if err != nil {
		return nil, report, err
	}
	return panel, report, nil
}
