package annual

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/aristath/horizon/internal/domain"
	"github.com/aristath/horizon/internal/modules/historical"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// YearSummary describes the distribution of one simulated year across all simulations
type YearSummary struct {
	Label  string  `json:"label"`
	Year   int     `json:"year"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P5     float64 `json:"p5"`
	P25    float64 `json:"p25"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
}

// HeadRow is one labelled simulation of an annual table
type HeadRow struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// HeadView is the top-left corner of an annual table
type HeadView struct {
	Columns []string  `json:"columns"`
	Rows    []HeadRow `json:"rows"`
	Shape   [2]int    `json:"shape"`
}

// SimLabel returns the row label of simulation index s
func SimLabel(s int) string {
	return "Sim_" + strconv.Itoa(s+1)
}

// YearLabel returns the column label of year index y
func YearLabel(y int) string {
	return "Year_" + strconv.Itoa(y+1)
}

// CSVFileName returns the file name an asset's annual table is written to
func CSVFileName(asset string) string {
	return historical.FileStem(asset) + "_annual_returns_all_sims.csv"
}

// Summarize returns per-year distribution statistics of table
func Summarize(table *mat.Dense) ([]YearSummary, error) {
	if table == nil || table.IsEmpty() {
		return nil, fmt.Errorf("%w: empty annual table", domain.ErrInvalidParameter)
	}

	sims, years := table.Dims()
	summaries := make([]YearSummary, years)
	column := make([]float64, sims)

	for y := 0; y < years; y++ {
		mat.Col(column, y, table)
		sort.Float64s(column)

		mean, std := stat.MeanStdDev(column, nil)
		if sims < 2 {
			std = 0
		}

		summaries[y] = YearSummary{
			Label:  YearLabel(y),
			Year:   y + 1,
			Mean:   mean,
			StdDev: std,
			P5:     stat.Quantile(0.05, stat.LinInterp, column, nil),
			P25:    stat.Quantile(0.25, stat.LinInterp, column, nil),
			P50:    stat.Quantile(0.50, stat.LinInterp, column, nil),
			P75:    stat.Quantile(0.75, stat.LinInterp, column, nil),
			P95:    stat.Quantile(0.95, stat.LinInterp, column, nil),
		}
	}

	return summaries, nil
}

// Head returns at most sims rows and years columns from the top-left of table
func Head(table *mat.Dense, sims, years int) HeadView {
	if table == nil || table.IsEmpty() {
		return HeadView{}
	}

	r, c := table.Dims()
	view := HeadView{Shape: [2]int{r, c}}
	sims = min(max(sims, 0), r)
	years = min(max(years, 0), c)

	for y := 0; y < years; y++ {
		view.Columns = append(view.Columns, YearLabel(y))
	}
	for s := 0; s < sims; s++ {
		values := make([]float64, years)
		copy(values, table.RawRowView(s)[:years])
		view.Rows = append(view.Rows, HeadRow{Label: SimLabel(s), Values: values})
	}

	return view
}

// WriteCSV writes table with Sim_i row labels and Year_j column headers
func WriteCSV(w io.Writer, table *mat.Dense) error {
	if table == nil || table.IsEmpty() {
		return fmt.Errorf("%w: empty annual table", domain.ErrInvalidParameter)
	}

	sims, years := table.Dims()
	writer := csv.NewWriter(w)

	header := make([]string, years+1)
	for y := 0; y < years; y++ {
		header[y+1] = YearLabel(y)
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, years+1)
	for s := 0; s < sims; s++ {
		record[0] = SimLabel(s)
		for y, v := range table.RawRowView(s) {
			record[y+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write %s: %w", SimLabel(s), err)
		}
	}

	writer.Flush()
	return writer.Error()
}
