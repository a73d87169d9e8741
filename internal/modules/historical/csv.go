package historical

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/horizon/internal/domain"
)

// File name suffixes produced by the return and currency conversion steps.
// Converted (GBP) files win over unconverted ones for the same asset.
const (
	SuffixConverted = "_monthly_returns_GBP.csv"
	SuffixNative    = "_monthly_returns.csv"
)

const dateColumn = "Date"

// returnColumns lists the accepted headers for the return value, in priority order
var returnColumns = []string{"Monthly_Return", "Monthly_Return_GBP"}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
}

// AssetNameFromFile derives the asset name from a returns file name
func AssetNameFromFile(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, SuffixConverted)
	base = strings.TrimSuffix(base, SuffixNative)
	return base
}

// FileStem returns the file name prefix used for an asset.
// Tickers such as ^IRX are stored as _IRX.
func FileStem(asset string) string {
	return strings.ReplaceAll(asset, "^", "_")
}

// DiscoverCSV finds return files in dir, keyed by asset name
func DiscoverCSV(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read returns directory %s: %w", dir, err)
	}

	files := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			continue
		}
		switch {
		case strings.HasSuffix(name, SuffixConverted):
			files[AssetNameFromFile(name)] = filepath.Join(dir, name)
		case strings.HasSuffix(name, SuffixNative):
			asset := AssetNameFromFile(name)
			if _, converted := files[asset]; !converted {
				files[asset] = filepath.Join(dir, name)
			}
		}
	}
	return files, nil
}

// SortedAssets returns the keys of a discovered file set in lexical order
func SortedAssets(files map[string]string) []string {
	assets := make([]string, 0, len(files))
	for asset := range files {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	return assets
}

// LoadSeriesCSV reads a Date,Monthly_Return file
func LoadSeriesCSV(path string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	series, err := ReadSeriesCSV(AssetNameFromFile(path), f)
	if err != nil {
		return Series{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return series, nil
}

// ReadSeriesCSV parses returns for asset from r
func ReadSeriesCSV(asset string, r io.Reader) (Series, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Series{}, fmt.Errorf("%w: missing header: %v", domain.ErrInvalidPanel, err)
	}

	dateIdx, returnIdx := -1, -1
	for i, col := range header {
		if strings.TrimSpace(col) == dateColumn {
			dateIdx = i
		}
	}
	for _, want := range returnColumns {
		for i, col := range header {
			if strings.TrimSpace(col) == want && returnIdx < 0 {
				returnIdx = i
			}
		}
	}
	if dateIdx < 0 || returnIdx < 0 {
		return Series{}, fmt.Errorf("%w: no recognised %s/return columns in header %v", domain.ErrInvalidPanel, dateColumn, header)
	}

	series := Series{Asset: asset}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Series{}, fmt.Errorf("%w: line %d: %v", domain.ErrInvalidPanel, line, err)
		}

		date, err := parseDate(record[dateIdx])
		if err != nil {
			return Series{}, fmt.Errorf("%w: line %d: %v", domain.ErrInvalidPanel, line, err)
		}

		raw := strings.TrimSpace(record[returnIdx])
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || raw == "" {
			return Series{}, fmt.Errorf("%w: line %d: bad return %q", domain.ErrInvalidPanel, line, raw)
		}

		series.Observations = append(series.Observations, Observation{Date: date, Return: value})
	}

	return series, nil
}

// LoadPanelFromDir loads the return files for assets from dir and aligns them.
// With no assets given, every file found in dir is used.
func LoadPanelFromDir(dir string, assets []string) (*ReturnPanel, AlignReport, error) {
	files, err := DiscoverCSV(dir)
	if err != nil {
		return nil, AlignReport{}, err
	}
	if len(assets) == 0 {
		assets = SortedAssets(files)
	}

	series := make(map[string]Series, len(assets))
	for _, asset := range assets {
		path, ok := files[asset]
		if !ok {
			path, ok = files[FileStem(asset)]
		}
		if !ok {
			return nil, AlignReport{}, fmt.Errorf("%w: no returns file for %s in %s", domain.ErrInvalidPanel, asset, dir)
		}

		s, err := LoadSeriesCSV(path)
		if err != nil {
			return nil, AlignReport{}, err
		}
		s.Asset = asset
		series[asset] = s
	}

	return BuildPanel(assets, series)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}
