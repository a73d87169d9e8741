package pathstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/aristath/horizon/internal/domain"
	"github.com/aristath/horizon/internal/modules/historical"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// FileSuffix is appended to the asset stem of every stored array
const FileSuffix = "_simulated_returns.mat"

// FileName returns the object name an asset's array is stored under
func FileName(asset string) string {
	return historical.FileStem(asset) + FileSuffix
}

// checkAsset rejects names that cannot map to a single object of their own
func checkAsset(asset string) error {
	if asset == "" {
		return fmt.Errorf("%w: empty asset name", domain.ErrInvalidParameter)
	}
	if strings.ContainsAny(asset, `/\`) {
		return fmt.Errorf("%w: asset %q contains a path separator", domain.ErrInvalidParameter, asset)
	}
	return nil
}

// Store saves and loads per-asset simulation arrays at one location of a backend.
// Arrays are stored in gonum's binary matrix encoding, which keeps the shape and
// every float64 bit exactly.
type Store struct {
	backend  Backend
	location string
	log      zerolog.Logger
}

// New creates a store at location (a key prefix, may be empty) of backend
func New(backend Backend, location string, log zerolog.Logger) *Store {
	return &Store{
		backend:  backend,
		location: location,
		log:      log.With().Str("component", "path_store").Logger(),
	}
}

// At returns a store for a sub-location, e.g. one run's directory
func (s *Store) At(sub string) *Store {
	return &Store{
		backend:  s.backend,
		location: path.Join(s.location, sub),
		log:      s.log,
	}
}

// Location returns the key prefix of the store
func (s *Store) Location() string {
	return s.location
}

// Describe returns a human readable location including the backend
func (s *Store) Describe() string {
	if s.location == "" {
		return s.backend.Describe()
	}
	return s.backend.Describe() + "/" + s.location
}

func (s *Store) key(name string) string {
	if s.location == "" {
		return name
	}
	return path.Join(s.location, name)
}

// Save stores paths for asset, replacing any earlier array
func (s *Store) Save(ctx context.Context, asset string, paths *mat.Dense) error {
	if err := checkAsset(asset); err != nil {
		return err
	}
	if paths == nil || paths.IsEmpty() {
		return fmt.Errorf("%w: no paths to save for %s", domain.ErrInvalidParameter, asset)
	}

	data, err := paths.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s: %v", domain.ErrStorage, asset, err)
	}

	if err := s.backend.Put(ctx, s.key(FileName(asset)), data); err != nil {
		return fmt.Errorf("failed to save %s: %w", asset, err)
	}

	r, c := paths.Dims()
	s.log.Debug().
		Str("asset", asset).
		Int("simulations", r).
		Int("horizon_months", c).
		Msg("Saved simulated paths")

	return nil
}

// Load reads the array previously saved for asset
func (s *Store) Load(ctx context.Context, asset string) (*mat.Dense, error) {
	if err := checkAsset(asset); err != nil {
		return nil, err
	}
	data, err := s.backend.Get(ctx, s.key(FileName(asset)))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", asset, err)
	}

	var paths mat.Dense
	if err := paths.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", domain.ErrStorage, asset, err)
	}
	return &paths, nil
}

// SaveReport lists the outcome of saving every asset of a run
type SaveReport struct {
	Saved  []string
	Failed map[string]error
}

// OK reports whether every asset was saved
func (r SaveReport) OK() bool {
	return len(r.Failed) == 0
}

// Err joins the per-asset failures, or returns nil
func (r SaveReport) Err() error {
	if r.OK() {
		return nil
	}
	assets := make([]string, 0, len(r.Failed))
	for asset := range r.Failed {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	errs := make([]error, 0, len(assets))
	for _, asset := range assets {
		errs = append(errs, r.Failed[asset])
	}
	return errors.Join(errs...)
}

// SaveAll saves every asset independently. A failure is logged and recorded
// in the report without stopping the remaining assets. An asset whose object
// name was already taken by an earlier asset of the same call is not written.
func (s *Store) SaveAll(ctx context.Context, assets []string, paths map[string]*mat.Dense) SaveReport {
	report := SaveReport{Failed: make(map[string]error)}
	owners := make(map[string]string, len(assets))

	for _, asset := range assets {
		name := FileName(asset)
		var err error
		if owner, taken := owners[name]; taken {
			err = fmt.Errorf("%w: %s would overwrite %s stored as %s", domain.ErrInvalidParameter, asset, owner, name)
		} else {
			err = s.Save(ctx, asset, paths[asset])
		}
		if err == nil {
			owners[name] = asset
		}
		if err != nil {
			s.log.Error().Err(err).Str("asset", asset).Msg("Failed to save simulated paths")
			report.Failed[asset] = err
			continue
		}
		report.Saved = append(report.Saved, asset)
	}

	s.log.Info().
		Str("location", s.Describe()).
		Int("saved", len(report.Saved)).
		Int("failed", len(report.Failed)).
		Msg("Simulated paths persisted")

	return report
}
