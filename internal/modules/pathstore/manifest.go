package pathstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/horizon/internal/domain"
	"github.com/vmihailenco/msgpack/v5"
)

// ManifestName is the object name of a run's manifest
const ManifestName = "manifest.msgpack"

// Manifest describes the arrays stored at one location
type Manifest struct {
	CreatedAt      time.Time `msgpack:"created_at"`
	RunID          string    `msgpack:"run_id"`
	Assets         []string  `msgpack:"assets"`
	Seed           uint64    `msgpack:"seed"`
	NumSimulations int       `msgpack:"num_simulations"`
	HorizonMonths  int       `msgpack:"horizon_months"`
	HistoryMonths  int       `msgpack:"history_months"`
}

// SaveManifest writes m next to the arrays
func (s *Store) SaveManifest(ctx context.Context, m Manifest) error {
	data, err := msgpack.Marshal(&m)
	if err != nil {
		return fmt.Errorf("%w: failed to encode manifest: %v", domain.ErrStorage, err)
	}
	if err := s.backend.Put(ctx, s.key(ManifestName), data); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

// LoadManifest reads the manifest stored at this location
func (s *Store) LoadManifest(ctx context.Context) (Manifest, error) {
	var m Manifest

	data, err := s.backend.Get(ctx, s.key(ManifestName))
	if err != nil {
		return m, fmt.Errorf("failed to load manifest: %w", err)
	}
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%w: failed to decode manifest: %v", domain.ErrStorage, err)
	}
	return m, nil
}
