package di

import (
	"context"
	"fmt"

	"github.com/aristath/horizon/internal/config"
	"github.com/aristath/horizon/internal/modules/pathstore"
	"github.com/aristath/horizon/internal/modules/runs"
	"github.com/aristath/horizon/internal/modules/simulation"
	"github.com/rs/zerolog"
)

// InitializeServices creates the path store, the simulation engine and the run service
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	backend, err := NewPathBackend(ctx, cfg.Paths, log)
	if err != nil {
		return err
	}
	container.PathBackend = backend
	container.PathStore = pathstore.New(backend, "", log)

	container.Engine = simulation.NewEngine(cfg.Workers, log)
	container.Engine.SetMaxCells(cfg.MaxCells)

	container.RunService = runs.NewService(
		container.RunRepo,
		container.ReturnsRepo,
		container.Engine,
		container.PathStore,
		log,
	)

	log.Info().
		Str("paths", backend.Describe()).
		Int("workers", container.Engine.Workers()).
		Msg("Services initialized")

	return nil
}

// NewPathBackend creates the backend selected by cfg
func NewPathBackend(ctx context.Context, cfg *config.PathsConfig, log zerolog.Logger) (pathstore.Backend, error) {
	switch cfg.Backend {
	case config.BackendFile:
		backend, err := pathstore.NewFileBackend(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file path store: %w", err)
		}
		return backend, nil

	case config.BackendS3:
		client, err := pathstore.NewS3Client(ctx, pathstore.S3Config{
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			Endpoint:        cfg.Endpoint,
			Region:          cfg.Region,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize s3 client: %w", err)
		}
		backend, err := pathstore.NewS3Backend(client, cfg.Bucket, cfg.Prefix, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize s3 path store: %w", err)
		}
		return backend, nil

	default:
		return nil, fmt.Errorf("unknown path store backend %q", cfg.Backend)
	}
}
