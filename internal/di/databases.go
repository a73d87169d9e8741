// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/aristath/horizon/internal/config"
	"github.com/aristath/horizon/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the history database and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// history.db - monthly returns and the simulation run registry
	historyDB, err := database.New(database.Config{
		Path:    cfg.HistoryDBPath(),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}

	if err := historyDB.Migrate(); err != nil {
		historyDB.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	container.HistoryDB = historyDB

	log.Info().Str("path", historyDB.Path()).Msg("History database initialized")

	return container, nil
}
