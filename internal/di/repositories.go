package di

import (
	"fmt"

	"github.com/aristath/horizon/internal/modules/historical"
	"github.com/aristath/horizon/internal/modules/runs"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the repositories on the opened databases
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil || container.HistoryDB == nil {
		return fmt.Errorf("history database not initialized")
	}

	container.ReturnsRepo = historical.NewRepository(container.HistoryDB.Conn(), log)
	container.RunRepo = runs.NewRepository(container.HistoryDB.Conn(), log)

	log.Info().Msg("Repositories initialized")
	return nil
}
