/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every long-lived dependency of the simulator and is
 * passed to the server and the CLI for access to services.
 */
package di

import (
	"github.com/aristath/horizon/internal/database"
	"github.com/aristath/horizon/internal/modules/historical"
	"github.com/aristath/horizon/internal/modules/pathstore"
	"github.com/aristath/horizon/internal/modules/runs"
	"github.com/aristath/horizon/internal/modules/simulation"
	"github.com/aristath/horizon/internal/scheduler"
)

// Container holds all dependencies for the application
type Container struct {
	// Databases
	HistoryDB *database.DB // Monthly returns and the run registry

	// Repositories - Data access layer
	ReturnsRepo *historical.Repository
	RunRepo     *runs.Repository

	// Storage
	PathBackend pathstore.Backend // Directory or S3 bucket for simulated arrays
	PathStore   *pathstore.Store

	// Services - Business logic layer
	Engine     *simulation.Engine
	RunService *runs.Service
}

// Close releases the resources held by the container
func (c *Container) Close() error {
	if c == nil || c.HistoryDB == nil {
		return nil
	}
	return c.HistoryDB.Close()
}

// JobInstances holds the background jobs. RefreshSimulation is nil when no schedule is configured.
type JobInstances struct {
	RefreshSimulation    *scheduler.RefreshSimulationJob
	CheckHistoryDatabase *scheduler.CheckHistoryDatabaseJob
}
