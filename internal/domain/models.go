// Package domain provides the types and error kinds shared across the simulator modules.
package domain

import "time"

// MonthsPerYear is the calendar year length used to derive annual figures.
const MonthsPerYear = 12

// RunStatus represents the lifecycle state of a simulation run
type RunStatus string

const (
	// RunStatusRunning is set when the run is recorded, before sampling starts
	RunStatusRunning RunStatus = "running"
	// RunStatusCompleted means every asset array was persisted
	RunStatusCompleted RunStatus = "completed"
	// RunStatusPartial means sampling finished but some asset saves failed
	RunStatusPartial RunStatus = "partial"
	// RunStatusFailed means the run produced nothing usable
	RunStatusFailed RunStatus = "failed"
)

// Run describes one recorded simulation run
type Run struct {
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ID             string     `json:"id"`
	Status         RunStatus  `json:"status"`
	Location       string     `json:"location"`
	Error          string     `json:"error,omitempty"`
	Assets         []string   `json:"assets"`
	Seed           uint64     `json:"seed"`
	NumSimulations int        `json:"num_simulations"`
	HorizonMonths  int        `json:"horizon_months"`
	HistoryMonths  int        `json:"history_months"`
}

// HorizonYears returns the number of whole years covered by the run
func (r Run) HorizonYears() int {
	return r.HorizonMonths / MonthsPerYear
}
