package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/horizon/internal/scheduler"
)

// HealthChecker reports database health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// WorkerReporter reports the simulation worker count
type WorkerReporter interface {
	Workers() int
}

// Describer names a storage location
type Describer interface {
	Describe() string
}

// SystemHandlers serves host status and manual job triggers
type SystemHandlers struct {
	log          zerolog.Logger
	historyDB    HealthChecker
	engine       WorkerReporter
	paths        Describer
	refreshJob   scheduler.Job
	checkDBJob   scheduler.Job
	collectStats func() (float64, float64)
}

// NewSystemHandlers creates system handlers. Either job may be nil when it is not registered.
func NewSystemHandlers(
	log zerolog.Logger,
	historyDB HealthChecker,
	engine WorkerReporter,
	paths Describer,
	refreshJob scheduler.Job,
	checkDBJob scheduler.Job,
) *SystemHandlers {
	h := &SystemHandlers{
		log:        log.With().Str("handler", "system").Logger(),
		historyDB:  historyDB,
		engine:     engine,
		paths:      paths,
		refreshJob: refreshJob,
		checkDBJob: checkDBJob,
	}
	h.collectStats = h.getSystemStats
	return h
}

// SystemStatusResponse describes the host and the simulator setup
type SystemStatusResponse struct {
	Status          string  `json:"status"`
	Timestamp       string  `json:"timestamp"`
	CPUPercent      float64 `json:"cpu_percent"`
	MemoryPercent   float64 `json:"memory_percent"`
	LogicalCPUs     int     `json:"logical_cpus"`
	Goroutines      int     `json:"goroutines"`
	Workers         int     `json:"workers"`
	PathStore       string  `json:"path_store"`
	HistoryDBStatus string  `json:"history_db_status"`
}

// HandleSystemStatus returns the system status
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, memPercent := h.collectStats()

	logical, err := cpu.Counts(true)
	if err != nil || logical <= 0 {
		logical = runtime.NumCPU()
	}

	response := SystemStatusResponse{
		Status:          "healthy",
		Timestamp:       time.Now().Format(time.RFC3339),
		CPUPercent:      cpuPercent,
		MemoryPercent:   memPercent,
		LogicalCPUs:     logical,
		Goroutines:      runtime.NumGoroutine(),
		HistoryDBStatus: "ok",
	}
	if h.engine != nil {
		response.Workers = h.engine.Workers()
	}
	if h.paths != nil {
		response.PathStore = h.paths.Describe()
	}
	if h.historyDB != nil {
		if err := h.historyDB.HealthCheck(r.Context()); err != nil {
			h.log.Warn().Err(err).Msg("History database health check failed")
			response.Status = "degraded"
			response.HistoryDBStatus = err.Error()
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleTriggerRefreshSimulation starts the refresh job in the background
// POST /api/jobs/refresh-simulation
func (h *SystemHandlers) HandleTriggerRefreshSimulation(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, h.refreshJob, "refresh_simulation")
}

// HandleTriggerCheckHistoryDatabase starts the history database check in the background
// POST /api/jobs/check-history-database
func (h *SystemHandlers) HandleTriggerCheckHistoryDatabase(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, h.checkDBJob, "check_history_database")
}

func (h *SystemHandlers) trigger(w http.ResponseWriter, job scheduler.Job, name string) {
	if job == nil {
		h.log.Warn().Str("job", name).Msg("Job not registered")
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": name + " job not registered",
		})
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job triggered")

	go func() {
		if err := job.Run(); err != nil {
			h.log.Error().Err(err).Str("job", name).Msg("Manual job failed")
		}
	}()

	h.writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "success",
		"message": name + " triggered successfully",
	})
}

// getSystemStats returns CPU and memory usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// 100ms sample keeps the endpoint responsive
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
