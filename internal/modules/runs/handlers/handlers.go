// Package handlers provides HTTP handlers for simulation runs.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/horizon/internal/domain"
	"github.com/aristath/horizon/internal/modules/annual"
	"github.com/aristath/horizon/internal/modules/runs"
	"github.com/aristath/horizon/internal/progress"
	"github.com/aristath/horizon/internal/utils"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// RunService is the run orchestration used by the handlers
type RunService interface {
	Run(ctx context.Context, req runs.Request, onProgress progress.Callback) (*domain.Run, error)
	Get(ctx context.Context, id string) (*domain.Run, error)
	List(ctx context.Context, limit int) ([]domain.Run, error)
	Annual(ctx context.Context, runID, asset string, monthsPerYear int) (*mat.Dense, error)
}

// Handler handles simulation run HTTP requests
type Handler struct {
	service RunService
	log     zerolog.Logger
}

// NewHandler creates a new simulation run handler
func NewHandler(service RunService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "simulations").Logger(),
	}
}

// HandleCreate handles POST /api/simulations
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req runs.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	run, err := h.service.Run(r.Context(), req, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("Simulation run failed")
		h.writeError(w, err, run)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data":     run,
		"metadata": metadata(),
	})
}

// HandleList handles GET /api/simulations
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 50 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsedLimit
	}

	list, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"runs":  list,
			"count": len(list),
		},
		"metadata": metadata(),
	})
}

// HandleGet handles GET /api/simulations/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request, id string) {
	run, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"run":           run,
			"horizon_years": run.HorizonYears(),
		},
		"metadata": metadata(),
	})
}

// HandleAnnual handles GET /api/simulations/{id}/annual/{asset}?months_per_year=12&head=5
func (h *Handler) HandleAnnual(w http.ResponseWriter, r *http.Request, id, asset string) {
	monthsPerYear := annual.DefaultMonthsPerYear
	if v := r.URL.Query().Get("months_per_year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "months_per_year must be an integer", http.StatusBadRequest)
			return
		}
		monthsPerYear = parsed
	}

	head := 5 // default, as shown by the viewer
	if v := r.URL.Query().Get("head"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, "head must be a non-negative integer", http.StatusBadRequest)
			return
		}
		head = parsed
	}

	table, err := h.service.Annual(r.Context(), id, asset, monthsPerYear)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}

	summary, err := annual.Summarize(table)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"run_id":          id,
			"asset":           asset,
			"months_per_year": monthsPerYear,
			"summary":         summary,
			"head":            annual.Head(table, head, head),
		},
		"metadata": metadata(),
	})
}

func metadata() map[string]interface{} {
	return map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error, run *domain.Run) {
	body := map[string]interface{}{
		"error":    err.Error(),
		"metadata": metadata(),
	}
	if run != nil {
		body["data"] = run
	}
	h.writeJSON(w, utils.StatusForError(err), body)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
