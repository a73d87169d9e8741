// Package handlers provides HTTP handlers for historical return data.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/horizon/internal/modules/historical"
	"github.com/aristath/horizon/internal/utils"
	"github.com/rs/zerolog"
)

// ReturnSource provides stored monthly return series
type ReturnSource interface {
	ListAssets(ctx context.Context) ([]string, error)
	LoadSeries(ctx context.Context, asset string) (historical.Series, error)
	LoadPanel(ctx context.Context, assets []string) (*historical.ReturnPanel, historical.AlignReport, error)
}

// Handler handles historical data HTTP requests
type Handler struct {
	source ReturnSource
	log    zerolog.Logger
}

// NewHandler creates a new historical data handler
func NewHandler(source ReturnSource, log zerolog.Logger) *Handler {
	return &Handler{
		source: source,
		log:    log.With().Str("handler", "historical").Logger(),
	}
}

// HandleGetAssets handles GET /api/historical/assets
func (h *Handler) HandleGetAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.source.ListAssets(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list assets")
		http.Error(w, "Failed to list assets", http.StatusInternalServerError)
		return
	}
	if assets == nil {
		assets = []string{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"assets": assets,
			"count":  len(assets),
		},
		"metadata": metadata(),
	})
}

// HandleGetReturns handles GET /api/historical/returns/{asset}
func (h *Handler) HandleGetReturns(w http.ResponseWriter, r *http.Request, asset string) {
	series, err := h.source.LoadSeries(r.Context(), asset)
	if err != nil {
		h.log.Error().Err(err).Str("asset", asset).Msg("Failed to load returns")
		http.Error(w, "Failed to load returns", http.StatusInternalServerError)
		return
	}
	if len(series.Observations) == 0 {
		http.Error(w, "No returns stored for "+asset, http.StatusNotFound)
		return
	}

	returns := make([]map[string]interface{}, 0, len(series.Observations))
	for _, obs := range series.Observations {
		returns = append(returns, map[string]interface{}{
			"month":          obs.Month(),
			"date":           obs.Date.Format("2006-01-02"),
			"monthly_return": obs.Return,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"asset":   asset,
			"returns": returns,
			"count":   len(returns),
		},
		"metadata": metadata(),
	})
}

// HandleGetPanel handles GET /api/historical/panel?assets=a,b
// The response describes the aligned panel without returning every cell.
func (h *Handler) HandleGetPanel(w http.ResponseWriter, r *http.Request) {
	assets := utils.ParseAssetList(r.URL.Query().Get("assets"))

	panel, report, err := h.source.LoadPanel(r.Context(), assets)
	if err != nil {
		h.log.Warn().Err(err).Strs("assets", assets).Msg("Failed to build panel")
		http.Error(w, err.Error(), utils.StatusForError(err))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"assets":       panel.Assets(),
			"rows":         panel.Rows(),
			"dropped_rows": report.DroppedRows,
			"first_month":  report.FirstMonth,
			"last_month":   report.LastMonth,
		},
		"metadata": metadata(),
	})
}

func metadata() map[string]interface{} {
	return map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
