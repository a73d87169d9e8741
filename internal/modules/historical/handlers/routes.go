package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all historical data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/historical", func(r chi.Router) {
		r.Get("/assets", h.HandleGetAssets)
		r.Get("/panel", h.HandleGetPanel)
		r.Get("/returns/{asset}", func(w http.ResponseWriter, r *http.Request) {
			asset := chi.URLParam(r, "asset")
			h.HandleGetReturns(w, r, asset)
		})
	})
}
