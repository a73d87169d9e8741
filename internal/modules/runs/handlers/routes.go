package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all simulation run routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/simulations", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGet(w, r, chi.URLParam(r, "id"))
		})
		r.Get("/{id}/annual/{asset}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleAnnual(w, r, chi.URLParam(r, "id"), chi.URLParam(r, "asset"))
		})
	})
}
