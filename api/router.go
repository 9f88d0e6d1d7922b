// Package api exposes onboarding runs over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// requestTimeout covers a full run including document transfers.
const requestTimeout = 5 * time.Minute

// NewRouter creates a chi router and registers the onboarding routes.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Onboarding service is healthy"))
	})

	r.Route("/onboardings", func(r chi.Router) {
		r.Post("/", h.handleStart)
		r.Get("/{runID}", h.handleGet)
		r.Post("/{runID}/resume", h.handleResume)
	})

	return r
}
