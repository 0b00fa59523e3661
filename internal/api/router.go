/**
 * @description
 * This file sets up the HTTP router for the dispatch-service using the
 * go-chi/chi router. It defines the API routes, applies middleware for
 * logging, CORS, and authentication, and maps routes to their handlers.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers the dispatch-service routes.
func NewRouter(h *Handler, adminJWTSecret, internalAPIKey string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Internal-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Dispatch service is healthy"))
	})

	// Signup-time eligibility and subscription intake.
	r.Post("/subscriptions/check", h.handleCheckSubscription)
	r.Post("/subscriptions", h.handleCreateSubscription)

	// Admin trigger surface, behind server-validated credentials.
	r.Group(func(r chi.Router) {
		r.Use(AdminAuthMiddleware(adminJWTSecret))
		r.Post("/admin/dispatch/run", h.handleRunDispatch)
		r.Get("/admin/meetings/today", h.handleGetTodayMeeting)
	})

	// Server-to-server trigger path, only mounted when a key is configured.
	if internalAPIKey != "" {
		r.Group(func(r chi.Router) {
			r.Use(InternalAuthMiddleware(internalAPIKey))
			r.Post("/internal/dispatch/run", h.handleRunDispatch)
		})
	}

	return r
}
