package app

import (
	"net/http"

	"github.com/gorilla/mux"

	"card-catalog/internal/common/ratelimit"
	"card-catalog/internal/handlers"
	"card-catalog/internal/middleware"
)

// SetupRoutes configures all HTTP routes for the application
func SetupRoutes(router *mux.Router, h *handlers.Handlers, rateLimiter ratelimit.Limiter, allowedOrigins []string) {
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	// Public API, callable from the frontend
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.CORS(allowedOrigins))
	if rateLimiter != nil {
		api.Use(ratelimit.HTTPMiddleware(rateLimiter, ratelimit.IPKey))
	}

	api.HandleFunc("/cards", h.SearchCards).Methods(http.MethodGet)
	// CORS answers preflights before this; a bare OPTIONS gets an empty reply.
	api.HandleFunc("/cards", noContent).Methods(http.MethodOptions)
}

func noContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
