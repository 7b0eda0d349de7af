// Package handlers implements the HTTP endpoints of the card catalog.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"card-catalog/internal/catalog"
	"card-catalog/internal/common/logging"
)

// Searcher runs a card search for a raw query string.
type Searcher interface {
	Search(ctx context.Context, rawQuery string) ([]catalog.SearchResult, error)
}

// Database reports on the storage connection.
type Database interface {
	Connected() bool
	Ping(ctx context.Context) error
}

type Handlers struct {
	search Searcher
	db     Database
	logger logging.Logger
}

func New(search Searcher, db Database, logger logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.Component("handlers")
	}
	return &Handlers{
		search: search,
		db:     db,
		logger: logger,
	}
}

// sendJSON writes data as a JSON response with the given status.
func (h *Handlers) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", err)
	}
}

func (h *Handlers) sendError(w http.ResponseWriter, status int, msg string) {
	h.sendJSON(w, status, map[string]string{"error": msg})
}

func (h *Handlers) sendMessage(w http.ResponseWriter, status int, msg string) {
	h.sendJSON(w, status, map[string]string{"message": msg})
}
