package handlers

import (
	"net/http"

	"card-catalog/internal/common/errors"
	"card-catalog/internal/common/logging"
)

const (
	msgNotConnected  = "Database connection not established."
	msgMissingQuery  = "Please provide a 'query' parameter."
	msgNoCardsFound  = "No cards found matching your query."
	msgSearchFailure = "An internal server error occurred during search."
)

// SearchCards handles GET /api/cards?query=<text>.
func (h *Handlers) SearchCards(w http.ResponseWriter, r *http.Request) {
	if !h.db.Connected() {
		h.logger.Error("Search requested without a database connection", nil)
		h.sendError(w, http.StatusInternalServerError, msgNotConnected)
		return
	}

	query := r.URL.Query().Get("query")
	results, err := h.search.Search(r.Context(), query)
	if err != nil {
		switch errors.GetType(err) {
		case errors.ErrTypeValidation:
			h.sendMessage(w, http.StatusBadRequest, msgMissingQuery)
		case errors.ErrTypeNotFound:
			h.sendMessage(w, http.StatusNotFound, msgNoCardsFound)
		case errors.ErrTypeConnection:
			h.logger.Error("Search failed, database unavailable", err)
			h.sendError(w, http.StatusInternalServerError, msgNotConnected)
		default:
			h.logger.Error("Search failed", err, logging.String("query", query))
			h.sendError(w, http.StatusInternalServerError, msgSearchFailure)
		}
		return
	}

	h.sendJSON(w, http.StatusOK, results)
}
