package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rscoates/magic-library/internal/middleware"
	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/services"
)

// DecklistHandler handles decklist ownership checks
type DecklistHandler struct {
	decklistService *services.DecklistService
}

// NewDecklistHandler creates a new DecklistHandler
func NewDecklistHandler(decklistService *services.DecklistService) *DecklistHandler {
	return &DecklistHandler{decklistService: decklistService}
}

// Check resolves a decklist against the collection
func (h *DecklistHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req models.DecklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Decklist == "" {
		respondError(w, http.StatusBadRequest, "Decklist is required")
		return
	}

	result, err := h.decklistService.Check(r.Context(), middleware.UserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
