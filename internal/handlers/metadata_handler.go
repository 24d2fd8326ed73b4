package handlers

import (
	"net/http"

	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/repository"
)

// MetadataHandler serves languages and finishes
type MetadataHandler struct {
	metadataRepo repository.MetadataRepo
}

// NewMetadataHandler creates a new MetadataHandler
func NewMetadataHandler(metadataRepo repository.MetadataRepo) *MetadataHandler {
	return &MetadataHandler{metadataRepo: metadataRepo}
}

// ListLanguages returns all languages
func (h *MetadataHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.metadataRepo.ListLanguages(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if languages == nil {
		languages = []*models.Language{}
	}
	respondJSON(w, http.StatusOK, languages)
}

// ListFinishes returns all finishes
func (h *MetadataHandler) ListFinishes(w http.ResponseWriter, r *http.Request) {
	finishes, err := h.metadataRepo.ListFinishes(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if finishes == nil {
		finishes = []*models.Finish{}
	}
	respondJSON(w, http.StatusOK, finishes)
}
