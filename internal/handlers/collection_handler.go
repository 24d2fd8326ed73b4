package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rscoates/magic-library/internal/middleware"
	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/observability"
	"github.com/rscoates/magic-library/internal/services"
)

// CollectionHandler handles collection entry endpoints
type CollectionHandler struct {
	collectionService *services.CollectionService
	metrics           *observability.BusinessMetrics
}

// NewCollectionHandler creates a new CollectionHandler
func NewCollectionHandler(collectionService *services.CollectionService, metrics *observability.BusinessMetrics) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService, metrics: metrics}
}

// Add creates or merges a collection entry
func (h *CollectionHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := middleware.UserID(r.Context())
	entry, merged, err := h.collectionService.AddEntry(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordEntryAdd(r.Context(), userID, merged)
	}

	status := http.StatusCreated
	if merged {
		status = http.StatusOK
	}
	respondJSON(w, status, entry)
}

// List returns entries, optionally filtered by container
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	var containerID *int64
	if raw := r.URL.Query().Get("container_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid container_id")
			return
		}
		containerID = &id
	}

	entries, err := h.collectionService.ListEntries(r.Context(), middleware.UserID(r.Context()), containerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.EntryResponse{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// Get returns one entry
func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid entry id")
		return
	}

	entry, err := h.collectionService.GetEntry(r.Context(), id, middleware.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// Summary aggregates holdings of one card across all containers
func (h *CollectionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	setCode := chi.URLParam(r, "setCode")
	number := chi.URLParam(r, "number")

	summary, err := h.collectionService.Summarize(r.Context(), setCode, number, middleware.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Update applies a partial entry update
func (h *CollectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid entry id")
		return
	}
	var req models.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.collectionService.UpdateEntry(r.Context(), id, middleware.UserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// Delete removes an entry
func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid entry id")
		return
	}

	if err := h.collectionService.DeleteEntry(r.Context(), id, middleware.UserID(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Move transfers quantity from an entry to another container
func (h *CollectionHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid entry id")
		return
	}
	var req models.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.collectionService.MoveQuantity(r.Context(), id, middleware.UserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
