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

// BinderHandler handles binder page rendering and position endpoints
type BinderHandler struct {
	binderService *services.BinderService
	metrics       *observability.BusinessMetrics
}

// NewBinderHandler creates a new BinderHandler
func NewBinderHandler(binderService *services.BinderService, metrics *observability.BusinessMetrics) *BinderHandler {
	return &BinderHandler{binderService: binderService, metrics: metrics}
}

// Page renders one binder page
func (h *BinderHandler) Page(w http.ResponseWriter, r *http.Request) {
	containerID, ok := pathID(r, "containerID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid container id")
		return
	}
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page number")
		return
	}

	resp, err := h.binderService.RenderPage(r.Context(), containerID, page, middleware.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordBinderPageView(r.Context(), containerID, resp.BinderFillRow)
	}
	respondJSON(w, http.StatusOK, resp)
}

// Position lists every entry sharing one binder position
func (h *BinderHandler) Position(w http.ResponseWriter, r *http.Request) {
	containerID, ok := pathID(r, "containerID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid container id")
		return
	}
	position, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil || position < 1 {
		respondError(w, http.StatusBadRequest, "Invalid position")
		return
	}

	resp, err := h.binderService.PositionDetail(r.Context(), containerID, position, middleware.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Reposition applies a bulk position update
func (h *BinderHandler) Reposition(w http.ResponseWriter, r *http.Request) {
	containerID, ok := pathID(r, "containerID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid container id")
		return
	}
	var req models.BulkPositionUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.binderService.BulkReposition(r.Context(), containerID, middleware.UserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Consolidate re-derives every position in one binder
func (h *BinderHandler) Consolidate(w http.ResponseWriter, r *http.Request) {
	containerID, ok := pathID(r, "containerID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid container id")
		return
	}

	updated, err := h.binderService.Consolidate(r.Context(), containerID, middleware.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"updated_count": updated,
	})
}
