package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rscoates/magic-library/internal/middleware"
	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/observability"
	"github.com/rscoates/magic-library/internal/services"
)

// BulkHandler handles CSV import/export endpoints
type BulkHandler struct {
	bulkService *services.BulkService
	metrics     *observability.BusinessMetrics
}

// NewBulkHandler creates a new BulkHandler
func NewBulkHandler(bulkService *services.BulkService, metrics *observability.BusinessMetrics) *BulkHandler {
	return &BulkHandler{bulkService: bulkService, metrics: metrics}
}

// Import loads CSV data into a container
func (h *BulkHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req models.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Format == "" {
		req.Format = models.FormatAuto
	}

	result, err := h.bulkService.Import(r.Context(), middleware.UserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordImportRows(r.Context(), result.ImportedCount, result.ErrorCount)
	}
	respondJSON(w, http.StatusOK, result)
}

// Export streams the collection as a CSV attachment
func (h *BulkHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req models.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Format == "" {
		req.Format = models.FormatSimple
	}

	data, err := h.bulkService.Export(r.Context(), middleware.UserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=collection_%s.csv", req.Format))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Formats documents the supported CSV layouts
func (h *BulkHandler) Formats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.bulkService.ListFormats())
}
