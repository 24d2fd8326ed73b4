package handlers

import (
	"net/http"
	"strconv"

	"github.com/rscoates/magic-library/internal/middleware"
	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/services"
)

// PricingHandler handles collection valuation endpoints
type PricingHandler struct {
	pricingService *services.PricingService
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(pricingService *services.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

// Status reports whether pricing data is loaded
func (h *PricingHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.pricingService.Status())
}

// Reload re-reads the price dump from disk
func (h *PricingHandler) Reload(w http.ResponseWriter, r *http.Request) {
	count, err := h.pricingService.Load("")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if count > 0 {
		respondJSON(w, http.StatusOK, models.PricingStatusResponse{
			Loaded:  true,
			Message: "Reloaded pricing data for " + strconv.Itoa(count) + " cards.",
		})
		return
	}
	respondJSON(w, http.StatusOK, models.PricingStatusResponse{
		Loaded:  false,
		Message: "Failed to load pricing data. Check server logs.",
	})
}

// CollectionValue prices the collection or one container
func (h *PricingHandler) CollectionValue(w http.ResponseWriter, r *http.Request) {
	var containerID *int64
	if raw := r.URL.Query().Get("container_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid container_id")
			return
		}
		containerID = &id
	}

	includeSold := r.URL.Query().Get("include_sold") == "true"

	limit := 250
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	resp, err := h.pricingService.CollectionValue(r.Context(), middleware.UserID(r.Context()), containerID, includeSold, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
