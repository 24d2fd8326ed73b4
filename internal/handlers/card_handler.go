package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/repository"
)

const defaultSearchLimit = 50

// CardHandler handles card catalog endpoints
type CardHandler struct {
	cardRepo repository.CardRepo
	setRepo  repository.SetRepo
}

// NewCardHandler creates a new CardHandler
func NewCardHandler(cardRepo repository.CardRepo, setRepo repository.SetRepo) *CardHandler {
	return &CardHandler{cardRepo: cardRepo, setRepo: setRepo}
}

// Search matches cards by name, set code or collector number
func (h *CardHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		respondError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}
	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	cards, err := h.cardRepo.Search(r.Context(), q, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if cards == nil {
		cards = []*models.Card{}
	}
	respondJSON(w, http.StatusOK, cards)
}

// Get returns a single card by set code and collector number
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	setCode := chi.URLParam(r, "setCode")
	number := chi.URLParam(r, "number")

	card, err := h.cardRepo.GetBySetNumber(r.Context(), setCode, number)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if card == nil {
		writeServiceError(w, models.ErrCardNotFound)
		return
	}
	respondJSON(w, http.StatusOK, card)
}

// ListSets returns the distinct set codes present in the catalog
func (h *CardHandler) ListSets(w http.ResponseWriter, r *http.Request) {
	codes, err := h.cardRepo.ListSetCodes(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if codes == nil {
		codes = []string{}
	}
	respondJSON(w, http.StatusOK, codes)
}

// ListSetNumbers returns the collector numbers within one set
func (h *CardHandler) ListSetNumbers(w http.ResponseWriter, r *http.Request) {
	setCode := chi.URLParam(r, "setCode")

	set, err := h.setRepo.GetByCode(r.Context(), setCode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	numbers, err := h.cardRepo.ListNumbersInSet(r.Context(), setCode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if set == nil && len(numbers) == 0 {
		writeServiceError(w, models.ErrSetNotFound)
		return
	}
	if numbers == nil {
		numbers = []string{}
	}
	respondJSON(w, http.StatusOK, numbers)
}
