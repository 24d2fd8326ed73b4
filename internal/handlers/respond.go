package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/observability"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps a service error to an HTTP status: absent resources
// are 404, precondition violations and bad input are 400, everything
// unexpected is 500.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrCardNotFound),
		errors.Is(err, models.ErrSetNotFound),
		errors.Is(err, models.ErrContainerNotFound),
		errors.Is(err, models.ErrParentNotFound),
		errors.Is(err, models.ErrEntryNotFound),
		errors.Is(err, models.ErrPositionEmpty):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrUsernameTaken),
		errors.Is(err, models.ErrContainerTypeExists):
		status = http.StatusConflict
	case errors.Is(err, models.ErrUsernameRequired),
		errors.Is(err, models.ErrRegistrationOff),
		errors.Is(err, models.ErrInvalidLanguage),
		errors.Is(err, models.ErrInvalidFinish),
		errors.Is(err, models.ErrContainerNameRequired),
		errors.Is(err, models.ErrInvalidContainerType),
		errors.Is(err, models.ErrSelfParent),
		errors.Is(err, models.ErrContainerCycle),
		errors.Is(err, models.ErrMaxDepthExceeded),
		errors.Is(err, models.ErrHasChildren),
		errors.Is(err, models.ErrInvalidBinderColumns),
		errors.Is(err, models.ErrNotBinder),
		errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrMoveExceedsQuantity),
		errors.Is(err, models.ErrSameContainer),
		errors.Is(err, models.ErrInvalidPage),
		errors.Is(err, models.ErrCSVTooShort),
		errors.Is(err, models.ErrInvalidFormat):
		status = http.StatusBadRequest
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		observability.Errorf("request failed: %v", err)
		msg = "Internal server error"
	}
	respondError(w, status, msg)
}
