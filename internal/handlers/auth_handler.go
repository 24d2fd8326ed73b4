package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rscoates/magic-library/internal/middleware"
	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/observability"
	"github.com/rscoates/magic-library/internal/services"
)

// AuthHandler handles registration, login and auth status endpoints
type AuthHandler struct {
	authService *services.AuthService
	metrics     *observability.BusinessMetrics
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService, metrics *observability.BusinessMetrics) *AuthHandler {
	return &AuthHandler{authService: authService, metrics: metrics}
}

// Register creates a new user account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"id":       user.ID,
		"username": user.Username,
	})
}

// Login verifies credentials and returns a bearer token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.authService.Login(r.Context(), &req)
	if h.metrics != nil {
		h.metrics.RecordAuthAttempt(r.Context(), "password", err == nil)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, token)
}

// Status reports whether auth is enforced and who the caller is
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := models.AuthStatusResponse{AuthEnabled: h.authService.Enabled()}
	if user := middleware.GetUserFromContext(r.Context()); user != nil {
		resp.Username = user.Username
	}
	respondJSON(w, http.StatusOK, resp)
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"id":       user.ID,
		"username": user.Username,
	})
}
