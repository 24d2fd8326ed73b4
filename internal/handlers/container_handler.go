package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rscoates/magic-library/internal/middleware"
	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/services"
)

// ContainerHandler handles container hierarchy endpoints
type ContainerHandler struct {
	containerService *services.ContainerService
}

// NewContainerHandler creates a new ContainerHandler
func NewContainerHandler(containerService *services.ContainerService) *ContainerHandler {
	return &ContainerHandler{containerService: containerService}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}

// Create creates a container
func (h *ContainerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateContainerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	container, err := h.containerService.CreateContainer(r.Context(), middleware.UserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, container)
}

// List returns containers, optionally filtered by parent
func (h *ContainerHandler) List(w http.ResponseWriter, r *http.Request) {
	var parentID *int64
	rootOnly := false
	if raw := r.URL.Query().Get("parent_id"); raw != "" {
		if raw == "null" {
			rootOnly = true
		} else {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Invalid parent_id")
				return
			}
			parentID = &id
		}
	}

	containers, err := h.containerService.ListContainers(r.Context(), middleware.UserID(r.Context()), parentID, rootOnly)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if containers == nil {
		containers = []*models.Container{}
	}
	respondJSON(w, http.StatusOK, containers)
}

// Get returns one container
func (h *ContainerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid container id")
		return
	}

	container, err := h.containerService.GetContainer(r.Context(), id, middleware.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, container)
}

// Update applies a partial container update
func (h *ContainerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid container id")
		return
	}
	var req models.UpdateContainerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	container, err := h.containerService.UpdateContainer(r.Context(), id, middleware.UserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, container)
}

// Delete removes an empty container
func (h *ContainerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid container id")
		return
	}

	if err := h.containerService.DeleteContainer(r.Context(), id, middleware.UserID(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListTypes returns all container types
func (h *ContainerHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.containerService.ListTypes(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if types == nil {
		types = []*models.ContainerType{}
	}
	respondJSON(w, http.StatusOK, types)
}

// CreateType adds a container type
func (h *ContainerHandler) CreateType(w http.ResponseWriter, r *http.Request) {
	var req models.CreateContainerTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.containerService.CreateType(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, t)
}
