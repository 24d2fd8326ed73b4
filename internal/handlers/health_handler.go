package handlers

import (
	"database/sql"
	"net/http"
	"time"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db      *sql.DB
	version string
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *sql.DB, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// Health reports service and database status
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "ok"
	code := http.StatusOK

	if err := h.db.PingContext(r.Context()); err != nil {
		status = "degraded"
		dbStatus = "unreachable"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]string{
		"status":   status,
		"database": dbStatus,
		"version":  h.version,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
