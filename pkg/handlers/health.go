package handlers

import (
	"net/http"

	"github.com/schemalens/schemalens/pkg/database"
)

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	db      *database.DB
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *database.DB, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Health)
}

// Health handles GET /healthz. Reports unhealthy when the metadata store
// is unreachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Version: h.version}) //nolint:errcheck
		return
	}
	WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: h.version}) //nolint:errcheck
}
