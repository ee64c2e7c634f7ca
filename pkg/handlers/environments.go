package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
	"github.com/schemalens/schemalens/pkg/models"
	"github.com/schemalens/schemalens/pkg/services"
)

// CreateEnvironmentRequest for POST body. Config carries engine-specific
// connection parameters; CredentialsKey references secrets in the vault.
type CreateEnvironmentRequest struct {
	Name           string         `json:"name"`
	Config         map[string]any `json:"config"`
	CredentialsKey string         `json:"credentials_key,omitempty"`
}

// UpdateEnvironmentRequest for PUT body.
type UpdateEnvironmentRequest struct {
	Config         map[string]any `json:"config"`
	CredentialsKey string         `json:"credentials_key,omitempty"`
}

// ImportTablesRequest for POST import body.
type ImportTablesRequest struct {
	Tables []services.TableSelection `json:"tables"`
}

// ListEnvironmentsResponse wraps the environment array.
type ListEnvironmentsResponse struct {
	Environments []*models.Environment `json:"environments"`
}

// HealthCheckResponse reports the outcome of a connectivity check.
type HealthCheckResponse struct {
	Status  models.HealthStatus `json:"status"`
	Message string              `json:"message,omitempty"`
}

// EnvironmentsHandler handles environment HTTP requests.
type EnvironmentsHandler struct {
	dataSources services.DataSourceService
	health      services.HealthService
	logger      *zap.Logger
}

// NewEnvironmentsHandler creates a new environments handler.
func NewEnvironmentsHandler(dataSources services.DataSourceService, health services.HealthService, logger *zap.Logger) *EnvironmentsHandler {
	return &EnvironmentsHandler{
		dataSources: dataSources,
		health:      health,
		logger:      logger,
	}
}

// RegisterRoutes registers the environments handler's routes on the given mux.
func (h *EnvironmentsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/datasources/{id}/environments", h.Create)
	mux.HandleFunc("GET /api/datasources/{id}/environments", h.List)
	mux.HandleFunc("GET /api/environments/{id}", h.Get)
	mux.HandleFunc("PUT /api/environments/{id}", h.Update)
	mux.HandleFunc("DELETE /api/environments/{id}", h.Delete)
	mux.HandleFunc("POST /api/environments/{id}/health-check", h.HealthCheck)
	mux.HandleFunc("GET /api/environments/{id}/available-tables", h.AvailableTables)
	mux.HandleFunc("POST /api/environments/{id}/tables/import", h.ImportTables)
}

// Create handles POST /api/datasources/{id}/environments.
func (h *EnvironmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	dataSourceID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req CreateEnvironmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		ErrorResponse(w, http.StatusBadRequest, "invalid_request", "name is required") //nolint:errcheck
		return
	}

	env, err := h.dataSources.CreateEnvironment(r.Context(), dataSourceID, req.Name, req.Config, req.CredentialsKey)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, env) //nolint:errcheck
}

// List handles GET /api/datasources/{id}/environments.
func (h *EnvironmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	dataSourceID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	envs, err := h.dataSources.ListEnvironments(r.Context(), dataSourceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListEnvironmentsResponse{Environments: envs}) //nolint:errcheck
}

// Get handles GET /api/environments/{id}.
func (h *EnvironmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	env, err := h.dataSources.GetEnvironment(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, env) //nolint:errcheck
}

// Update handles PUT /api/environments/{id}.
func (h *EnvironmentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateEnvironmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.dataSources.UpdateEnvironment(r.Context(), id, req.Config, req.CredentialsKey); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/environments/{id}.
func (h *EnvironmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.dataSources.DeleteEnvironment(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles POST /api/environments/{id}/health-check.
// A failed connectivity check still responds 200: the check itself
// succeeded and the status carries the outcome.
func (h *EnvironmentsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	status, err := h.health.CheckEnvironment(r.Context(), id)
	resp := HealthCheckResponse{Status: status}
	if err != nil {
		if status == models.HealthUnknown {
			writeServiceError(w, err)
			return
		}
		resp.Message = err.Error()
	}
	WriteJSON(w, http.StatusOK, resp) //nolint:errcheck
}

// AvailableTables handles GET /api/environments/{id}/available-tables.
// Schema filtering comes from comma-separated include_schemas and
// exclude_schemas query parameters.
func (h *EnvironmentsHandler) AvailableTables(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	filter := engine.SchemaFilter{
		IncludeSchemas: splitParam(r.URL.Query().Get("include_schemas")),
		ExcludeSchemas: splitParam(r.URL.Query().Get("exclude_schemas")),
	}

	tables, err := h.dataSources.ListAvailableTables(r.Context(), id, filter)
	if err != nil {
		h.logger.Error("Failed to list available tables", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, tables) //nolint:errcheck
}

// ImportTables handles POST /api/environments/{id}/tables/import.
func (h *EnvironmentsHandler) ImportTables(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req ImportTablesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Tables) == 0 {
		ErrorResponse(w, http.StatusBadRequest, "invalid_request", "tables is required") //nolint:errcheck
		return
	}

	imported, err := h.dataSources.ImportTables(r.Context(), id, req.Tables)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"tables": imported}) //nolint:errcheck
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
