package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
	"github.com/schemalens/schemalens/pkg/models"
	"github.com/schemalens/schemalens/pkg/services"
)

// CreateDataSourceRequest for POST body.
type CreateDataSourceRequest struct {
	Name       string `json:"name"`
	EngineKind string `json:"engine_kind"`
}

// RenameDataSourceRequest for PATCH name body.
type RenameDataSourceRequest struct {
	Name string `json:"name"`
}

// ListDataSourcesResponse wraps the datasource array.
type ListDataSourcesResponse struct {
	DataSources []*models.DataSource `json:"datasources"`
}

// ListEnginesResponse lists the compiled-in engine adapters.
type ListEnginesResponse struct {
	Engines []engine.AdapterInfo `json:"engines"`
}

// DataSourcesHandler handles datasource HTTP requests.
type DataSourcesHandler struct {
	dataSources services.DataSourceService
	engines     engine.Factory
	logger      *zap.Logger
}

// NewDataSourcesHandler creates a new datasources handler.
func NewDataSourcesHandler(dataSources services.DataSourceService, engines engine.Factory, logger *zap.Logger) *DataSourcesHandler {
	return &DataSourcesHandler{
		dataSources: dataSources,
		engines:     engines,
		logger:      logger,
	}
}

// RegisterRoutes registers the datasources handler's routes on the given mux.
func (h *DataSourcesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/engines", h.ListEngines)
	mux.HandleFunc("GET /api/datasources", h.List)
	mux.HandleFunc("POST /api/datasources", h.Create)
	mux.HandleFunc("GET /api/datasources/{id}", h.Get)
	mux.HandleFunc("PATCH /api/datasources/{id}/name", h.Rename)
	mux.HandleFunc("DELETE /api/datasources/{id}", h.Delete)
}

// ListEngines handles GET /api/engines.
func (h *DataSourcesHandler) ListEngines(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, ListEnginesResponse{Engines: h.engines.ListKinds()}) //nolint:errcheck
}

// List handles GET /api/datasources.
func (h *DataSourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	dataSources, err := h.dataSources.ListDataSources(r.Context())
	if err != nil {
		h.logger.Error("Failed to list datasources", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListDataSourcesResponse{DataSources: dataSources}) //nolint:errcheck
}

// Create handles POST /api/datasources.
func (h *DataSourcesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDataSourceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		ErrorResponse(w, http.StatusBadRequest, "invalid_request", "name is required") //nolint:errcheck
		return
	}

	ds, err := h.dataSources.CreateDataSource(r.Context(), req.Name, models.EngineKind(req.EngineKind))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, ds) //nolint:errcheck
}

// Get handles GET /api/datasources/{id}.
func (h *DataSourcesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	ds, err := h.dataSources.GetDataSource(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ds) //nolint:errcheck
}

// Rename handles PATCH /api/datasources/{id}/name.
func (h *DataSourcesHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req RenameDataSourceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		ErrorResponse(w, http.StatusBadRequest, "invalid_request", "name is required") //nolint:errcheck
		return
	}
	if err := h.dataSources.RenameDataSource(r.Context(), id, req.Name); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/datasources/{id}.
func (h *DataSourcesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.dataSources.DeleteDataSource(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
