package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/models"
	"github.com/schemalens/schemalens/pkg/services"
)

// AnalyzeTableRequest for POST analyze body.
type AnalyzeTableRequest struct {
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

// UpdateTableDescriptionRequest for PUT description body.
type UpdateTableDescriptionRequest struct {
	Description string `json:"description"`
}

// UpdateColumnDescriptionRequest for PUT column description body.
type UpdateColumnDescriptionRequest struct {
	Purpose      string `json:"purpose"`
	ExampleValue string `json:"example_value,omitempty"`
	ValuePattern string `json:"value_pattern,omitempty"`
}

// ListTablesResponse wraps the table array.
type ListTablesResponse struct {
	Tables []*models.Table `json:"tables"`
}

// ListColumnsResponse wraps the column array.
type ListColumnsResponse struct {
	Columns []*models.Column `json:"columns"`
}

// TablesHandler handles table and column HTTP requests, including the
// analysis trigger.
type TablesHandler struct {
	analysis services.AnalysisService
	logger   *zap.Logger
}

// NewTablesHandler creates a new tables handler.
func NewTablesHandler(analysis services.AnalysisService, logger *zap.Logger) *TablesHandler {
	return &TablesHandler{
		analysis: analysis,
		logger:   logger,
	}
}

// RegisterRoutes registers the tables handler's routes on the given mux.
func (h *TablesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/environments/{id}/tables", h.List)
	mux.HandleFunc("GET /api/tables/{id}", h.Get)
	mux.HandleFunc("DELETE /api/tables/{id}", h.Delete)
	mux.HandleFunc("POST /api/tables/{id}/analyze", h.Analyze)
	mux.HandleFunc("PUT /api/tables/{id}/description", h.UpdateDescription)
	mux.HandleFunc("GET /api/tables/{id}/columns", h.ListColumns)
	mux.HandleFunc("PUT /api/columns/{id}/description", h.UpdateColumnDescription)
}

// List handles GET /api/environments/{id}/tables.
func (h *TablesHandler) List(w http.ResponseWriter, r *http.Request) {
	environmentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	tables, err := h.analysis.ListTables(r.Context(), environmentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListTablesResponse{Tables: tables}) //nolint:errcheck
}

// Get handles GET /api/tables/{id}. The response carries the analysis
// status, result, and error so callers can poll for progress.
func (h *TablesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	table, err := h.analysis.GetTable(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, table) //nolint:errcheck
}

// Delete handles DELETE /api/tables/{id}.
func (h *TablesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.analysis.DeleteTable(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Analyze handles POST /api/tables/{id}/analyze. The call is synchronous
// and returns the table in its terminal state.
func (h *TablesHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req AnalyzeTableRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	table, err := h.analysis.AnalyzeTable(r.Context(), id, req.CustomPrompt)
	if err != nil {
		h.logger.Error("Table analysis failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, table) //nolint:errcheck
}

// UpdateDescription handles PUT /api/tables/{id}/description.
func (h *TablesHandler) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateTableDescriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.analysis.UpdateTableDescription(r.Context(), id, req.Description); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListColumns handles GET /api/tables/{id}/columns.
func (h *TablesHandler) ListColumns(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	columns, err := h.analysis.ListColumns(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListColumnsResponse{Columns: columns}) //nolint:errcheck
}

// UpdateColumnDescription handles PUT /api/columns/{id}/description.
func (h *TablesHandler) UpdateColumnDescription(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateColumnDescriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Purpose == "" {
		ErrorResponse(w, http.StatusBadRequest, "invalid_request", "purpose is required") //nolint:errcheck
		return
	}

	err := h.analysis.UpdateColumnDescription(r.Context(), id, &models.ColumnAIDescription{
		Purpose:      req.Purpose,
		ExampleValue: req.ExampleValue,
		ValuePattern: req.ValuePattern,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
