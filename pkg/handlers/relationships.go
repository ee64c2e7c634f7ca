package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/models"
	"github.com/schemalens/schemalens/pkg/services"
)

// VerifyRelationshipRequest for PATCH verify body.
type VerifyRelationshipRequest struct {
	Verified bool `json:"verified"`
}

// ListRelationshipsResponse wraps the relationship array.
type ListRelationshipsResponse struct {
	Relationships []*models.Relationship `json:"relationships"`
}

// RelationshipsHandler handles relationship HTTP requests.
type RelationshipsHandler struct {
	relationships services.RelationshipService
	logger        *zap.Logger
}

// NewRelationshipsHandler creates a new relationships handler.
func NewRelationshipsHandler(relationships services.RelationshipService, logger *zap.Logger) *RelationshipsHandler {
	return &RelationshipsHandler{
		relationships: relationships,
		logger:        logger,
	}
}

// RegisterRoutes registers the relationships handler's routes on the given mux.
func (h *RelationshipsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/environments/{id}/relationships/infer", h.Infer)
	mux.HandleFunc("GET /api/environments/{id}/relationships", h.List)
	mux.HandleFunc("PATCH /api/relationships/{id}/verify", h.Verify)
	mux.HandleFunc("DELETE /api/relationships/{id}", h.Delete)
}

// Infer handles POST /api/environments/{id}/relationships/infer.
func (h *RelationshipsHandler) Infer(w http.ResponseWriter, r *http.Request) {
	environmentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.relationships.InferRelationships(r.Context(), environmentID)
	if err != nil {
		h.logger.Error("Relationship inference failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result) //nolint:errcheck
}

// List handles GET /api/environments/{id}/relationships.
func (h *RelationshipsHandler) List(w http.ResponseWriter, r *http.Request) {
	environmentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	rels, err := h.relationships.ListRelationships(r.Context(), environmentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListRelationshipsResponse{Relationships: rels}) //nolint:errcheck
}

// Verify handles PATCH /api/relationships/{id}/verify.
func (h *RelationshipsHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req VerifyRelationshipRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.relationships.VerifyRelationship(r.Context(), id, req.Verified); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/relationships/{id}.
func (h *RelationshipsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.relationships.DeleteRelationship(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
