package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
	"github.com/schemalens/schemalens/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeServiceError maps service-layer errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var connErr *engine.ConnectionError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		ErrorResponse(w, http.StatusNotFound, "not_found", err.Error()) //nolint:errcheck
	case errors.Is(err, apperrors.ErrConflict):
		ErrorResponse(w, http.StatusConflict, "conflict", err.Error()) //nolint:errcheck
	case errors.Is(err, apperrors.ErrInsufficientTables):
		ErrorResponse(w, http.StatusBadRequest, "insufficient_tables", err.Error()) //nolint:errcheck
	case errors.Is(err, apperrors.ErrUnsupportedEngine):
		ErrorResponse(w, http.StatusBadRequest, "unsupported_engine", err.Error()) //nolint:errcheck
	case errors.Is(err, apperrors.ErrCredentialsUnavailable):
		ErrorResponse(w, http.StatusUnprocessableEntity, "credentials_unavailable", err.Error()) //nolint:errcheck
	case errors.As(err, &connErr):
		ErrorResponse(w, http.StatusBadGateway, "engine_unreachable", err.Error()) //nolint:errcheck
	default:
		ErrorResponse(w, http.StatusInternalServerError, "internal_error", err.Error()) //nolint:errcheck
	}
}

// pathUUID parses the named path segment as a UUID, writing a 400 response
// on failure. The boolean reports whether the handler should continue.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		ErrorResponse(w, http.StatusBadRequest, "invalid_id", "invalid "+name) //nolint:errcheck
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody decodes a JSON request body, writing a 400 response on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "invalid_body", "malformed JSON body") //nolint:errcheck
		return false
	}
	return true
}
