package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"orderflow/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONStatus writes a JSON response with an explicit status code.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps domain error types to HTTP statuses:
// validation 422, state conflicts 409, authorization 403, not found
// 404, misconfiguration and everything unexpected 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		valErr   *core.ValidationError
		stateErr *core.StateError
		authErr  *core.AuthorizationError
		nfErr    *core.NotFoundError
		cfgErr   *core.ConfigurationError
	)
	switch {
	case errors.As(err, &valErr):
		writeError(w, r, valErr.Error(), "VALIDATION_FAILED", http.StatusUnprocessableEntity)
	case errors.As(err, &stateErr):
		writeError(w, r, stateErr.Error(), "INVALID_STATE", http.StatusConflict)
	case errors.As(err, &authErr):
		writeError(w, r, authErr.Error(), "FORBIDDEN", http.StatusForbidden)
	case errors.As(err, &nfErr):
		writeError(w, r, nfErr.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &cfgErr):
		writeError(w, r, cfgErr.Error(), "MISCONFIGURED", http.StatusInternalServerError)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
