package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tally/internal/core"
)

// Envelope is the standard API response wrapper used across handlers.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// respondJSON writes a success response using the common envelope.
func respondJSON(w http.ResponseWriter, status int, message string, data any) {
	writeEnvelope(w, status, Envelope{Code: status, Message: message, Data: data})
}

// respondError writes an error response with the shared envelope.
func respondError(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, Envelope{Code: status, Message: message})
}

// respondDomainError maps a service error onto the HTTP status taxonomy
// and writes it. Unrecognized errors become a 500 with a generic
// message so internals never leak to clients.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrAuth):
		respondError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrConflict):
		respondError(w, http.StatusConflict, "already exists")
	case errors.Is(err, core.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		slog.ErrorContext(r.Context(), "Unhandled handler error",
			"path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeEnvelope(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response payload", "error", err)
	}
}

// decodeJSON parses the request body into dst, rejecting unknown
// fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
