// Package http provides HTTP server and handler implementations.
//
// This file centralizes JSON response writing and the mapping from domain
// errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
)

// errorResponse is the JSON body of every failed API call.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeJSON writes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps err to a status code and response body.
func statusFor(err error) (int, errorResponse) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, errorResponse{Error: ve.Message, Field: ve.Field}
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "not found"}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
	}
}

// writeError writes the mapped error body. Only 5xx responses are logged
// as errors.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, body := statusFor(err)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			log.NewFields().
				WithOperation(op).
				WithError(err).
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
				ToSlice()...)
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			log.FieldOperation, op,
			log.FieldStatusCode, status,
			log.FieldError, err)
	}
	writeJSON(w, status, body)
}
