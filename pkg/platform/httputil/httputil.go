// Package httputil writes JSON responses and maps sentinel errors onto HTTP statuses.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/sentinel"
)

// ErrorResponse is the JSON envelope of every error reply.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err onto a status and error code. Internal errors carry no description.
func WriteError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	resp := ErrorResponse{Error: code}
	if status != http.StatusInternalServerError {
		resp.ErrorDescription = err.Error()
	}
	WriteJSON(w, status, resp)
}

// BadRequest writes a 400 with the given description.
func BadRequest(w http.ResponseWriter, description string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", ErrorDescription: description})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, sentinel.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, sentinel.ErrInvalidState):
		return http.StatusUnprocessableEntity, "invalid_state"
	case errors.Is(err, sentinel.ErrIntegrity):
		return http.StatusInternalServerError, "integrity_violation"
	case errors.Is(err, sentinel.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
