package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/hashnotes/internal/apperr"
)

// Machine-readable error codes carried next to the human message.
const (
	codeBadRequest       = "bad_request"
	codeValidation       = "validation_failed"
	codeNotFound         = "not_found"
	codeConflict         = "conflict"
	codeStoreUnavailable = "store_unavailable"
	codeInternal         = "internal"
	codeUnauthorized     = "unauthorized"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error" validate:"required"`
}

func errorBody(code, msg string) errResponse {
	return errResponse{Code: code, Error: msg}
}

// writeError maps the service error taxonomy to an HTTP status and error
// code. Only store and unexpected failures are logged; the rest are caller
// mistakes.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidationFailed):
		writeJSON(w, http.StatusBadRequest, errorBody(codeValidation, err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(codeNotFound, "not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody(codeConflict, "checksum mismatch"))
	case errors.Is(err, apperr.ErrStoreUnavailable):
		h.logger.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, errorBody(codeStoreUnavailable, "store unavailable"))
	default:
		h.logger.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody(codeInternal, "internal error"))
	}
}
