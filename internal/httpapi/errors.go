package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"talent-pipeline/internal/frame"
	"talent-pipeline/internal/store"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// writeStoreError maps store and frame errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrUnknownTable):
		WriteError(w, r, http.StatusNotFound, "unknown_table", err.Error())
	case errors.Is(err, frame.ErrMissingColumn):
		WriteError(w, r, http.StatusBadRequest, "missing_column", err.Error())
	default:
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
	}
}
