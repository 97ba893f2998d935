package httpapi

import (
	"net/http"

	"talent-pipeline/internal/store"
)

type DBHandler struct {
	Store *store.DB
}

// Checkpoint folds the WAL into the main file so the .db can be copied.
func (h DBHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Checkpoint(r.Context()); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
