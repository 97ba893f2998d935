package httpapi

import (
	"net/http"
	"strings"

	"talent-pipeline/internal/frame"
	"talent-pipeline/internal/store"
)

type TablesHandler struct {
	Store *store.DB
}

type tableResponse struct {
	Table   string      `json:"table"`
	Columns []string    `json:"columns"`
	Rows    []frame.Row `json:"rows"`
	Count   int         `json:"count"`
}

func (h TablesHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.Store.Tables(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"tables": tables})
}

// GetByPath serves /tables/{name}, optionally filtered by ?recruiter=.
func (h TablesHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/tables/"), "/")
	if name == "" {
		h.List(w, r)
		return
	}

	f, err := h.Store.AllRows(r.Context(), name, strings.TrimSpace(r.URL.Query().Get("recruiter")))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if f.Rows == nil {
		f.Rows = []frame.Row{}
	}
	writeJSON(w, tableResponse{
		Table:   name,
		Columns: f.Columns,
		Rows:    f.Rows,
		Count:   f.Len(),
	})
}
