package httpapi

import (
	"context"
	"net/http"
	"time"

	"talent-pipeline/internal/store"
)

type HealthHandler struct {
	Store *store.DB
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.Store.Pool.PingContext(ctx); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": err.Error()})
		return
	}
	writeJSON(w, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}
