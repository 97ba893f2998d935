package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"talent-pipeline/internal/pipeline"
	"talent-pipeline/internal/store"
)

type RunHandler struct {
	Runner Runner
	Store  *store.DB
	Log    *logrus.Entry
}

func (h RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Runner.Status())
}

// Run starts a pipeline run in the background and returns immediately.
func (h RunHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Runner.Status().Running {
		WriteJSON(w, http.StatusConflict, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	reqID := RequestIDFrom(r.Context())
	log := httpLog(h.Log).WithField("request_id", reqID)
	// The run outlives the request.
	ctx := context.WithoutCancel(r.Context())
	go func() {
		res, err := h.Runner.Run(ctx)
		switch {
		case errors.Is(err, pipeline.ErrBusy):
			log.Info("run skipped: already in progress")
		case err != nil:
			log.WithError(err).WithField("run_id", res.RunID).Warn("triggered run failed")
		}
	}()

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

// Recent lists run history, newest first. ?limit= defaults to 20.
func (h RunHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			WriteError(w, r, http.StatusBadRequest, "bad_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := h.Store.RecentRuns(r.Context(), limit)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, map[string]any{"runs": runs})
}
