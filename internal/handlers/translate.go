package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
)

// HandleTranslate starts a run over the selected entries. Query parameters:
// reset=true re-translates completed entries, resume=true requeues entries a
// stopped run left waiting, wait=true blocks until the run ends.
func (h *Handler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	reset, _ := strconv.ParseBool(q.Get("reset"))
	resume, _ := strconv.ParseBool(q.Get("resume"))
	wait, _ := strconv.ParseBool(q.Get("wait"))

	settings := h.currentSettings()
	settings.Project, settings.Genre = ws.Project()

	// the run outlives this request
	ctx := context.WithoutCancel(r.Context())
	var (
		done <-chan struct{}
		err  error
	)
	if resume && !reset {
		done, err = ws.Runner.Resume(ctx, settings)
	} else {
		done, err = ws.Runner.Start(ctx, settings, reset)
	}
	if err != nil {
		h.writeErr(w, err)
		return
	}
	slog.Info("Translation requested", "workspace", ws.ID, "project", settings.Project, "reset", reset, "resume", resume)

	if !wait {
		h.writeJSONStatus(w, http.StatusAccepted, ws.Progress())
		return
	}
	select {
	case <-done:
	case <-r.Context().Done():
		return
	}
	h.writeJSON(w, ws.Progress())
}

func (h *Handler) HandleStop(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	reverted := ws.Runner.Stop()
	if reverted == nil {
		reverted = []string{}
	}
	h.writeJSON(w, map[string]any{
		"reverted": reverted,
		"progress": ws.Progress(),
	})
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, ws.Progress())
}
