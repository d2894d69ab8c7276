package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/manhwa-tools/manhwa-translator/internal/collection"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"github.com/manhwa-tools/manhwa-translator/internal/pipeline"
	"github.com/manhwa-tools/manhwa-translator/internal/project"
	"github.com/manhwa-tools/manhwa-translator/internal/storage"
)

// LoadDefault creates the default workspace from the project file, or an
// empty one when there is none.
func (h *Handler) LoadDefault() error {
	settings := h.currentSettings()
	var (
		state *project.State
		err   error
	)
	if h.projectPath != "" {
		state, err = project.Load(h.projectPath, settings.Project, settings.Genre, collection.WithReleaser(h.uploads))
		if err != nil {
			return err
		}
		h.uploads.Retain(state.Images.Snapshot()...)
	} else {
		state = project.New(settings.Project, settings.Genre, collection.WithReleaser(h.uploads))
	}
	h.addWorkspace(DefaultWorkspace, state)
	return nil
}

func (h *Handler) addWorkspace(id string, state *project.State) *storage.Workspace {
	ws := storage.NewWorkspace(id, state, h.translator, h.pixels, logEvent)
	h.workspaces.Set(id, ws)
	return ws
}

func logEvent(ws *storage.Workspace, e pipeline.Event) {
	switch e.Kind {
	case pipeline.EventCompleted:
		slog.Info("Page translated", "workspace", ws.ID, "id", e.ID, "index", e.Index+1, "total", e.Total)
	case pipeline.EventFinished:
		slog.Info("Run finished", "workspace", ws.ID, "success", e.Stats.Success, "failed", e.Stats.Failed)
	}
}

// Workspace helpers
func (h *Handler) getWorkspaceOrError(w http.ResponseWriter, r *http.Request) (*storage.Workspace, bool) {
	ws, exists := h.workspaces.Get(chi.URLParam(r, "ws"))
	if !exists {
		h.writeError(w, "Workspace not found", http.StatusNotFound)
		return nil, false
	}
	return ws, true
}

type workspaceSummary struct {
	ID       string                 `json:"id"`
	Project  string                 `json:"project"`
	Genre    models.Genre           `json:"genre"`
	Entries  int                    `json:"entries"`
	Running  bool                   `json:"running"`
	Stats    models.ProcessingStats `json:"stats"`
	Projects []string               `json:"glossary_projects,omitempty"`
}

func summarize(ws *storage.Workspace) workspaceSummary {
	name, genre := ws.Project()
	return workspaceSummary{
		ID:       ws.ID,
		Project:  name,
		Genre:    genre,
		Entries:  ws.State.Images.Len(),
		Running:  ws.Runner.Running(),
		Stats:    ws.State.Images.Stats(),
		Projects: ws.State.Glossary.Projects(),
	}
}

func (h *Handler) HandleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	all := h.workspaces.GetAll()
	list := make([]workspaceSummary, 0, len(all))
	for _, ws := range all {
		list = append(list, summarize(ws))
	}
	h.writeJSON(w, list)
}

type workspaceRequest struct {
	Project string `json:"project"`
	Genre   string `json:"genre"`
}

func (h *Handler) HandleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req workspaceRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	settings := h.currentSettings()
	name := strings.TrimSpace(req.Project)
	if name == "" {
		name = settings.Project
	}
	genre := settings.Genre
	if req.Genre != "" {
		genre = models.ParseGenre(req.Genre)
	}

	ws := h.addWorkspace(uuid.NewString(), project.New(name, genre, collection.WithReleaser(h.uploads)))
	slog.Info("Workspace created", "workspace", ws.ID, "project", name)
	h.writeJSONStatus(w, http.StatusCreated, summarize(ws))
}

func (h *Handler) HandleWorkspaceDetail(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, summarize(ws))
}

func (h *Handler) HandleUpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	var req workspaceRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	ws.SetProject(strings.TrimSpace(req.Project))
	if req.Genre != "" {
		ws.SetGenre(models.ParseGenre(req.Genre))
	}
	h.writeJSON(w, summarize(ws))
}

func (h *Handler) HandleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ws")
	if !h.workspaces.Delete(id) {
		h.writeError(w, "Workspace not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSaveWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	if ws.ID != DefaultWorkspace || h.projectPath == "" {
		h.writeError(w, "Only the default workspace has a project file", http.StatusBadRequest)
		return
	}
	if err := ws.Save(h.projectPath); err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, map[string]string{"path": h.projectPath})
}
