package handlers

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/manhwa-tools/manhwa-translator/internal/glossary"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"github.com/manhwa-tools/manhwa-translator/internal/storage"
)

const maxGlossarySize = 8 * 1024 * 1024

// glossaryProject is the project named by the "project" query parameter,
// defaulting to the workspace project.
func glossaryProject(r *http.Request, ws *storage.Workspace) string {
	if p := r.URL.Query().Get("project"); p != "" {
		return p
	}
	name, _ := ws.Project()
	return name
}

// HandleListGlossary lists the items of a project. project=* lists every
// item; relevant=true adds the Global items used in prompts.
func (h *Handler) HandleListGlossary(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	project := glossaryProject(r, ws)

	var items []models.GlossaryItem
	switch {
	case project == "*":
		items = ws.State.Glossary.All()
	case r.URL.Query().Get("relevant") == "true":
		items = ws.State.Glossary.Relevant(project)
	default:
		items = ws.State.Glossary.ForProject(project)
	}
	if items == nil {
		items = []models.GlossaryItem{}
	}
	h.writeJSON(w, items)
}

func (h *Handler) HandleAddGlossary(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	var req struct {
		Term        string `json:"term"`
		Translation string `json:"translation"`
		Category    string `json:"category"`
		Project     string `json:"project"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Project == "" {
		req.Project, _ = ws.Project()
	}

	item, added := ws.State.Glossary.Add(req.Term, req.Translation, models.Category(req.Category), req.Project)
	if !added {
		h.writeError(w, "term and translation are required", http.StatusBadRequest)
		return
	}
	h.writeJSONStatus(w, http.StatusCreated, item)
}

func (h *Handler) HandleDeleteGlossary(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	if !ws.State.Glossary.Delete(chi.URLParam(r, "id")) {
		h.writeError(w, "Glossary item not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleImportGlossary reads a multipart "file" or the raw request body.
// The format comes from the format parameter, then the file extension, and
// defaults to plain text.
func (h *Handler) HandleImportGlossary(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}

	var (
		body     io.Reader = r.Body
		filename string
	)
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		body = file
		filename = header.Filename
	}

	rawFormat := r.URL.Query().Get("format")
	if rawFormat == "" {
		rawFormat = filepath.Ext(filename)
	}
	format := glossary.FormatText
	if rawFormat != "" {
		var err error
		if format, err = glossary.ParseFormat(rawFormat); err != nil {
			h.writeErr(w, err)
			return
		}
	}

	data, err := io.ReadAll(io.LimitReader(body, maxGlossarySize))
	if err != nil {
		h.writeError(w, "Failed to read glossary: "+err.Error(), http.StatusBadRequest)
		return
	}

	project := glossaryProject(r, ws)
	items, err := glossary.Decode(bytes.NewReader(data), format, project)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	added := ws.State.Glossary.Import(items...)
	slog.Info("Glossary imported", "workspace", ws.ID, "project", project, "format", format, "added", added)
	h.writeJSON(w, map[string]int{"added": added})
}

func (h *Handler) HandleExportGlossary(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	format := glossary.FormatCSV
	if raw := r.URL.Query().Get("format"); raw != "" {
		var err error
		if format, err = glossary.ParseFormat(raw); err != nil {
			h.writeErr(w, err)
			return
		}
	}

	project := glossaryProject(r, ws)
	var buf bytes.Buffer
	if err := glossary.Encode(&buf, format, ws.State.Glossary.ForProject(project)); err != nil {
		h.writeErr(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(project)))
	_, _ = w.Write(buf.Bytes())
}
