package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/manhwa-tools/manhwa-translator/internal/collection"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
)

func (h *Handler) HandleScrape(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	var req struct {
		URL string `json:"url"`
		// UseTitle renames the project after the page title.
		UseTitle bool `json:"use_title"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		h.writeError(w, "url is required", http.StatusBadRequest)
		return
	}

	res, err := h.scraper.Scrape(r.Context(), req.URL)
	if err != nil {
		h.writeErr(w, err)
		return
	}

	entries := make([]models.ImageEntry, len(res.Images))
	for i, u := range res.Images {
		entries[i] = models.ImageEntry{URL: u}
	}
	added := ws.State.Images.Append(entries...)
	if req.UseTitle {
		ws.SetProject(res.Title)
	}

	h.writeJSON(w, map[string]any{
		"title":   res.Title,
		"added":   len(added),
		"entries": added,
	})
}

func (h *Handler) HandleAddEntries(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	var req struct {
		URLs []string `json:"urls"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}

	var entries []models.ImageEntry
	for _, u := range req.URLs {
		if u = strings.TrimSpace(u); u != "" {
			entries = append(entries, models.ImageEntry{URL: u})
		}
	}
	if len(entries) == 0 {
		h.writeError(w, "urls is required", http.StatusBadRequest)
		return
	}
	h.writeJSONStatus(w, http.StatusCreated, ws.State.Images.Append(entries...))
}

func (h *Handler) HandleListEntries(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, ws.State.Images.Snapshot())
}

func (h *Handler) HandleResetEntries(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	if ws.Runner.Running() {
		h.writeError(w, "Stop the active run before clearing the collection", http.StatusConflict)
		return
	}
	ws.State.Images.ResetAll()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	var req struct {
		All      *bool    `json:"all"`
		IDs      []string `json:"ids"`
		Selected bool     `json:"selected"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}

	switch {
	case req.All != nil && *req.All:
		ws.State.Images.SelectAll()
	case req.All != nil:
		ws.State.Images.DeselectAll()
	default:
		for _, id := range req.IDs {
			if !ws.State.Images.SetSelected(id, req.Selected) {
				h.writeErr(w, collection.ErrNotFound)
				return
			}
		}
	}
	h.writeJSON(w, ws.State.Images.Stats())
}

func (h *Handler) HandleEntryDetail(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	entry, found := ws.State.Images.Get(chi.URLParam(r, "id"))
	if !found {
		h.writeErr(w, collection.ErrNotFound)
		return
	}
	h.writeJSON(w, entry)
}

func (h *Handler) HandleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	if !ws.State.Images.Remove(chi.URLParam(r, "id")) {
		h.writeErr(w, collection.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleToggleEntry(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	selected, found := ws.State.Images.ToggleSelect(chi.URLParam(r, "id"))
	if !found {
		h.writeErr(w, collection.ErrNotFound)
		return
	}
	h.writeJSON(w, map[string]bool{"selected": selected})
}

func (h *Handler) HandleReplaceBlocks(w http.ResponseWriter, r *http.Request) {
	var blocks []models.TranslationBlock
	if !h.decodeJSON(w, r, &blocks) {
		return
	}
	for _, b := range blocks {
		if !b.Type.Valid() {
			h.writeError(w, "Invalid block type: "+string(b.Type), http.StatusBadRequest)
			return
		}
	}
	h.editBlocks(w, r, func(c *collection.Collection, id string) error {
		return c.ReplaceBlocks(id, blocks)
	})
}

func (h *Handler) HandleAppendBlock(w http.ResponseWriter, r *http.Request) {
	h.editBlocks(w, r, func(c *collection.Collection, id string) error {
		return c.AppendBlock(id)
	})
}

func (h *Handler) HandleUpdateBlock(w http.ResponseWriter, r *http.Request) {
	idx, ok := h.blockIndex(w, r)
	if !ok {
		return
	}
	var block models.TranslationBlock
	if !h.decodeJSON(w, r, &block) {
		return
	}
	if !block.Type.Valid() {
		h.writeError(w, "Invalid block type: "+string(block.Type), http.StatusBadRequest)
		return
	}
	h.editBlocks(w, r, func(c *collection.Collection, id string) error {
		return c.UpdateBlock(id, idx, block)
	})
}

func (h *Handler) HandleDeleteBlock(w http.ResponseWriter, r *http.Request) {
	idx, ok := h.blockIndex(w, r)
	if !ok {
		return
	}
	h.editBlocks(w, r, func(c *collection.Collection, id string) error {
		return c.DeleteBlock(id, idx)
	})
}

func (h *Handler) blockIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		h.writeError(w, "Invalid block index", http.StatusBadRequest)
		return 0, false
	}
	return idx, true
}

// editBlocks applies edit and responds with the updated entry.
func (h *Handler) editBlocks(w http.ResponseWriter, r *http.Request, edit func(c *collection.Collection, id string) error) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := edit(ws.State.Images, id); err != nil {
		h.writeErr(w, err)
		return
	}
	entry, _ := ws.State.Images.Get(id)
	h.writeJSON(w, entry)
}
