package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/manhwa-tools/manhwa-translator/internal/export"
)

// HandleExport downloads the selected pages. Query parameters: format
// (pdf, doc, md; default pdf) and sfx (default true).
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	format := export.FormatPDF
	if raw := q.Get("format"); raw != "" {
		var err error
		if format, err = export.ParseFormat(raw); err != nil {
			h.writeErr(w, err)
			return
		}
	}
	includeSFX := true
	if raw := q.Get("sfx"); raw != "" {
		var err error
		if includeSFX, err = strconv.ParseBool(raw); err != nil {
			h.writeError(w, "Invalid sfx flag", http.StatusBadRequest)
			return
		}
	}

	pages := export.Pages(ws.State.Images.Snapshot(), includeSFX)
	if len(pages) == 0 {
		h.writeError(w, "No selected images to export", http.StatusUnprocessableEntity)
		return
	}

	name, _ := ws.Project()
	filename := format.Filename(name)
	var buf bytes.Buffer
	if err := h.exporter.Write(r.Context(), &buf, format, filename, pages); err != nil {
		h.writeErr(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(buf.Bytes())
}
