package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/manhwa-tools/manhwa-translator/internal/models"
)

const maxUploadSize = 10 * 1024 * 1024

// HandleUpload appends one entry per uploaded file, in form order. Files
// are read from the "files" field, or "file" for single uploads.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(4 * maxUploadSize); err != nil {
		h.writeError(w, "Failed to read form: "+err.Error(), http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		h.writeError(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	entries := make([]models.ImageEntry, 0, len(headers))
	for _, header := range headers {
		entry, err := h.saveUpload(header)
		if err != nil {
			for _, saved := range entries {
				if rerr := h.uploads.Release(saved); rerr != nil {
					slog.Warn("Unable to release upload", "path", saved.LocalPath, "err", rerr)
				}
			}
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		entries = append(entries, entry)
	}

	added := ws.State.Images.Append(entries...)
	slog.Info("Images uploaded", "workspace", ws.ID, "count", len(added))
	h.writeJSONStatus(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("Successfully uploaded %d images", len(added)),
		"entries": added,
	})
}

func (h *Handler) saveUpload(header *multipart.FileHeader) (models.ImageEntry, error) {
	file, err := header.Open()
	if err != nil {
		return models.ImageEntry{}, fmt.Errorf("failed to read file %s: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return models.ImageEntry{}, fmt.Errorf("failed to read file %s: %w", header.Filename, err)
	}
	if len(data) > maxUploadSize {
		return models.ImageEntry{}, fmt.Errorf("file %s too large (max 10MB)", header.Filename)
	}
	return h.uploads.Save(data, header.Filename)
}
