package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// HandleUploads serves uploaded images from the upload directory.
func (h *Handler) HandleUploads(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")

	// Prevent directory traversal attacks
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.uploads.Dir, name))
}
