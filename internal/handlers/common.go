package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/manhwa-tools/manhwa-translator/internal/collection"
	"github.com/manhwa-tools/manhwa-translator/internal/config"
	"github.com/manhwa-tools/manhwa-translator/internal/export"
	"github.com/manhwa-tools/manhwa-translator/internal/glossary"
	"github.com/manhwa-tools/manhwa-translator/internal/images"
	"github.com/manhwa-tools/manhwa-translator/internal/pipeline"
	"github.com/manhwa-tools/manhwa-translator/internal/scraper"
	"github.com/manhwa-tools/manhwa-translator/internal/storage"
	"github.com/manhwa-tools/manhwa-translator/internal/translation"
)

// DefaultWorkspace is created at startup and used by clients that do not
// manage workspaces.
const DefaultWorkspace = "default"

// Scraper finds the images of a chapter page.
type Scraper interface {
	Scrape(ctx context.Context, pageURL string) (scraper.Result, error)
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Settings config.Settings
	// SettingsPath persists settings changes when set.
	SettingsPath string
	Uploads      *images.UploadStore
	Pixels       pipeline.PixelSource
	Scraper      Scraper
	// Translator defaults to one built from the current settings on every call.
	Translator pipeline.Translator
	Exporter   *export.Exporter
	// ProjectPath is where the default workspace is saved.
	ProjectPath string
}

type Handler struct {
	workspaces   *storage.WorkspaceStore
	uploads      *images.UploadStore
	pixels       pipeline.PixelSource
	scraper      Scraper
	translator   pipeline.Translator
	exporter     *export.Exporter
	settingsPath string
	projectPath  string

	mu       sync.RWMutex
	settings config.Settings
}

func New(d Deps) *Handler {
	h := &Handler{
		workspaces:   storage.New(),
		uploads:      d.Uploads,
		pixels:       d.Pixels,
		scraper:      d.Scraper,
		translator:   d.Translator,
		exporter:     d.Exporter,
		settingsPath: d.SettingsPath,
		projectPath:  d.ProjectPath,
		settings:     d.Settings,
	}
	if h.uploads == nil {
		h.uploads = images.NewUploadStore(d.Settings.UploadDir)
	}
	if h.pixels == nil {
		h.pixels = images.NewLoader(images.NewFetcher(d.Settings.ImageProxy), images.NewMemoryCache())
	}
	if h.scraper == nil {
		h.scraper = scraper.New()
	}
	if h.translator == nil {
		h.translator = settingsTranslator{h.currentSettings}
	}
	if h.exporter == nil {
		h.exporter = export.New(h.pixels)
	}
	return h
}

func (h *Handler) currentSettings() config.Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settings
}

// settingsTranslator builds a request builder from the settings in effect at
// call time, so provider changes apply to the next page.
type settingsTranslator struct {
	settings func() config.Settings
}

func (t settingsTranslator) Translate(ctx context.Context, req translation.Request) (translation.Result, error) {
	b, err := translation.ForSettings(t.settings())
	if err != nil {
		return translation.Result{}, err
	}
	return b.Translate(ctx, req)
}

// Shutdown stops every run and saves the default workspace.
func (h *Handler) Shutdown() {
	h.workspaces.StopAll()
	if h.projectPath == "" {
		return
	}
	if ws, ok := h.workspaces.Get(DefaultWorkspace); ok {
		if err := ws.Save(h.projectPath); err != nil {
			slog.Error("Unable to save project", "path", h.projectPath, "err", err)
		}
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Debug(message, "code", code)
	}
	http.Error(w, message, code)
}

// writeErr maps err to a status code.
func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	h.writeError(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, collection.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrAlreadyRunning),
		errors.Is(err, collection.ErrNotTranslated):
		return http.StatusConflict
	case errors.Is(err, config.ErrMissingCredential),
		errors.Is(err, scraper.ErrNoImages),
		errors.Is(err, scraper.ErrEmptyContent),
		errors.Is(err, export.ErrFontRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, scraper.ErrUnreachable),
		errors.Is(err, images.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, translation.ErrRateLimitExhausted):
		return http.StatusTooManyRequests
	case errors.Is(err, collection.ErrBlockIndex),
		errors.Is(err, config.ErrUnknownKey),
		errors.Is(err, glossary.ErrUnsupportedFormat),
		errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
