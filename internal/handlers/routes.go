package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Routes returns the HTTP API.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	r.Get("/static/uploads/*", h.HandleUploads)

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", h.HandleGetConfig)
		r.Put("/config", h.HandleUpdateConfig)

		r.Get("/workspaces", h.HandleListWorkspaces)
		r.Post("/workspaces", h.HandleCreateWorkspace)

		r.Route("/workspaces/{ws}", func(r chi.Router) {
			r.Get("/", h.HandleWorkspaceDetail)
			r.Put("/", h.HandleUpdateWorkspace)
			r.Delete("/", h.HandleDeleteWorkspace)
			r.Post("/save", h.HandleSaveWorkspace)

			r.Post("/scrape", h.HandleScrape)
			r.Post("/upload", h.HandleUpload)

			r.Get("/entries", h.HandleListEntries)
			r.Post("/entries", h.HandleAddEntries)
			r.Delete("/entries", h.HandleResetEntries)
			r.Post("/select", h.HandleSelect)
			r.Route("/entries/{id}", func(r chi.Router) {
				r.Get("/", h.HandleEntryDetail)
				r.Delete("/", h.HandleRemoveEntry)
				r.Post("/toggle", h.HandleToggleEntry)
				r.Put("/blocks", h.HandleReplaceBlocks)
				r.Post("/blocks", h.HandleAppendBlock)
				r.Patch("/blocks/{idx}", h.HandleUpdateBlock)
				r.Delete("/blocks/{idx}", h.HandleDeleteBlock)
			})

			r.Post("/translate", h.HandleTranslate)
			r.Post("/stop", h.HandleStop)
			r.Get("/status", h.HandleStatus)
			r.Get("/export", h.HandleExport)

			r.Get("/glossary", h.HandleListGlossary)
			r.Post("/glossary", h.HandleAddGlossary)
			r.Delete("/glossary/{id}", h.HandleDeleteGlossary)
			r.Post("/glossary/import", h.HandleImportGlossary)
			r.Get("/glossary/export", h.HandleExportGlossary)
		})
	})

	return r
}
