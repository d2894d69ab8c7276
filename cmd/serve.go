package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/manhwa-tools/manhwa-translator/internal/export"
	"github.com/manhwa-tools/manhwa-translator/internal/handlers"
	"github.com/manhwa-tools/manhwa-translator/internal/images"
	"github.com/spf13/cobra"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var (
		port string
		font string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Starts the translator API on the specified port.

The "default" workspace is loaded from the project file and saved back on
shutdown. Further workspaces live in memory until saved explicitly.`,
		Example: `  # Start server on default port 8888
  manhwa-translator serve

  # Start server on custom port
  manhwa-translator serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settingsPath, settings, err := loadSettings(flags)
			if err != nil {
				return err
			}

			cache := newPixelCache(cmd.Context(), settings)
			defer func() {
				if err := cache.Close(); err != nil {
					slog.Warn("Unable to close pixel cache", "err", err)
				}
			}()
			loader := images.NewLoader(images.NewFetcher(settings.ImageProxy), cache)

			handler := handlers.New(handlers.Deps{
				Settings:     settings,
				SettingsPath: settingsPath,
				Uploads:      images.NewUploadStore(settings.UploadDir),
				Pixels:       loader,
				Exporter:     export.New(loader, export.WithFont(font)),
				ProjectPath:  flags.projectPath,
			})
			if err := handler.LoadDefault(); err != nil {
				return err
			}

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Translator API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				err := server.Shutdown(shutdownCtx)
				handler.Shutdown()
				if err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				handler.Shutdown()
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&font, "font", os.Getenv("MANHWA_PDF_FONT"), "TrueType font for PDF exports")

	return cmd
}
