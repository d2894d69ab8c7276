package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/manhwa-tools/manhwa-translator/internal/collection"
	"github.com/manhwa-tools/manhwa-translator/internal/config"
	"github.com/manhwa-tools/manhwa-translator/internal/images"
	"github.com/manhwa-tools/manhwa-translator/internal/project"
)

const pixelCacheTTL = 24 * time.Hour

// app is the state shared by the commands that work on the project file.
type app struct {
	settingsPath string
	settings     config.Settings
	projectPath  string
	state        *project.State
	uploads      *images.UploadStore
	cache        images.Cache
	loader       *images.Loader
}

func loadSettings(flags *rootFlags) (string, config.Settings, error) {
	path := flags.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return "", config.Settings{}, err
		}
	}
	settings, err := config.Load(path)
	if err != nil {
		return "", config.Settings{}, err
	}
	return path, settings, nil
}

// openApp loads settings and the project file.
func openApp(ctx context.Context, flags *rootFlags) (*app, error) {
	settingsPath, settings, err := loadSettings(flags)
	if err != nil {
		return nil, err
	}

	uploads := images.NewUploadStore(settings.UploadDir)
	state, err := project.Load(flags.projectPath, settings.Project, settings.Genre, collection.WithReleaser(uploads))
	if err != nil {
		return nil, err
	}
	uploads.Retain(state.Images.Snapshot()...)

	cache := newPixelCache(ctx, settings)
	return &app{
		settingsPath: settingsPath,
		settings:     settings,
		projectPath:  flags.projectPath,
		state:        state,
		uploads:      uploads,
		cache:        cache,
		loader:       images.NewLoader(images.NewFetcher(settings.ImageProxy), cache),
	}, nil
}

// newPixelCache returns the Redis cache when configured and reachable, and
// an in-memory cache otherwise.
func newPixelCache(ctx context.Context, settings config.Settings) images.Cache {
	if settings.RedisURL == "" {
		return images.NewMemoryCache()
	}
	cache, err := images.NewRedisCache(ctx, settings.RedisURL, pixelCacheTTL)
	if err != nil {
		slog.Warn("Redis pixel cache unavailable, using memory", "err", err)
		return images.NewMemoryCache()
	}
	slog.Debug("Using Redis pixel cache")
	return cache
}

// runSettings are the settings of a translation run on the current project.
func (a *app) runSettings() config.Settings {
	s := a.settings
	s.Project = a.state.Name
	s.Genre = a.state.Genre
	return s
}

func (a *app) save() error {
	if err := project.Save(a.projectPath, a.state); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

func (a *app) close() {
	if err := a.cache.Close(); err != nil {
		slog.Warn("Unable to close pixel cache", "err", err)
	}
}

// withApp opens the app, runs fn and saves the project when fn succeeds.
func withApp(ctx context.Context, flags *rootFlags, fn func(a *app) error) error {
	a, err := openApp(ctx, flags)
	if err != nil {
		return err
	}
	defer a.close()

	if err := fn(a); err != nil {
		return err
	}
	return a.save()
}
