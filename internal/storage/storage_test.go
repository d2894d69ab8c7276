package storage

import (
	"context"
	"testing"
	"time"

	"github.com/manhwa-tools/manhwa-translator/internal/config"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"github.com/manhwa-tools/manhwa-translator/internal/pipeline"
	"github.com/manhwa-tools/manhwa-translator/internal/project"
	"github.com/manhwa-tools/manhwa-translator/internal/translation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTranslator struct{}

func (stubTranslator) Translate(context.Context, translation.Request) (translation.Result, error) {
	return translation.Result{}, translation.ErrMalformedResponse
}

type stubPixels struct{}

func (stubPixels) Pixels(context.Context, models.ImageEntry) (string, error) {
	return "payload", nil
}

func newWorkspace(id string) *Workspace {
	return NewWorkspace(id, project.New("P", models.GenreGeneral), stubTranslator{}, stubPixels{}, nil)
}

func TestWorkspaceStore(t *testing.T) {
	s := New()
	a := newWorkspace("a")
	b := newWorkspace("b")
	b.CreatedAt = a.CreatedAt.Add(time.Second)
	s.Set("b", b)
	s.Set("a", a)

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	all := s.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)

	assert.True(t, s.Delete("a"))
	assert.False(t, s.Delete("a"))
	_, ok = s.Get("a")
	assert.False(t, ok)
}

func TestWorkspaceProgress(t *testing.T) {
	var seen []pipeline.EventKind
	ws := NewWorkspace("w", project.New("P", models.GenreGeneral), stubTranslator{}, stubPixels{},
		func(_ *Workspace, e pipeline.Event) { seen = append(seen, e.Kind) })
	ws.State.Images.Append(models.ImageEntry{URL: "https://example.com/1.jpg"})

	settings := config.Defaults()
	settings.APIKey = "k"
	require.NoError(t, ws.Runner.Run(context.Background(), settings, false))

	p := ws.Progress()
	assert.False(t, p.Running)
	assert.Equal(t, models.ProcessingStats{Total: 1, Processed: 1, Failed: 1}, p.Stats)
	require.NotNil(t, p.LastEvent)
	assert.Equal(t, pipeline.EventFinished, p.LastEvent.Kind)
	assert.Contains(t, p.LastError, "malformed")
	assert.Equal(t, []pipeline.EventKind{pipeline.EventStarted, pipeline.EventFailed, pipeline.EventFinished}, seen)
}

func TestWorkspaceProject(t *testing.T) {
	ws := newWorkspace("w")
	ws.SetProject("")
	ws.SetProject("Solo")
	ws.SetGenre(models.GenreWuxia)

	name, genre := ws.Project()
	assert.Equal(t, "Solo", name)
	assert.Equal(t, models.GenreWuxia, genre)
}
