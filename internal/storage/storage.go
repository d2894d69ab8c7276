// Package storage keeps the in-memory workspaces served over HTTP.
package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"github.com/manhwa-tools/manhwa-translator/internal/pipeline"
	"github.com/manhwa-tools/manhwa-translator/internal/project"
)

// Workspace is one chapter being translated: its project state and the
// orchestrator that runs over it.
type Workspace struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	State  *project.State         `json:"-"`
	Runner *pipeline.Orchestrator `json:"-"`

	mu        sync.RWMutex
	lastEvent *pipeline.Event
	lastError string
}

// NewWorkspace wires an orchestrator to state. Progress events are recorded
// on the workspace before being passed to observe.
func NewWorkspace(id string, state *project.State, translator pipeline.Translator, pixels pipeline.PixelSource, observe func(*Workspace, pipeline.Event)) *Workspace {
	ws := &Workspace{ID: id, CreatedAt: time.Now(), State: state}
	ws.Runner = pipeline.New(state.Images, state.Glossary, translator, pixels,
		pipeline.WithObserver(func(e pipeline.Event) {
			ws.record(e)
			if observe != nil {
				observe(ws, e)
			}
		}))
	return ws
}

func (ws *Workspace) record(e pipeline.Event) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.lastEvent = &e
	if e.Kind == pipeline.EventFailed && e.Err != nil {
		ws.lastError = e.Err.Error()
	}
}

// Project returns the active project name and genre.
func (ws *Workspace) Project() (string, models.Genre) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.State.Name, ws.State.Genre
}

// SetProject renames the project. Blank names are ignored.
func (ws *Workspace) SetProject(name string) {
	if name == "" {
		return
	}
	ws.mu.Lock()
	ws.State.Name = name
	ws.mu.Unlock()
}

func (ws *Workspace) SetGenre(g models.Genre) {
	ws.mu.Lock()
	ws.State.Genre = g
	ws.mu.Unlock()
}

// Progress is a point-in-time view of a workspace run.
type Progress struct {
	Running   bool                   `json:"running"`
	Stats     models.ProcessingStats `json:"stats"`
	LastEvent *pipeline.Event        `json:"last_event,omitempty"`
	LastError string                 `json:"last_error,omitempty"`
}

func (ws *Workspace) Progress() Progress {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	p := Progress{
		Running:   ws.Runner.Running(),
		Stats:     ws.State.Images.Stats(),
		LastError: ws.lastError,
	}
	if ws.lastEvent != nil {
		e := *ws.lastEvent
		p.LastEvent = &e
	}
	return p
}

// Save writes the workspace project to path.
func (ws *Workspace) Save(path string) error {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return project.Save(path, ws.State)
}

// Close stops any active run and releases uploaded files.
func (ws *Workspace) Close() {
	ws.Runner.Stop()
	ws.State.Images.ResetAll()
}

type WorkspaceStore struct {
	workspaces map[string]*Workspace
	mu         sync.RWMutex
}

func New() *WorkspaceStore {
	return &WorkspaceStore{
		workspaces: make(map[string]*Workspace),
	}
}

func (s *WorkspaceStore) Get(id string) (*Workspace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, exists := s.workspaces[id]
	return ws, exists
}

func (s *WorkspaceStore) Set(id string, ws *Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaces[id] = ws
}

// GetAll returns every workspace, oldest first.
func (s *WorkspaceStore) GetAll() []*Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Workspace, 0, len(s.workspaces))
	for _, ws := range s.workspaces {
		result = append(result, ws)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Delete removes id and closes it.
func (s *WorkspaceStore) Delete(id string) bool {
	s.mu.Lock()
	ws, exists := s.workspaces[id]
	delete(s.workspaces, id)
	s.mu.Unlock()

	if exists {
		ws.Close()
	}
	return exists
}

// StopAll stops the runs of every workspace.
func (s *WorkspaceStore) StopAll() {
	for _, ws := range s.GetAll() {
		ws.Runner.Stop()
	}
}
