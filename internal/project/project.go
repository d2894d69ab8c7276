// Package project saves and loads the working state of a chapter: its image
// entries, the glossary of every project, the active project name and genre.
package project

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/manhwa-tools/manhwa-translator/internal/collection"
	"github.com/manhwa-tools/manhwa-translator/internal/glossary"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the project file used when none is given.
const DefaultPath = "manhwa-project.yaml"

const version = 1

// File is the on-disk form of a project.
type File struct {
	Version  int                   `yaml:"version"`
	Name     string                `yaml:"project"`
	Genre    models.Genre          `yaml:"genre"`
	SavedAt  time.Time             `yaml:"saved_at"`
	Entries  []models.ImageEntry   `yaml:"entries"`
	Glossary []models.GlossaryItem `yaml:"glossary"`
}

// State is a loaded project.
type State struct {
	Name     string
	Genre    models.Genre
	Images   *collection.Collection
	Glossary *glossary.Store
}

// New returns an empty state.
func New(name string, genre models.Genre, opts ...collection.Option) *State {
	return &State{
		Name:     name,
		Genre:    genre,
		Images:   collection.New(opts...),
		Glossary: glossary.NewStore(),
	}
}

// Snapshot captures s for saving. Encoded image payloads are not persisted.
func (s *State) Snapshot() File {
	return File{
		Version:  version,
		Name:     s.Name,
		Genre:    s.Genre,
		SavedAt:  time.Now().UTC(),
		Entries:  s.Images.Snapshot(),
		Glossary: s.Glossary.All(),
	}
}

// Encode writes f as YAML.
func Encode(w io.Writer, f File) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	return enc.Close()
}

// Decode reads a project written by Encode into a fresh State. No run can be
// active in a loaded project, so waiting and processing entries become
// pending again.
func Decode(r io.Reader, opts ...collection.Option) (*State, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	if f.Version > version {
		return nil, fmt.Errorf("project file version %d is newer than supported version %d", f.Version, version)
	}

	s := New(f.Name, models.ParseGenre(string(f.Genre)), opts...)
	if s.Name == "" {
		s.Name = "Default"
	}
	s.Images.Restore(f.Entries...)
	s.Images.ResetStale()
	s.Glossary.Import(f.Glossary...)
	return s, nil
}

// Save writes s to path atomically.
func Save(path string, s *State) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create project directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".project-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create project file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, s.Snapshot()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace project file: %w", err)
	}
	return nil
}

// Load reads the project at path. A missing file yields an empty project
// with the given name and genre.
func Load(path, name string, genre models.Genre, opts ...collection.Option) (*State, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(name, genre, opts...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open project file: %w", err)
	}
	defer f.Close()

	return Decode(f, opts...)
}
