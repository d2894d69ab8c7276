// Package glossary keeps project-scoped term translations consistent across images.
package glossary

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
)

// Store holds glossary items for every project. Uniqueness is only enforced by Merge.
type Store struct {
	mu    sync.RWMutex
	items []models.GlossaryItem
}

func NewStore(items ...models.GlossaryItem) *Store {
	s := &Store{}
	s.Import(items...)
	return s
}

// Add appends a manually entered item. Blank term or translation is rejected.
func (s *Store) Add(term, translation string, category models.Category, project string) (models.GlossaryItem, bool) {
	term = strings.TrimSpace(term)
	translation = strings.TrimSpace(translation)
	if term == "" || translation == "" {
		return models.GlossaryItem{}, false
	}
	item := models.GlossaryItem{
		ID:          uuid.NewString(),
		Term:        term,
		Translation: translation,
		Category:    models.NormalizeCategory(string(category)),
		Project:     project,
	}

	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
	return item, true
}

// Delete removes the item with the given id.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Import appends items as-is, assigning ids where missing, and returns how many were added.
func (s *Store) Import(items ...models.GlossaryItem) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		s.items = append(s.items, item)
	}
	return len(items)
}

// Merge adds detected terms to project, skipping any whose term already exists
// in that project (case-insensitive). Existing translations are never
// overwritten. It returns the items that were added.
func (s *Store) Merge(project string, terms []models.DetectedTerm) []models.GlossaryItem {
	if len(terms) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for _, item := range s.items {
		if item.Project == project {
			seen[strings.ToLower(item.Term)] = struct{}{}
		}
	}

	var added []models.GlossaryItem
	for _, t := range terms {
		term := strings.TrimSpace(t.Original)
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		item := models.GlossaryItem{
			ID:          uuid.NewString(),
			Term:        term,
			Translation: strings.TrimSpace(t.Translation),
			Category:    models.NormalizeCategory(string(t.Category)),
			Project:     project,
		}
		s.items = append(s.items, item)
		added = append(added, item)
	}
	return added
}

// All returns a copy of every item.
func (s *Store) All() []models.GlossaryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.GlossaryItem, len(s.items))
	copy(out, s.items)
	return out
}

// ForProject returns the items scoped to project, in insertion order.
func (s *Store) ForProject(project string) []models.GlossaryItem {
	return s.filter(func(item models.GlossaryItem) bool {
		return item.Project == project
	})
}

// Relevant returns the items that apply to project: its own plus the Global ones.
func (s *Store) Relevant(project string) []models.GlossaryItem {
	return s.filter(func(item models.GlossaryItem) bool {
		return item.Project == project || item.Project == models.GlobalProject
	})
}

// Projects lists the distinct project names present in the store.
func (s *Store) Projects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(map[string]struct{})
	for _, item := range s.items {
		set[item.Project] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Reset removes every item.
func (s *Store) Reset() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

func (s *Store) filter(keep func(models.GlossaryItem) bool) []models.GlossaryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.GlossaryItem
	for _, item := range s.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
