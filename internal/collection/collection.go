// Package collection holds the ordered list of image entries of a project.
//
// The Collection is the only writer of entries: every mutation goes through a
// method keyed by entry id, and readers receive copies.
package collection

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
)

var (
	ErrNotFound      = errors.New("image entry not found")
	ErrNotTranslated = errors.New("image entry has no translation to edit")
	ErrBlockIndex    = errors.New("block index out of range")
)

// Releaser frees the transient resources held by an entry that owns local bytes.
type Releaser interface {
	Release(entry models.ImageEntry) error
}

// Collection is an ordered, concurrency-safe list of image entries.
type Collection struct {
	mu       sync.RWMutex
	entries  []*models.ImageEntry
	releaser Releaser
}

// Option configures a Collection.
type Option func(*Collection)

// WithReleaser registers the releaser called when owned entries are removed.
func WithReleaser(r Releaser) Option {
	return func(c *Collection) {
		c.releaser = r
	}
}

func New(opts ...Option) *Collection {
	c := &Collection{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Append adds entries at the end, each pending and selected, and returns the stored copies.
// Entries without an id get a fresh one. No duplicate detection is performed.
func (c *Collection) Append(entries ...models.ImageEntry) []models.ImageEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := make([]models.ImageEntry, 0, len(entries))
	for _, e := range entries {
		e = e.Clone()
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.Status = models.StatusPending
		e.Selected = true
		e.Blocks = nil
		c.entries = append(c.entries, &e)
		added = append(added, e)
	}
	return added
}

// Restore appends entries keeping their stored status, selection and blocks.
// It is used when loading a saved project.
func (c *Collection) Restore(entries ...models.ImageEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range entries {
		e = e.Clone()
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if !e.Status.Valid() {
			e.Status = models.StatusPending
		}
		c.entries = append(c.entries, &e)
	}
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Get returns a copy of the entry with the given id.
func (c *Collection) Get(id string) (models.ImageEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if e := c.find(id); e != nil {
		return e.Clone(), true
	}
	return models.ImageEntry{}, false
}

// Snapshot returns copies of every entry in collection order.
func (c *Collection) Snapshot() []models.ImageEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.ImageEntry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Clone()
	}
	return out
}

// Selected returns copies of the selected entries in collection order.
func (c *Collection) Selected() []models.ImageEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []models.ImageEntry
	for _, e := range c.entries {
		if e.Selected {
			out = append(out, e.Clone())
		}
	}
	return out
}

// ToggleSelect flips the selection flag of id and returns the new value.
func (c *Collection) ToggleSelect(id string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.find(id)
	if e == nil {
		return false, false
	}
	e.Selected = !e.Selected
	return e.Selected, true
}

// SetSelected sets the selection flag of id.
func (c *Collection) SetSelected(id string, selected bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.find(id)
	if e == nil {
		return false
	}
	e.Selected = selected
	return true
}

func (c *Collection) SelectAll() {
	c.setAllSelected(true)
}

func (c *Collection) DeselectAll() {
	c.setAllSelected(false)
}

func (c *Collection) setAllSelected(selected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		e.Selected = selected
	}
}

// UpdateStatus sets the status of id. It is a no-op when id is absent.
func (c *Collection) UpdateStatus(id string, status models.Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.find(id)
	if e == nil {
		return false
	}
	e.Status = status
	return true
}

// UpdateResult marks id completed with the given blocks and caches the encoded payload.
func (c *Collection) UpdateResult(id, encodedPixels string, blocks []models.TranslationBlock) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.find(id)
	if e == nil {
		return false
	}
	if encodedPixels != "" {
		e.EncodedPixels = encodedPixels
	}
	e.Blocks = cloneBlocks(blocks)
	if e.Blocks == nil {
		e.Blocks = []models.TranslationBlock{}
	}
	e.Status = models.StatusCompleted
	return true
}

// UpdateFailure marks id as failed. Blocks are left untouched; a non-empty
// payload is cached so a retry does not encode again.
func (c *Collection) UpdateFailure(id, encodedPixels string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.find(id)
	if e == nil {
		return false
	}
	if encodedPixels != "" {
		e.EncodedPixels = encodedPixels
	}
	e.Status = models.StatusError
	return true
}

// CacheEncoded fills the encoded payload slot of id.
func (c *Collection) CacheEncoded(id, encodedPixels string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.find(id)
	if e == nil {
		return false
	}
	e.EncodedPixels = encodedPixels
	return true
}

// ResetStatuses forces every entry back to pending and clears its blocks.
func (c *Collection) ResetStatuses() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		e.Status = models.StatusPending
		e.Blocks = nil
	}
}

// Enqueue builds a run queue and marks its members waiting in one step.
// The queue holds the ids of selected entries whose status is pending or
// error, in collection order.
func (c *Collection) Enqueue() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var queue []string
	for _, e := range c.entries {
		if e.Selected && e.Status.Queueable() {
			queue = append(queue, e.ID)
			e.Status = models.StatusWaiting
		}
	}
	return queue
}

// RevertProcessing moves every processing entry back to pending and returns their ids.
func (c *Collection) RevertProcessing() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ids []string
	for _, e := range c.entries {
		if e.Status == models.StatusProcessing {
			e.Status = models.StatusPending
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// ResetStale moves waiting and processing entries back to pending. It is meant
// for state loaded from disk, where no run can be active.
func (c *Collection) ResetStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.entries {
		if e.Status == models.StatusWaiting || e.Status == models.StatusProcessing {
			e.Status = models.StatusPending
			n++
		}
	}
	return n
}

// PreviousContext returns the text of the last block of the nearest selected
// predecessor of id, provided that predecessor is completed. Only the nearest
// selected predecessor is consulted.
func (c *Collection) PreviousContext(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := c.index(id)
	for i := idx - 1; i >= 0; i-- {
		prev := c.entries[i]
		if !prev.Selected {
			continue
		}
		if prev.Status == models.StatusCompleted {
			return prev.LastText()
		}
		return ""
	}
	return ""
}

// Stats computes processing counts over the selected entries.
func (c *Collection) Stats() models.ProcessingStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var s models.ProcessingStats
	for _, e := range c.entries {
		if !e.Selected {
			continue
		}
		s.Total++
		switch e.Status {
		case models.StatusCompleted:
			s.Processed++
			s.Success++
		case models.StatusError:
			s.Processed++
			s.Failed++
		}
	}
	return s
}

// Remove deletes id from the collection, releasing owned resources.
func (c *Collection) Remove(id string) bool {
	c.mu.Lock()
	idx := c.index(id)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	removed := *c.entries[idx]
	c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
	c.mu.Unlock()

	c.release(removed)
	return true
}

// ResetAll clears the collection, releasing owned resources.
func (c *Collection) ResetAll() {
	c.mu.Lock()
	removed := c.entries
	c.entries = nil
	c.mu.Unlock()

	for _, e := range removed {
		c.release(*e)
	}
}

func (c *Collection) release(e models.ImageEntry) {
	if c.releaser == nil || !e.Owned() {
		return
	}
	if err := c.releaser.Release(e); err != nil {
		slog.Warn("Unable to release image entry", "id", e.ID, "path", e.LocalPath, "err", err)
	}
}

func (c *Collection) find(id string) *models.ImageEntry {
	if i := c.index(id); i >= 0 {
		return c.entries[i]
	}
	return nil
}

func (c *Collection) index(id string) int {
	for i, e := range c.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func cloneBlocks(blocks []models.TranslationBlock) []models.TranslationBlock {
	if blocks == nil {
		return nil
	}
	out := make([]models.TranslationBlock, len(blocks))
	copy(out, blocks)
	return out
}
