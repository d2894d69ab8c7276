// Package pipeline drives sequential translation of the selected entries of a
// collection, with cooperative cancellation and resumption.
//
// Exactly one run may be active per Orchestrator. A run snapshots its queue at
// start; selection changes made while it runs do not add or remove items.
// Cancellation is checked between items. A call already in flight when Stop
// is called is allowed to finish, but its result is discarded: the entry stays
// pending and no detected terms are merged. Encoded pixels produced by the
// discarded call are still cached on the entry.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/manhwa-tools/manhwa-translator/internal/collection"
	"github.com/manhwa-tools/manhwa-translator/internal/config"
	"github.com/manhwa-tools/manhwa-translator/internal/glossary"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"github.com/manhwa-tools/manhwa-translator/internal/translation"
)

var ErrAlreadyRunning = errors.New("a translation run is already active")

// Translator performs one page translation.
type Translator interface {
	Translate(ctx context.Context, req translation.Request) (translation.Result, error)
}

// PixelSource produces the base64 JPEG payload of an entry.
type PixelSource interface {
	Pixels(ctx context.Context, entry models.ImageEntry) (string, error)
}

// EventKind names a progress event.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
	EventDiscarded EventKind = "discarded"
	EventFinished  EventKind = "finished"
)

// Event reports progress of a run.
type Event struct {
	Kind EventKind `json:"kind"`
	ID   string    `json:"id,omitempty"`
	// Index is the 0-based position of ID in the run queue.
	Index int                    `json:"index"`
	Total int                    `json:"total"`
	Err   error                  `json:"-"`
	Stats models.ProcessingStats `json:"stats"`
}

// token is the cancellation signal of a single run. Guarded by Orchestrator.mu.
type token struct {
	cancelled bool
}

// Orchestrator is the only writer of entry statuses while a run is active.
type Orchestrator struct {
	images     *collection.Collection
	glossary   *glossary.Store
	translator Translator
	pixels     PixelSource
	observe    func(Event)

	mu      sync.Mutex
	running bool
	current *token
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver registers fn to receive progress events. fn is called from the
// run goroutine and must not block for long.
func WithObserver(fn func(Event)) Option {
	return func(o *Orchestrator) { o.observe = fn }
}

func New(images *collection.Collection, store *glossary.Store, translator Translator, pixels PixelSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		images:     images,
		glossary:   store,
		translator: translator,
		pixels:     pixels,
		observe:    func(Event) {},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Running reports whether a run is active.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Start validates settings, builds the queue and processes it in a new
// goroutine. The returned channel is closed when the run ends. Start returns
// ErrAlreadyRunning without changing anything when a run is active, and
// config.ErrMissingCredential before any mutation when no key is available.
func (o *Orchestrator) Start(ctx context.Context, settings config.Settings, resetFirst bool) (<-chan struct{}, error) {
	return o.start(ctx, settings, resetFirst, false)
}

// Resume is Start for a stopped run: entries a cancelled run left waiting
// are first moved back to pending so they are queued again.
func (o *Orchestrator) Resume(ctx context.Context, settings config.Settings) (<-chan struct{}, error) {
	return o.start(ctx, settings, false, true)
}

func (o *Orchestrator) start(ctx context.Context, settings config.Settings, resetFirst, resume bool) (<-chan struct{}, error) {
	tok, queue, apiKey, err := o.begin(settings, resetFirst, resume)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.loop(ctx, tok, queue, settings, apiKey)
	}()
	return done, nil
}

// Run is the blocking form of Start.
func (o *Orchestrator) Run(ctx context.Context, settings config.Settings, resetFirst bool) error {
	tok, queue, apiKey, err := o.begin(settings, resetFirst, false)
	if err != nil {
		return err
	}
	o.loop(ctx, tok, queue, settings, apiKey)
	return nil
}

// Stop cancels the active run. Entries currently processing go back to
// pending; waiting, completed and failed entries are left as they are. It
// returns the ids that were reverted.
func (o *Orchestrator) Stop() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopLocked()
}

func (o *Orchestrator) stopLocked() []string {
	if o.current != nil {
		o.current.cancelled = true
	}
	o.running = false
	return o.images.RevertProcessing()
}

func (o *Orchestrator) begin(settings config.Settings, resetFirst, resume bool) (*token, []string, string, error) {
	apiKey, err := settings.Credential()
	if err != nil {
		return nil, nil, "", err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return nil, nil, "", ErrAlreadyRunning
	}
	tok := &token{}
	o.running = true
	o.current = tok

	switch {
	case resetFirst:
		o.images.ResetStatuses()
	case resume:
		o.images.ResetStale()
	}
	queue := o.images.Enqueue()
	slog.Info("Translation run started", "queued", len(queue), "reset", resetFirst, "project", settings.Project)
	return tok, queue, apiKey, nil
}

func (o *Orchestrator) loop(ctx context.Context, tok *token, queue []string, settings config.Settings, apiKey string) {
	defer o.finish(tok, len(queue))

	for i, id := range queue {
		entry, ok := o.markProcessing(ctx, tok, id)
		if !ok {
			if o.cancelled(tok) {
				return
			}
			continue
		}
		o.emit(Event{Kind: EventStarted, ID: id, Index: i, Total: len(queue)})

		encoded, res, err := o.process(ctx, entry, settings, apiKey)

		kind := o.apply(ctx, tok, id, encoded, res, err, settings.Project)
		o.emit(Event{Kind: kind, ID: id, Index: i, Total: len(queue), Err: err})
		if kind == EventDiscarded {
			return
		}
	}
}

// markProcessing looks up id and marks it processing, unless the run has
// been cancelled. ok is false when the entry is gone or the run is over.
func (o *Orchestrator) markProcessing(ctx context.Context, tok *token, id string) (models.ImageEntry, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !tok.cancelled && ctx.Err() != nil {
		slog.Info("Translation run cancelled by context", "err", ctx.Err())
		o.stopLocked()
	}
	if tok.cancelled {
		return models.ImageEntry{}, false
	}

	entry, ok := o.images.Get(id)
	if !ok {
		slog.Warn("Queued entry no longer exists", "id", id)
		return models.ImageEntry{}, false
	}
	o.images.UpdateStatus(id, models.StatusProcessing)
	return entry, true
}

// process obtains the payload and calls the translator. It takes no locks:
// these are the suspension points of a run.
func (o *Orchestrator) process(ctx context.Context, entry models.ImageEntry, settings config.Settings, apiKey string) (string, translation.Result, error) {
	previous := o.images.PreviousContext(entry.ID)

	encoded := entry.EncodedPixels
	if encoded == "" {
		var err error
		encoded, err = o.pixels.Pixels(ctx, entry)
		if err != nil {
			return "", translation.Result{}, err
		}
	}

	res, err := o.translator.Translate(ctx, translation.Request{
		ImageJPEG:       encoded,
		Genre:           settings.Genre,
		Glossary:        o.glossary.Relevant(settings.Project),
		Project:         settings.Project,
		APIKey:          apiKey,
		PreviousContext: previous,
	})
	return encoded, res, err
}

func (o *Orchestrator) apply(ctx context.Context, tok *token, id, encoded string, res translation.Result, err error, project string) EventKind {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !tok.cancelled && ctx.Err() != nil {
		slog.Info("Translation run cancelled by context", "err", ctx.Err())
		o.stopLocked()
	}
	if tok.cancelled {
		if encoded != "" {
			o.images.CacheEncoded(id, encoded)
		}
		slog.Info("Discarding result of cancelled run", "id", id)
		return EventDiscarded
	}

	if err != nil {
		slog.Error("Translation failed", "id", id, "err", err)
		o.images.UpdateFailure(id, encoded)
		return EventFailed
	}

	if added := o.glossary.Merge(project, res.DetectedTerms); len(added) > 0 {
		slog.Info("New glossary terms", "id", id, "project", project, "added", len(added))
	}
	o.images.UpdateResult(id, encoded, res.Blocks)
	return EventCompleted
}

func (o *Orchestrator) cancelled(tok *token) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return tok.cancelled
}

func (o *Orchestrator) finish(tok *token, total int) {
	o.mu.Lock()
	if o.current == tok {
		o.running = false
		o.current = nil
	}
	o.mu.Unlock()

	stats := o.images.Stats()
	slog.Info("Translation run finished", "success", stats.Success, "failed", stats.Failed, "total", stats.Total)
	o.emit(Event{Kind: EventFinished, Total: total, Stats: stats})
}

func (o *Orchestrator) emit(e Event) {
	if e.Kind != EventFinished {
		e.Stats = o.images.Stats()
	}
	o.observe(e)
}
