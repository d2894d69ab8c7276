package collection

import (
	"testing"

	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReleaser struct {
	released []string
}

func (r *recordingReleaser) Release(e models.ImageEntry) error {
	r.released = append(r.released, e.ID)
	return nil
}

func newFilled(t *testing.T, ids ...string) *Collection {
	t.Helper()
	c := New()
	entries := make([]models.ImageEntry, len(ids))
	for i, id := range ids {
		entries[i] = models.ImageEntry{ID: id, URL: "https://example.com/" + id + ".jpg"}
	}
	c.Append(entries...)
	return c
}

func TestAppendDefaults(t *testing.T) {
	c := New()
	added := c.Append(
		models.ImageEntry{URL: "https://example.com/1.jpg", Status: models.StatusCompleted},
		models.ImageEntry{URL: "https://example.com/1.jpg"},
	)

	require.Len(t, added, 2)
	for _, e := range added {
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, models.StatusPending, e.Status)
		assert.True(t, e.Selected)
		assert.Nil(t, e.Blocks)
	}
	assert.NotEqual(t, added[0].ID, added[1].ID)
	assert.Equal(t, 2, c.Len(), "duplicates are not detected")
}

func TestSelectionDoesNotTouchStatus(t *testing.T) {
	c := newFilled(t, "a", "b")
	c.UpdateStatus("a", models.StatusError)

	selected, ok := c.ToggleSelect("a")
	require.True(t, ok)
	assert.False(t, selected)

	c.DeselectAll()
	assert.Empty(t, c.Selected())
	c.SelectAll()
	assert.Len(t, c.Selected(), 2)

	a, _ := c.Get("a")
	assert.Equal(t, models.StatusError, a.Status)

	_, ok = c.ToggleSelect("missing")
	assert.False(t, ok)
}

func TestUpdatesAreNoOpForUnknownID(t *testing.T) {
	c := newFilled(t, "a")
	assert.False(t, c.UpdateStatus("zzz", models.StatusCompleted))
	assert.False(t, c.UpdateResult("zzz", "b64", nil))
	assert.False(t, c.UpdateFailure("zzz", ""))

	a, _ := c.Get("a")
	assert.Equal(t, models.StatusPending, a.Status)
}

func TestUpdateResultAndFailure(t *testing.T) {
	c := newFilled(t, "a", "b")
	blocks := []models.TranslationBlock{{Type: models.BlockDialogue, Text: "Hi"}}

	require.True(t, c.UpdateResult("a", "payload-a", blocks))
	blocks[0].Text = "mutated"

	a, _ := c.Get("a")
	assert.Equal(t, models.StatusCompleted, a.Status)
	assert.Equal(t, "payload-a", a.EncodedPixels)
	assert.Equal(t, "Hi", a.Blocks[0].Text, "stored blocks must not alias the caller's slice")

	require.True(t, c.UpdateFailure("b", "payload-b"))
	b, _ := c.Get("b")
	assert.Equal(t, models.StatusError, b.Status)
	assert.Equal(t, "payload-b", b.EncodedPixels)
	assert.Nil(t, b.Blocks)
}

func TestEnqueue(t *testing.T) {
	c := newFilled(t, "a", "b", "c", "d", "e")
	c.UpdateStatus("b", models.StatusCompleted)
	c.UpdateStatus("c", models.StatusError)
	c.UpdateStatus("d", models.StatusProcessing)
	c.SetSelected("e", false)

	queue := c.Enqueue()
	assert.Equal(t, []string{"a", "c"}, queue)

	for id, want := range map[string]models.Status{
		"a": models.StatusWaiting,
		"b": models.StatusCompleted,
		"c": models.StatusWaiting,
		"d": models.StatusProcessing,
		"e": models.StatusPending,
	} {
		got, _ := c.Get(id)
		assert.Equal(t, want, got.Status, id)
	}
}

func TestPreviousContext(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Collection)
		id    string
		want  string
	}{
		{
			name: "first entry has no context",
			id:   "a",
			want: "",
		},
		{
			name: "completed predecessor gives its last block",
			setup: func(c *Collection) {
				c.UpdateResult("a", "", []models.TranslationBlock{
					{Type: models.BlockNarration, Text: "first"},
					{Type: models.BlockDialogue, Text: "last"},
				})
			},
			id:   "b",
			want: "last",
		},
		{
			name: "unselected entries are skipped",
			setup: func(c *Collection) {
				c.UpdateResult("a", "", []models.TranslationBlock{{Type: models.BlockDialogue, Text: "from a"}})
				c.SetSelected("b", false)
			},
			id:   "c",
			want: "from a",
		},
		{
			name: "only the nearest selected predecessor is consulted",
			setup: func(c *Collection) {
				c.UpdateResult("a", "", []models.TranslationBlock{{Type: models.BlockDialogue, Text: "from a"}})
				c.UpdateStatus("b", models.StatusError)
			},
			id:   "c",
			want: "",
		},
		{
			name: "completed predecessor without blocks gives nothing",
			setup: func(c *Collection) {
				c.UpdateResult("a", "", nil)
			},
			id:   "b",
			want: "",
		},
		{
			name: "unknown id",
			id:   "zzz",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFilled(t, "a", "b", "c")
			if tt.setup != nil {
				tt.setup(c)
			}
			assert.Equal(t, tt.want, c.PreviousContext(tt.id))
		})
	}
}

func TestStatsCountSelectedOnly(t *testing.T) {
	c := newFilled(t, "a", "b", "c", "d")
	c.UpdateResult("a", "", []models.TranslationBlock{{Type: models.BlockDialogue, Text: "Hi"}})
	c.UpdateResult("b", "", []models.TranslationBlock{{Type: models.BlockDialogue, Text: "there"}})
	c.UpdateFailure("c", "")
	c.UpdateFailure("d", "")
	c.SetSelected("d", false)

	assert.Equal(t, models.ProcessingStats{Total: 3, Processed: 3, Success: 2, Failed: 1}, c.Stats())
}

func TestRevertProcessing(t *testing.T) {
	c := newFilled(t, "a", "b", "c", "d")
	c.UpdateStatus("a", models.StatusProcessing)
	c.UpdateStatus("b", models.StatusWaiting)
	c.UpdateResult("c", "", nil)
	c.UpdateFailure("d", "")

	assert.Equal(t, []string{"a"}, c.RevertProcessing())

	want := []models.Status{models.StatusPending, models.StatusWaiting, models.StatusCompleted, models.StatusError}
	for i, e := range c.Snapshot() {
		assert.Equal(t, want[i], e.Status, e.ID)
	}
}

func TestResetStatusesClearsBlocks(t *testing.T) {
	c := newFilled(t, "a", "b")
	c.UpdateResult("a", "payload", []models.TranslationBlock{{Type: models.BlockSFX, Text: "BOOM"}})
	c.UpdateFailure("b", "")

	c.ResetStatuses()
	for _, e := range c.Snapshot() {
		assert.Equal(t, models.StatusPending, e.Status)
		assert.Nil(t, e.Blocks)
	}
	a, _ := c.Get("a")
	assert.Equal(t, "payload", a.EncodedPixels, "encoded cache survives a reset")
}

func TestRemoveAndResetAllRelease(t *testing.T) {
	r := &recordingReleaser{}
	c := New(WithReleaser(r))
	c.Append(
		models.ImageEntry{ID: "up1", LocalPath: "/tmp/up1.jpg"},
		models.ImageEntry{ID: "remote", URL: "https://example.com/x.jpg"},
		models.ImageEntry{ID: "up2", LocalPath: "/tmp/up2.jpg"},
	)

	require.True(t, c.Remove("up1"))
	assert.False(t, c.Remove("up1"))
	assert.Equal(t, []string{"up1"}, r.released)

	c.ResetAll()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, []string{"up1", "up2"}, r.released, "remote entries own nothing to release")
}

func TestBlockEdits(t *testing.T) {
	c := newFilled(t, "a", "b")
	assert.ErrorIs(t, c.AppendBlock("a"), ErrNotTranslated)
	assert.ErrorIs(t, c.AppendBlock("zzz"), ErrNotFound)

	c.UpdateResult("a", "", []models.TranslationBlock{{Type: models.BlockDialogue, Text: "one"}})
	require.NoError(t, c.AppendBlock("a"))
	require.NoError(t, c.UpdateBlock("a", 1, models.TranslationBlock{Type: models.BlockSFX, Text: "BAM"}))
	assert.ErrorIs(t, c.UpdateBlock("a", 5, models.TranslationBlock{}), ErrBlockIndex)
	require.NoError(t, c.DeleteBlock("a", 0))

	a, _ := c.Get("a")
	assert.Equal(t, models.StatusCompleted, a.Status)
	assert.Equal(t, []models.TranslationBlock{{Type: models.BlockSFX, Text: "BAM"}}, a.Blocks)

	require.NoError(t, c.ReplaceBlocks("a", nil))
	a, _ = c.Get("a")
	assert.NotNil(t, a.Blocks)
	assert.Empty(t, a.Blocks)
}

func TestResetStale(t *testing.T) {
	c := New()
	c.Restore(
		models.ImageEntry{ID: "a", Status: models.StatusWaiting, Selected: true},
		models.ImageEntry{ID: "b", Status: models.StatusProcessing, Selected: true},
		models.ImageEntry{ID: "c", Status: models.StatusCompleted, Selected: false},
		models.ImageEntry{ID: "d", Status: "bogus"},
	)

	assert.Equal(t, 2, c.ResetStale())
	want := []models.Status{models.StatusPending, models.StatusPending, models.StatusCompleted, models.StatusPending}
	for i, e := range c.Snapshot() {
		assert.Equal(t, want[i], e.Status, e.ID)
	}
	c3, _ := c.Get("c")
	assert.False(t, c3.Selected, "restore keeps stored selection")
}
