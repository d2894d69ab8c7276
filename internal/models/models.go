package models

import "strings"

// Status is the processing state of an ImageEntry.
type Status string

const (
	StatusPending    Status = "pending"
	StatusWaiting    Status = "waiting"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusWaiting, StatusProcessing, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Queueable reports whether an entry in this status joins a new run's queue.
func (s Status) Queueable() bool {
	return s == StatusPending || s == StatusError
}

// BlockType is the semantic category of a translated text unit.
type BlockType string

const (
	BlockDialogue  BlockType = "dialogue"
	BlockThought   BlockType = "thought"
	BlockNarration BlockType = "narration"
	BlockSFX       BlockType = "sfx"
)

// BlockTypes lists every block type in display order.
var BlockTypes = []BlockType{BlockDialogue, BlockThought, BlockNarration, BlockSFX}

func (t BlockType) Valid() bool {
	switch t {
	case BlockDialogue, BlockThought, BlockNarration, BlockSFX:
		return true
	}
	return false
}

// TranslationBlock is one translated text unit, in reading order within its image.
type TranslationBlock struct {
	Type     BlockType `json:"type" yaml:"type"`
	Text     string    `json:"text" yaml:"text"`
	Original string    `json:"original,omitempty" yaml:"original,omitempty"`
}

// ImageEntry represents one page/panel image and its processing state
type ImageEntry struct {
	ID string `json:"id" yaml:"id"`
	// URL is the display/fetch reference: a remote URL, a data: URI or an upload URL.
	URL string `json:"image_url" yaml:"image_url"`
	// LocalPath is set for uploaded or pasted files whose bytes are owned by the entry.
	LocalPath string `json:"image_path,omitempty" yaml:"image_path,omitempty"`
	Filename  string `json:"filename,omitempty" yaml:"filename,omitempty"`

	// EncodedPixels caches the base64 JPEG payload once it has been produced.
	EncodedPixels string `json:"-" yaml:"-"`

	Status   Status             `json:"status" yaml:"status"`
	Selected bool               `json:"selected" yaml:"selected"`
	Blocks   []TranslationBlock `json:"blocks,omitempty" yaml:"blocks,omitempty"`

	Width  int `json:"image_width,omitempty" yaml:"image_width,omitempty"`
	Height int `json:"image_height,omitempty" yaml:"image_height,omitempty"`
}

// Owned reports whether the entry owns local bytes that must be released on removal.
func (e ImageEntry) Owned() bool {
	return e.LocalPath != ""
}

// Clone returns a copy of e that shares no slices with it.
func (e ImageEntry) Clone() ImageEntry {
	if e.Blocks != nil {
		blocks := make([]TranslationBlock, len(e.Blocks))
		copy(blocks, e.Blocks)
		e.Blocks = blocks
	}
	return e
}

// LastText returns the text of the final block, or "" when there are no blocks.
func (e ImageEntry) LastText() string {
	if len(e.Blocks) == 0 {
		return ""
	}
	return e.Blocks[len(e.Blocks)-1].Text
}

// Category tags a glossary term. Values keep the leading '#', e.g. "#Names".
type Category string

const (
	CategoryNames  Category = "#Names"
	CategoryPlaces Category = "#Places"
	CategorySkills Category = "#Skills"
	CategoryOther  Category = "#Other"
)

// Categories lists the categories the translation service may return.
var Categories = []Category{CategoryNames, CategoryPlaces, CategorySkills, CategoryOther}

// NormalizeCategory adds the leading '#' when missing and falls back to #Names for blanks.
func NormalizeCategory(raw string) Category {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CategoryNames
	}
	if !strings.HasPrefix(raw, "#") {
		raw = "#" + raw
	}
	return Category(raw)
}

// GlobalProject is the glossary scope that applies to every project.
const GlobalProject = "Global"

// GlossaryItem is a project-scoped term -> translation mapping.
type GlossaryItem struct {
	ID          string   `json:"id" yaml:"id"`
	Term        string   `json:"term" yaml:"term"`
	Translation string   `json:"translation" yaml:"translation"`
	Category    Category `json:"category" yaml:"category"`
	Project     string   `json:"project" yaml:"project"`
}

// DetectedTerm is a new term reported by the translation service.
type DetectedTerm struct {
	Original    string   `json:"original"`
	Translation string   `json:"translation"`
	Category    Category `json:"category"`
}

// Genre selects the tone of the translation.
type Genre string

const (
	GenreWuxia   Genre = "wuxia"
	GenreSystem  Genre = "system"
	GenreRomance Genre = "romance"
	GenreSchool  Genre = "school"
	GenreFantasy Genre = "fantasy"
	GenreGeneral Genre = "general"
)

// Genres lists every supported genre.
var Genres = []Genre{GenreWuxia, GenreSystem, GenreRomance, GenreSchool, GenreFantasy, GenreGeneral}

// ParseGenre maps free text to a Genre, falling back to general.
func ParseGenre(raw string) Genre {
	g := Genre(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Genres {
		if g == known {
			return g
		}
	}
	return GenreGeneral
}

// ProcessingStats is derived from the selected entries of a collection.
type ProcessingStats struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Success   int `json:"success"`
	Failed    int `json:"failed"`
}
