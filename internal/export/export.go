// Package export renders the translated pages of a chapter as downloadable
// documents.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manhwa-tools/manhwa-translator/internal/models"
)

// Format names an export document type.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatDoc      Format = "doc"
	FormatMarkdown Format = "md"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat maps a format name or file extension to a Format.
func ParseFormat(raw string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), ".") {
	case "pdf":
		return FormatPDF, nil
	case "doc", "word":
		return FormatDoc, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDoc:
		return "application/msword"
	}
	return "text/markdown; charset=utf-8"
}

// Filename is the default download name of a chapter export.
func (f Format) Filename(project string) string {
	if project == "" {
		project = "manhwa"
	}
	return fmt.Sprintf("%s-chapter.%s", project, f)
}

// Page is one selected image and its translated blocks.
type Page struct {
	// Number is the 1-based position among the exported pages.
	Number int
	Entry  models.ImageEntry
	Blocks []models.TranslationBlock
}

// Pages picks the selected entries in collection order. Block order and type
// are preserved; sfx blocks are dropped unless includeSFX is set.
func Pages(entries []models.ImageEntry, includeSFX bool) []Page {
	var pages []Page
	for _, e := range entries {
		if !e.Selected {
			continue
		}
		var blocks []models.TranslationBlock
		for _, b := range e.Blocks {
			if !includeSFX && b.Type == models.BlockSFX {
				continue
			}
			blocks = append(blocks, b)
		}
		pages = append(pages, Page{Number: len(pages) + 1, Entry: e.Clone(), Blocks: blocks})
	}
	return pages
}

// PixelSource produces the base64 JPEG payload of an entry.
type PixelSource interface {
	Pixels(ctx context.Context, entry models.ImageEntry) (string, error)
}

// Exporter writes chapter documents.
type Exporter struct {
	pixels   PixelSource
	fontPath string
	workers  int
}

type Option func(*Exporter)

// WithFont sets a TrueType font used for PDF text. Without it the PDF falls
// back to a core font, which cannot render non-Latin scripts.
func WithFont(path string) Option {
	return func(e *Exporter) { e.fontPath = path }
}

// WithWorkers bounds the number of page images fetched in parallel.
func WithWorkers(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.workers = n
		}
	}
}

func New(pixels PixelSource, opts ...Option) *Exporter {
	e := &Exporter{pixels: pixels, workers: 4}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Write renders pages in format f to w.
func (e *Exporter) Write(ctx context.Context, w io.Writer, f Format, title string, pages []Page) error {
	switch f {
	case FormatPDF:
		return e.PDF(ctx, w, pages)
	case FormatDoc:
		return Word(w, title, pages)
	case FormatMarkdown:
		return Markdown(w, title, pages)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}
