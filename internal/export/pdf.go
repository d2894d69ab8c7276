package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	pdfMargin   = 10.0
	fontFamily  = "body"
	lineHeight  = 7.0
	blockMargin = 3.0
)

// ErrFontRequired is returned when translation text is outside the Latin
// script and no TrueType font was configured. The PDF core fonts only cover
// cp1252.
var ErrFontRequired = errors.New("PDF export of non-Latin text needs a TrueType font (--font)")

type rgb struct{ r, g, b int }

type blockStyle struct {
	style string
	size  float64
	color rgb
}

var blockStyles = map[models.BlockType]blockStyle{
	models.BlockDialogue:  {"", 13, rgb{0, 0, 0}},
	models.BlockThought:   {"", 12, rgb{100, 116, 139}},
	models.BlockNarration: {"B", 12, rgb{15, 23, 42}},
	models.BlockSFX:       {"I", 12, rgb{220, 38, 38}},
}

// PDF writes one page per image scaled to the content width, followed by a
// translation page for every image that has blocks.
func (e *Exporter) PDF(ctx context.Context, w io.Writer, pages []Page) error {
	pdf, err := e.renderPDF(ctx, pages)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (e *Exporter) renderPDF(ctx context.Context, pages []Page) (*fpdf.Fpdf, error) {
	if e.fontPath == "" && needsUnicodeFont(pages) {
		return nil, ErrFontRequired
	}
	payloads, err := e.prefetch(ctx, pages)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if e.fontPath != "" {
		for _, style := range []string{"", "B", "I"} {
			pdf.AddUTF8Font(fontFamily, style, e.fontPath)
		}
		family = fontFamily
		tr = func(s string) string { return s }
	}

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*pdfMargin
	contentH := pageH - 2*pdfMargin

	for i, p := range pages {
		pdf.AddPage()
		if payloads[i] == nil {
			pdf.SetFont(family, "", 12)
			pdf.SetTextColor(0, 0, 0)
			pdf.Text(pdfMargin, pdfMargin+5, "Error loading image")
		} else {
			name := fmt.Sprintf("page-%d", p.Number)
			opts := fpdf.ImageOptions{ImageType: "JPG"}
			info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(payloads[i]))
			if pdf.Err() {
				return nil, fmt.Errorf("add image of page %d: %w", p.Number, pdf.Error())
			}
			w, h := fit(info.Width(), info.Height(), contentW, contentH)
			pdf.ImageOptions(name, pdfMargin, pdfMargin, w, h, false, opts, 0, "")
		}

		if len(p.Blocks) == 0 {
			continue
		}
		pdf.AddPage()
		pdf.SetFont(family, "B", 16)
		pdf.SetTextColor(99, 102, 241)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Page %d translation", p.Number)), "", 1, "R", false, 0, "")
		pdf.Ln(blockMargin)
		if e.fontPath != "" {
			// Persian is written right to left
			pdf.RTL()
		}
		for _, b := range p.Blocks {
			st, ok := blockStyles[b.Type]
			if !ok {
				st = blockStyles[models.BlockDialogue]
			}
			pdf.SetFont(family, st.style, st.size)
			pdf.SetTextColor(st.color.r, st.color.g, st.color.b)
			pdf.MultiCell(0, lineHeight, tr(b.Text), "", "R", false)
			pdf.Ln(blockMargin)
		}
		pdf.LTR()
	}

	if pdf.Err() {
		return nil, fmt.Errorf("render pdf: %w", pdf.Error())
	}
	return pdf, nil
}

// needsUnicodeFont reports whether any block holds letters of a script
// other than Latin.
func needsUnicodeFont(pages []Page) bool {
	for _, p := range pages {
		for _, b := range p.Blocks {
			for _, r := range b.Text {
				if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
					return true
				}
			}
		}
	}
	return false
}

// fit scales an image to the content width, shrinking further when it would
// overflow the page height.
func fit(imgW, imgH, maxW, maxH float64) (float64, float64) {
	if imgW <= 0 || imgH <= 0 {
		return maxW, maxW
	}
	w, h := maxW, imgH*maxW/imgW
	if h > maxH {
		h = maxH
		w = imgW * maxH / imgH
	}
	return w, h
}

// prefetch decodes the JPEG payload of every page. A page whose image cannot
// be loaded gets a nil payload and is exported with a placeholder.
func (e *Exporter) prefetch(ctx context.Context, pages []Page) ([][]byte, error) {
	payloads := make([][]byte, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, p := range pages {
		g.Go(func() error {
			encoded := p.Entry.EncodedPixels
			if encoded == "" {
				if e.pixels == nil {
					return nil
				}
				var err error
				encoded, err = e.pixels.Pixels(gctx, p.Entry)
				if err != nil {
					slog.Warn("Could not add image to PDF", "page", p.Number, "id", p.Entry.ID, "err", err)
					return nil
				}
			}
			data, err := base64.StdEncoding.DecodeString(encoded)
			if err == nil && len(data) == 0 {
				err = errors.New("empty payload")
			}
			if err != nil {
				slog.Warn("Invalid image payload", "page", p.Number, "id", p.Entry.ID, "err", err)
				return nil
			}
			payloads[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return payloads, nil
}
