package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func jpegPayload(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

type fakePixels struct {
	mu      sync.Mutex
	payload string
	fail    map[string]bool
	calls   []string
}

func (f *fakePixels) Pixels(_ context.Context, e models.ImageEntry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, e.ID)
	if f.fail[e.ID] {
		return "", errors.New("unreachable")
	}
	return f.payload, nil
}

func sampleEntries() []models.ImageEntry {
	return []models.ImageEntry{
		{ID: "a", Selected: true, Status: models.StatusCompleted, Blocks: []models.TranslationBlock{
			{Type: models.BlockDialogue, Text: "Hi"},
			{Type: models.BlockSFX, Text: "BOOM"},
		}},
		{ID: "b", Selected: false, Status: models.StatusCompleted, Blocks: []models.TranslationBlock{
			{Type: models.BlockDialogue, Text: "hidden"},
		}},
		{ID: "c", Selected: true, Status: models.StatusPending},
		{ID: "d", Selected: true, Status: models.StatusCompleted, Blocks: []models.TranslationBlock{
			{Type: models.BlockNarration, Text: "Meanwhile"},
			{Type: models.BlockThought, Text: "<why?>"},
		}},
	}
}

func TestPages(t *testing.T) {
	tests := []struct {
		name       string
		includeSFX bool
		wantTexts  [][]string
	}{
		{
			name:       "with sfx",
			includeSFX: true,
			wantTexts:  [][]string{{"Hi", "BOOM"}, nil, {"Meanwhile", "<why?>"}},
		},
		{
			name:       "without sfx",
			includeSFX: false,
			wantTexts:  [][]string{{"Hi"}, nil, {"Meanwhile", "<why?>"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := Pages(sampleEntries(), tt.includeSFX)
			require.Len(t, pages, 3)

			ids := []string{"a", "c", "d"}
			for i, p := range pages {
				assert.Equal(t, i+1, p.Number)
				assert.Equal(t, ids[i], p.Entry.ID)
				var texts []string
				for _, b := range p.Blocks {
					texts = append(texts, b.Text)
				}
				assert.Equal(t, tt.wantTexts[i], texts)
			}
		})
	}
}

func TestPagesDoNotAliasEntries(t *testing.T) {
	entries := sampleEntries()
	pages := Pages(entries, true)
	pages[0].Blocks[0].Text = "changed"
	assert.Equal(t, "Hi", entries[0].Blocks[0].Text)
}

func TestWord(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Word(&buf, "P-chapter.doc", Pages(sampleEntries(), true)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "\ufeff<html"))
	assert.Contains(t, out, `<title>P-chapter.doc</title>`)
	assert.Contains(t, out, `<p class="dialogue">Hi</p>`)
	assert.Contains(t, out, `<p class="sfx">* BOOM</p>`)
	assert.Contains(t, out, `<p class="narration">Meanwhile</p>`)
	assert.Contains(t, out, `<p class="thought">&lt;why?&gt;</p>`)
	assert.NotContains(t, out, "hidden")
	assert.Less(t, strings.Index(out, "Hi"), strings.Index(out, "Meanwhile"))

	buf.Reset()
	require.NoError(t, Word(&buf, "P", Pages(sampleEntries(), false)))
	assert.NotContains(t, buf.String(), "BOOM")
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, "Solo", Pages(sampleEntries(), false)))
	out := buf.String()

	assert.Contains(t, out, "# Solo")
	assert.Contains(t, out, "Hi")
	assert.Contains(t, out, "> Meanwhile")
	assert.Contains(t, out, "why?")
	assert.NotContains(t, out, "BOOM")
	assert.NotContains(t, out, "<p>")
}

func TestRenderPDF(t *testing.T) {
	pixels := &fakePixels{payload: jpegPayload(t, 40, 120), fail: map[string]bool{"c": true}}
	entries := sampleEntries()
	entries[3].EncodedPixels = jpegPayload(t, 80, 20)

	pdf, err := New(pixels, WithWorkers(2)).renderPDF(context.Background(), Pages(entries, true))
	require.NoError(t, err)

	// a + translation, c (placeholder), d + translation
	assert.Equal(t, 5, pdf.PageCount())
	assert.ElementsMatch(t, []string{"a", "c"}, pixels.calls, "cached payloads are not fetched again")
}

func TestPDFOutput(t *testing.T) {
	pixels := &fakePixels{payload: jpegPayload(t, 10, 10)}
	var buf bytes.Buffer
	err := New(pixels).Write(context.Background(), &buf, FormatPDF, "P", Pages(sampleEntries(), false))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func persianEntries() []models.ImageEntry {
	return []models.ImageEntry{
		{ID: "fa", Selected: true, Status: models.StatusCompleted, Blocks: []models.TranslationBlock{
			{Type: models.BlockDialogue, Text: "سلام جین-وو"},
			{Type: models.BlockSFX, Text: "بوم"},
			{Type: models.BlockNarration, Text: "در همین حال"},
		}},
	}
}

func TestPDFNonLatinNeedsFont(t *testing.T) {
	pixels := &fakePixels{payload: jpegPayload(t, 10, 10)}

	_, err := New(pixels).renderPDF(context.Background(), Pages(persianEntries(), true))
	require.ErrorIs(t, err, ErrFontRequired)
	assert.Empty(t, pixels.calls, "fails before fetching images")

	_, err = New(pixels).renderPDF(context.Background(), Pages(sampleEntries(), true))
	assert.NoError(t, err, "Latin text renders with the core font")
}

func TestPDFWithFont(t *testing.T) {
	font := filepath.Join(t.TempDir(), "Go-Regular.ttf")
	require.NoError(t, os.WriteFile(font, goregular.TTF, 0644))
	pixels := &fakePixels{payload: jpegPayload(t, 10, 10)}

	pdf, err := New(pixels, WithFont(font)).renderPDF(context.Background(), Pages(persianEntries(), true))
	require.NoError(t, err)
	assert.Equal(t, 2, pdf.PageCount())

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestNeedsUnicodeFont(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Hello, world!", false},
		{"Café “quoted” 123", false},
		{"سلام", true},
		{"Jin-Woo جین-وو", true},
		{"!!! ...", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			pages := []Page{{Blocks: []models.TranslationBlock{{Type: models.BlockDialogue, Text: tt.text}}}}
			assert.Equal(t, tt.want, needsUnicodeFont(pages))
		})
	}
}

func TestPDFCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(&fakePixels{}).PDF(ctx, &bytes.Buffer{}, Pages(sampleEntries(), true))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFit(t *testing.T) {
	tests := []struct {
		name         string
		imgW, imgH   float64
		wantW, wantH float64
	}{
		{name: "wide image uses content width", imgW: 200, imgH: 100, wantW: 190, wantH: 95},
		{name: "tall strip is limited by height", imgW: 100, imgH: 1000, wantW: 27.7, wantH: 277},
		{name: "degenerate size", imgW: 0, imgH: 10, wantW: 190, wantH: 190},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fit(tt.imgW, tt.imgH, 190, 277)
			assert.InDelta(t, tt.wantW, w, 0.001)
			assert.InDelta(t, tt.wantH, h, 0.001)
		})
	}
}

func TestFormats(t *testing.T) {
	f, err := ParseFormat(".Word")
	require.NoError(t, err)
	assert.Equal(t, FormatDoc, f)
	assert.Equal(t, "Solo-chapter.doc", f.Filename("Solo"))
	assert.Equal(t, "manhwa-chapter.pdf", FormatPDF.Filename(""))

	_, err = ParseFormat("epub")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	err = New(nil).Write(context.Background(), &bytes.Buffer{}, Format("epub"), "", nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
