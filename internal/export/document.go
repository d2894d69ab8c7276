package export

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
)

const utf8BOM = "\ufeff"

type paragraph struct {
	Class string
	Text  string
}

// flatten turns pages into a continuous stream of paragraphs. Page
// boundaries are not marked.
func flatten(pages []Page) []paragraph {
	var out []paragraph
	for _, p := range pages {
		for _, b := range p.Blocks {
			class := b.Type
			if !class.Valid() {
				class = models.BlockDialogue
			}
			text := b.Text
			if class == models.BlockSFX {
				text = "* " + text
			}
			out = append(out, paragraph{Class: string(class), Text: text})
		}
	}
	return out
}

var wordTemplate = template.Must(template.New("word").Parse(`<html xmlns:o='urn:schemas-microsoft-com:office:office' xmlns:w='urn:schemas-microsoft-com:office:word' xmlns='http://www.w3.org/TR/REC-html40'>
<head><meta charset='utf-8'><title>{{.Title}}</title>
<style>
body { font-family: 'Tahoma', 'Arial', sans-serif; direction: rtl; text-align: right; line-height: 1.6; }
.dialogue { color: #000; font-size: 14pt; margin-bottom: 24px; }
.thought { color: #555; font-style: italic; font-size: 14pt; margin-bottom: 24px; }
.narration { background-color: #f9f9f9; color: #333; font-size: 12pt; margin-bottom: 24px; padding: 5px; }
.sfx { color: red; font-weight: bold; font-size: 12pt; margin-bottom: 24px; }
</style>
</head><body>
{{range .Paragraphs}}<p class="{{.Class}}">{{.Text}}</p>
{{end}}</body></html>
`))

// Word writes a Word-compatible HTML document holding the block stream of
// every page, one styled paragraph per block.
func Word(w io.Writer, title string, pages []Page) error {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	err := wordTemplate.Execute(&buf, map[string]any{
		"Title":      title,
		"Paragraphs": flatten(pages),
	})
	if err != nil {
		return fmt.Errorf("render word document: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

var markdownTemplate = template.Must(template.New("markdown").Parse(`{{if .Title}}<h1>{{.Title}}</h1>
{{end}}{{range .Paragraphs}}{{if eq .Class "narration"}}<blockquote><p>{{.Text}}</p></blockquote>
{{else if eq .Class "thought"}}<p><em>{{.Text}}</em></p>
{{else}}<p>{{.Text}}</p>
{{end}}{{end}}`))

// Markdown writes the same block stream as Word, converted to Markdown.
// Narration becomes a quote and thoughts are emphasized.
func Markdown(w io.Writer, title string, pages []Page) error {
	var buf bytes.Buffer
	err := markdownTemplate.Execute(&buf, map[string]any{
		"Title":      title,
		"Paragraphs": flatten(pages),
	})
	if err != nil {
		return fmt.Errorf("render markdown source: %w", err)
	}

	md, err := htmltomarkdown.ConvertString(buf.String())
	if err != nil {
		return fmt.Errorf("convert to markdown: %w", err)
	}
	_, err = io.WriteString(w, md+"\n")
	return err
}
