package glossary

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strings"

	"github.com/manhwa-tools/manhwa-translator/internal/models"
)

// Format names a glossary file format.
type Format string

const (
	FormatText    Format = "txt"
	FormatCSV     Format = "csv"
	FormatDoc     Format = "doc"
	FormatXLSX    Format = "xlsx"
	FormatParquet Format = "parquet"
)

var ErrUnsupportedFormat = errors.New("unsupported glossary format")

// ParseFormat maps a file extension or format name to a Format.
func ParseFormat(raw string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "."))
	switch f {
	case FormatText, FormatCSV, FormatDoc, FormatXLSX, FormatParquet:
		return f, nil
	case "text", "clipboard":
		return FormatText, nil
	case "excel":
		return FormatCSV, nil
	case "word":
		return FormatDoc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
}

// ContentType returns the MIME type used when serving an export.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatDoc:
		return "application/msword"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	}
	return "text/plain; charset=utf-8"
}

// Filename is the default download name of a project's glossary export.
func (f Format) Filename(project string) string {
	return fmt.Sprintf("glossary-%s.%s", project, f)
}

const utf8BOM = "\ufeff"

var csvHeader = []string{"Term", "Translation", "Category", "Project"}

var hashtag = regexp.MustCompile(`#\S+`)

// Decode reads items in format f and scopes them to project.
func Decode(r io.Reader, f Format, project string) ([]models.GlossaryItem, error) {
	switch f {
	case FormatText, FormatCSV:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read glossary: %w", err)
		}
		return ParseText(string(data), project), nil
	case FormatXLSX:
		return decodeXLSX(r, project)
	case FormatParquet:
		return decodeParquet(r, project)
	}
	return nil, fmt.Errorf("%w for import: %q", ErrUnsupportedFormat, f)
}

// Encode writes items in format f.
func Encode(w io.Writer, f Format, items []models.GlossaryItem) error {
	switch f {
	case FormatText:
		return encodeText(w, items)
	case FormatCSV:
		return encodeCSV(w, items)
	case FormatDoc:
		return encodeDoc(w, items)
	case FormatXLSX:
		return encodeXLSX(w, items)
	case FormatParquet:
		return encodeParquet(w, items)
	}
	return fmt.Errorf("%w for export: %q", ErrUnsupportedFormat, f)
}

// ParseText parses plain or delimited glossary text.
//
// Each line is "term translation [#Category]" or "term,translation[,#Category]".
// A header row starting with "Term," is honoured and skipped. The first
// hashtag token on a line is its category; lines without one get #Names.
func ParseText(text, project string) []models.GlossaryItem {
	text = strings.TrimPrefix(text, utf8BOM)
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	if len(lines) > 0 && isCSVHeader(lines[0]) {
		if items, err := parseCSV(strings.Join(lines, "\n"), project); err == nil {
			return items
		}
	}

	var items []models.GlossaryItem
	for _, line := range lines {
		if item, ok := parseLine(line, project); ok {
			items = append(items, item)
		}
	}
	return items
}

func parseLine(line, project string) (models.GlossaryItem, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return models.GlossaryItem{}, false
	}

	parts := strings.Split(line, ",")
	if len(parts) < 2 {
		parts = strings.Fields(line)
	}
	if len(parts) < 2 {
		return models.GlossaryItem{}, false
	}

	term := strings.TrimSpace(parts[0])
	translation := strings.TrimSpace(parts[1])
	if term == "" || translation == "" || strings.HasPrefix(translation, "#") {
		return models.GlossaryItem{}, false
	}

	category := models.CategoryNames
	if m := hashtag.FindString(line); m != "" {
		category = models.Category(m)
	}

	return models.GlossaryItem{
		Term:        term,
		Translation: translation,
		Category:    category,
		Project:     project,
	}, true
}

func isCSVHeader(line string) bool {
	line = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, utf8BOM)))
	return strings.HasPrefix(line, "term,")
}

// parseCSV reads header-led delimited text. A Project column, when present,
// is ignored: imported items always belong to the importing project.
func parseCSV(text, project string) ([]models.GlossaryItem, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse glossary csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	col := columnIndex(records[0])
	var items []models.GlossaryItem
	for _, rec := range records[1:] {
		term := field(rec, col["term"])
		translation := field(rec, col["translation"])
		if term == "" || translation == "" {
			continue
		}
		items = append(items, models.GlossaryItem{
			Term:        term,
			Translation: translation,
			Category:    models.NormalizeCategory(field(rec, col["category"])),
			Project:     project,
		})
	}
	return items, nil
}

// columnIndex maps header names to positions. Term and translation default
// to the first two columns; a missing category column stays absent (-1).
func columnIndex(header []string) map[string]int {
	col := map[string]int{"term": -1, "translation": -1, "category": -1}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, utf8BOM)))] = i
	}
	if col["term"] < 0 {
		col["term"] = 0
	}
	if col["translation"] < 0 {
		col["translation"] = 1
	}
	return col
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func encodeText(w io.Writer, items []models.GlossaryItem) error {
	var b strings.Builder
	b.WriteString(utf8BOM)
	for _, item := range items {
		fmt.Fprintf(&b, "%s %s %s\n", item.Term, item.Translation, item.Category)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func encodeCSV(w io.Writer, items []models.GlossaryItem) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, item := range items {
		if err := cw.Write([]string{item.Term, item.Translation, string(item.Category), item.Project}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var docTemplate = template.Must(template.New("glossary").Parse(`<html><head><meta charset="utf-8"></head><body>
<table border="1"><tr><th>Term</th><th>Translation</th><th>Category</th></tr>
{{range .}}<tr><td>{{.Term}}</td><td>{{.Translation}}</td><td>{{.Category}}</td></tr>
{{end}}</table></body></html>
`))

func encodeDoc(w io.Writer, items []models.GlossaryItem) error {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	if err := docTemplate.Execute(&buf, items); err != nil {
		return fmt.Errorf("render glossary document: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
