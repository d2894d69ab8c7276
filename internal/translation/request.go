// Package translation builds translation requests for a page image and parses
// the structured reply into blocks and newly detected glossary terms.
package translation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/manhwa-tools/manhwa-translator/internal/glossary"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
)

var (
	ErrMalformedResponse  = errors.New("malformed translation response")
	ErrRateLimitExhausted = errors.New("rate limit retries exhausted")
)

// Request carries everything a single page translation needs.
type Request struct {
	// ImageJPEG is the base64 JPEG payload of the page.
	ImageJPEG string
	Genre     models.Genre
	// Glossary holds the items relevant to Project, usually glossary.Store.Relevant.
	Glossary        []models.GlossaryItem
	Project         string
	APIKey          string
	PreviousContext string
}

// Result is the parsed reply of one translation call.
type Result struct {
	Blocks        []models.TranslationBlock `json:"blocks"`
	DetectedTerms []models.DetectedTerm     `json:"newTerms"`
}

var genreTone = map[models.Genre]string{
	models.GenreWuxia:   "Use an epic, archaic and martial tone, preferring pure Persian vocabulary.",
	models.GenreSystem:  "Use a dry, mechanical tone for system boxes and modern colloquial Persian for dialogue.",
	models.GenreRomance: "Use an emotional and gentle tone.",
	models.GenreSchool:  "Use a youthful, informal tone.",
	models.GenreFantasy: "Use a storytelling, adventurous tone.",
	models.GenreGeneral: "Use fluent, natural Persian.",
}

// Tone returns the tone instruction for g, falling back to general.
func Tone(g models.Genre) string {
	if tone, ok := genreTone[g]; ok {
		return tone
	}
	return genreTone[models.GenreGeneral]
}

// BuildPrompt renders the instruction text sent with the page image.
func BuildPrompt(req Request) string {
	var b strings.Builder
	step := 0
	task := func(format string, args ...any) {
		step++
		fmt.Fprintf(&b, "%d. ", step)
		fmt.Fprintf(&b, format, args...)
		b.WriteString("\n")
	}

	b.WriteString("You are the assistant of a manhwa translation team.\n\nTasks:\n")
	task("Extract every piece of text in the image, in reading order, and translate it into Persian.")
	task("%s", Tone(req.Genre))
	if g := glossary.Prompt(req.Glossary); g != "" {
		task("%s", g)
	}
	if req.PreviousContext != "" {
		task("The last sentence of the previous page was: %q. If the text at the top of this page continues it, "+
			"complete it and translate it as one coherent sentence. Do not repeat partial fragments.", req.PreviousContext)
	}
	task("New terms: if you see a person name (#Names), place (#Places) or technique/skill (#Skills) " +
		"that is not in the glossary above, report it.")

	b.WriteString("\nReply with a JSON object with two fields:\n")
	b.WriteString("- blocks: the translated texts in reading order, each {\"type\": one of dialogue|thought|narration|sfx, \"text\": string}.\n")
	b.WriteString("- newTerms: detected terms, each {\"original\", \"translation\", \"category\"}; category is one of #Names, #Places, #Skills, #Other.\n")
	if req.Project != "" {
		fmt.Fprintf(&b, "\nProject: %s\n", req.Project)
	}
	return b.String()
}

// ParseResult decodes a raw reply. Markdown fences are stripped first; missing
// arrays decode as empty. Invalid JSON or an unknown block type is an
// ErrMalformedResponse.
func ParseResult(raw string) (Result, error) {
	text := strings.ReplaceAll(raw, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, fmt.Errorf("%w: empty reply", ErrMalformedResponse)
	}

	var parsed Result
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if parsed.Blocks == nil {
		parsed.Blocks = []models.TranslationBlock{}
	}
	for i, block := range parsed.Blocks {
		if !block.Type.Valid() {
			return Result{}, fmt.Errorf("%w: block %d has unknown type %q", ErrMalformedResponse, i, block.Type)
		}
	}

	terms := make([]models.DetectedTerm, 0, len(parsed.DetectedTerms))
	for _, term := range parsed.DetectedTerms {
		term.Original = strings.TrimSpace(term.Original)
		if term.Original == "" {
			continue
		}
		term.Category = models.NormalizeCategory(string(term.Category))
		terms = append(terms, term)
	}
	parsed.DetectedTerms = terms
	return parsed, nil
}
