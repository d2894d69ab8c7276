package glossary

import (
	"strings"

	"github.com/manhwa-tools/manhwa-translator/internal/models"
)

// Prompt renders items as the strict glossary section of a translation prompt.
func Prompt(items []models.GlossaryItem) string {
	if len(items) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString("Strict glossary (use these translations exactly, do not alter them):\n")
	for _, item := range items {
		builder.WriteString("- ")
		builder.WriteString(item.Term)
		builder.WriteString(" -> ")
		builder.WriteString(item.Translation)
		builder.WriteString("\n")
	}
	return strings.TrimSuffix(builder.String(), "\n")
}
