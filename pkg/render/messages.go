package render

import (
	"strings"

	"github.com/goliatone/go-formflow/pkg/engine"
)

// MergeMessages concatenates message lists, trimming whitespace and dropping
// blanks and duplicates while preserving order.
func MergeMessages(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)

	out := make([]string, 0, len(combined))
	seen := make(map[string]struct{}, len(combined))
	for _, message := range combined {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ErrorSummary lists the messages of a screen in display order: field errors
// depth-first, then the consent error.
func ErrorSummary(screen engine.Screen) []string {
	var messages []string
	for _, field := range engine.Flatten(screen.Fields) {
		if field.Error != "" {
			messages = append(messages, field.Error)
		}
	}
	return MergeMessages(messages, screen.ConsentError)
}
