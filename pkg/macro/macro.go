// Package macro expands [#page.question] references in templated content with
// answers from a response map.
package macro

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/model"
)

var tokenPattern = regexp.MustCompile(`\[#([^.\[\]]+)\.([^\[\]]+)\]`)

// Token is one reference found in a template.
type Token struct {
	Page     string
	Question string
}

// Expand replaces every [#page.question] token in template with the string
// form of the referenced answer. Unknown references expand to the empty
// string. Substituted text is never expanded again.
func Expand(template string, responses model.Responses) string {
	if !strings.Contains(template, "[#") {
		return template
	}
	matches := tokenPattern.FindAllStringSubmatchIndex(template, -1)
	if len(matches) == 0 {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))
	last := 0
	for _, m := range matches {
		b.WriteString(template[last:m[0]])
		value, ok := responses.Get(template[m[2]:m[3]], template[m[4]:m[5]])
		if ok {
			b.WriteString(Format(value))
		}
		last = m[1]
	}
	b.WriteString(template[last:])
	return b.String()
}

// Tokens lists the references in template in order of appearance.
func Tokens(template string) []Token {
	matches := tokenPattern.FindAllStringSubmatch(template, -1)
	out := make([]Token, 0, len(matches))
	for _, m := range matches {
		out = append(out, Token{Page: m[1], Question: m[2]})
	}
	return out
}

// Format renders an answer the way it appears in expanded content: lists are
// joined with ", ", numbers drop trailing zeros and uploaded documents show
// their file name.
func Format(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case json.Number:
		return typed.String()
	case []string:
		return strings.Join(typed, ", ")
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			parts = append(parts, Format(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		if name, ok := typed["name"]; ok {
			return Format(name)
		}
		data, err := json.Marshal(typed)
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return fmt.Sprint(typed)
	}
}
