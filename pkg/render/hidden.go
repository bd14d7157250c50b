package render

import (
	"fmt"
	"sort"
	"strings"
)

// Hidden input names used by the bundled hosts.
const (
	FieldSession = "_session"
	FieldAction  = "_action"
	FieldPage    = "_page"

	// FieldRendered repeats once per question a page rendered, so a post can
	// tell an unticked checkbox group from one that was never shown.
	FieldRendered = "_fields"
)

// HiddenField represents a hidden form input emitted alongside the visible
// questions.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// SessionToken carries the session identifier for hosts that cannot rely on
// cookies.
func SessionToken(id string) HiddenField {
	return Hidden(FieldSession, id)
}

// PageToken records which page the posted answers belong to.
func PageToken(code string) HiddenField {
	return Hidden(FieldPage, code)
}

// MergeHiddenFields returns a copy of base with the provided fields applied.
// Empty names are ignored; later fields win on name collisions.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	if len(base) == 0 && len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(fields))
	for key, value := range base {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		out[name] = field.Value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields sorts hidden fields by name for deterministic output.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		if strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	result := make([]HiddenField, 0, len(names))
	for _, name := range names {
		result = append(result, HiddenField{Name: strings.TrimSpace(name), Value: fields[name]})
	}
	return result
}
