package tui

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-formflow/pkg/macro"
	"github.com/goliatone/go-formflow/pkg/model"
)

// Serialize encodes responses in the requested format. Form and pretty
// output use "page.question" keys; list answers repeat the key.
func Serialize(responses model.Responses, format OutputFormat) ([]byte, error) {
	switch format {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(responses)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(responses)), nil
	case OutputFormatJSON, "":
		if responses == nil {
			responses = model.Responses{}
		}
		out, err := json.Marshal(responses)
		if err != nil {
			return nil, fmt.Errorf("tui: encode responses: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("tui: unknown output format %q", format)
	}
}

// ContentType reports the media type of a serialization format.
func ContentType(format OutputFormat) string {
	switch format {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

func flattenForm(responses model.Responses) string {
	values := url.Values{}
	for _, e := range sortedEntries(responses) {
		switch typed := e.value.(type) {
		case []any:
			for _, item := range typed {
				values.Add(e.key(), macro.Format(item))
			}
		case []string:
			for _, item := range typed {
				values.Add(e.key(), item)
			}
		default:
			values.Set(e.key(), macro.Format(typed))
		}
	}
	return values.Encode()
}

func prettyPrint(responses model.Responses) string {
	var b strings.Builder
	for _, e := range sortedEntries(responses) {
		fmt.Fprintf(&b, "%s=%s\n", e.key(), macro.Format(e.value))
	}
	return b.String()
}

type entry struct {
	page, question string
	value          any
}

func (e entry) key() string {
	return e.page + "." + e.question
}

func sortedEntries(responses model.Responses) []entry {
	var entries []entry
	for page, answers := range responses {
		for question, value := range answers {
			entries = append(entries, entry{page: page, question: question, value: value})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].page != entries[j].page {
			return entries[i].page < entries[j].page
		}
		return entries[i].question < entries[j].question
	})
	return entries
}
