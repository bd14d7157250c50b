package tui

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formflow/pkg/engine"
	"github.com/goliatone/go-formflow/pkg/macro"
	"github.com/goliatone/go-formflow/pkg/render"
)

// TextName is the registry name of the plain-text screen renderer.
const TextName = "text"

var blockBreak = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|ul|ol|section|tr|table|blockquote)>|<br\s*/?>`)

// TextRenderer prints screens as plain text. Templated markup is reduced to
// its text with a bluemonday policy.
type TextRenderer struct {
	policy *bluemonday.Policy
}

var _ render.Renderer = (*TextRenderer)(nil)

// NewTextRenderer builds a text renderer. A nil policy strips every tag.
func NewTextRenderer(policy *bluemonday.Policy) *TextRenderer {
	if policy == nil {
		policy = bluemonday.StrictPolicy()
	}
	return &TextRenderer{policy: policy}
}

func (r *TextRenderer) Name() string {
	return TextName
}

func (r *TextRenderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render writes the whole screen: header, contents, fields with their answers
// and errors, and any form-level messages.
func (r *TextRenderer) Render(_ context.Context, screen engine.Screen, options render.RenderOptions) ([]byte, error) {
	var b strings.Builder
	b.WriteString(r.Header(screen))

	for _, message := range render.MergeMessages(options.Messages) {
		fmt.Fprintf(&b, "! %s\n", message)
	}

	switch screen.Kind {
	case engine.KindPreview:
		writeBlock(&b, r.Strip(screen.PreviewContent))
	case engine.KindReview:
		writeBlock(&b, r.Strip(screen.ReviewContent))
		if screen.RequireConsent {
			writeBlock(&b, r.Strip(screen.ConsentContent))
			if screen.ConsentSignURL != "" {
				fmt.Fprintf(&b, "Signature: %s\n", screen.ConsentSignURL)
			}
			fmt.Fprintf(&b, "Consent: %s\n", yesNo(screen.Consent))
			if screen.ConsentError != "" {
				fmt.Fprintf(&b, "! %s\n", screen.ConsentError)
			}
		}
	case engine.KindComplete:
		writeBlock(&b, r.Strip(screen.SubmittedContent))
		if screen.BackLink != "" {
			fmt.Fprintf(&b, "Back: %s\n", screen.BackLink)
		}
	default:
		for _, field := range engine.Flatten(screen.Fields) {
			indent := strings.Repeat("  ", field.Depth+1)
			label := field.Question.Label()
			if field.Question.Required {
				label += " *"
			}
			fmt.Fprintf(&b, "%s%s: %s\n", indent, label, macro.Format(field.Value))
			if field.Error != "" {
				fmt.Fprintf(&b, "%s  ! %s\n", indent, field.Error)
			}
		}
		if screen.Footer != "" {
			writeBlock(&b, screen.Footer)
		}
	}
	return []byte(b.String()), nil
}

// Header returns the form title plus the step line of page screens.
func (r *TextRenderer) Header(screen engine.Screen) string {
	var b strings.Builder
	if screen.FormTitle != "" {
		fmt.Fprintf(&b, "== %s ==\n", screen.FormTitle)
	}
	if screen.Kind == engine.KindPage {
		fmt.Fprintf(&b, "[Step %d of %d] %s\n", screen.Index+1, screen.Total, screen.Title)
		if screen.Description != "" {
			fmt.Fprintf(&b, "%s\n", screen.Description)
		}
	}
	return b.String()
}

// Strip converts trusted markup into readable text.
func (r *TextRenderer) Strip(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}
	withBreaks := blockBreak.ReplaceAllStringFunc(markup, func(tag string) string {
		return tag + "\n"
	})
	text := html.UnescapeString(r.policy.Sanitize(withBreaks))

	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}

func writeBlock(b *strings.Builder, text string) {
	if text == "" {
		return
	}
	b.WriteString(text)
	b.WriteByte('\n')
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
