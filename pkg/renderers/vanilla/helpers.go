package vanilla

import (
	"strconv"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formflow/pkg/engine"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/widgets"
)

func controlID(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return ""
	}
	return "ff-" + trimmed
}

// labelSupportsFor reports whether the widget renders a single focusable
// control a <label for> can point at.
func labelSupportsFor(widget string) bool {
	switch widget {
	case widgets.WidgetRadio, widgets.WidgetCheckbox:
		return false
	default:
		return true
	}
}

func fieldPayload(field *engine.Field, widget string, focus string) map[string]any {
	q := field.Question
	options := make([]map[string]any, 0, len(q.Options))
	for _, opt := range q.Options {
		options = append(options, map[string]any{
			"value": opt.Value,
			"label": opt.DisplayLabel(),
		})
	}

	return map[string]any{
		"id":            controlID(q.Code),
		"code":          q.Code,
		"label":         q.Label(),
		"type":          string(q.Type),
		"widget":        widget,
		"hint":          q.Hint,
		"placeholder":   q.Placeholder,
		"required":      q.Required,
		"prefix":        q.Prefix,
		"suffix":        q.Suffix,
		"value":         field.Value,
		"error":         field.Error,
		"depth":         field.Depth,
		"colspan":       q.Colspan,
		"options":       options,
		"min":           boundText(q.Min),
		"max":           boundText(q.Max),
		"has_min":       q.Min != nil,
		"has_max":       q.Max != nil,
		"accept":        strings.Join(q.FileTypes, ","),
		"max_file_size": sizeText(q.MaxFileSize),
		"label_for":     labelSupportsFor(widget),
		"autofocus":     focus != "" && focus == q.Code,
	}
}

func boundText(bound *model.Bound) string {
	if bound == nil {
		return ""
	}
	return bound.String()
}

func sizeText(mb float64) string {
	if mb <= 0 {
		return ""
	}
	return strconv.FormatFloat(mb, 'f', -1, 64)
}

func screenPayload(screen engine.Screen) map[string]any {
	nextLabel := "Next"
	switch screen.Kind {
	case engine.KindPreview:
		nextLabel = "Start"
	case engine.KindReview:
		nextLabel = "Submit"
	case engine.KindPage:
		if screen.IsLast && !screen.ShowReview {
			nextLabel = "Submit"
		}
	}

	return map[string]any{
		"kind":              string(screen.Kind),
		"code":              screen.Code,
		"form_title":        screen.FormTitle,
		"form_description":  screen.FormDescription,
		"form_notes":        screen.FormNotes,
		"title":             screen.Title,
		"description":       screen.Description,
		"footer":            screen.Footer,
		"columns":           screen.Columns,
		"step":              screen.Index + 1,
		"total":             screen.Total,
		"has_back":          screen.HasBack,
		"next_label":        nextLabel,
		"preview_content":   screen.PreviewContent,
		"review_content":    screen.ReviewContent,
		"submitted_content": screen.SubmittedContent,
		"back_link":         screen.BackLink,
		"require_consent":   screen.RequireConsent,
		"consent_content":   screen.ConsentContent,
		"consent_sign_url":  screen.ConsentSignURL,
		"consent":           screen.Consent,
		"consent_error":     screen.ConsentError,
		"consent_focus":     screen.Focus == engine.ConsentFocus,
	}
}

// themeStylesheet is the asset key a theme uses to ship its stylesheet.
const themeStylesheet = "vanilla.stylesheet"

func themePayload(cfg *theme.RendererConfig) map[string]any {
	if cfg == nil {
		return map[string]any{}
	}
	stylesheet := ""
	if cfg.AssetURL != nil {
		stylesheet = cfg.AssetURL(themeStylesheet)
	}
	return map[string]any{
		"name":       cfg.Theme,
		"variant":    cfg.Variant,
		"css_vars":   render.CSSVarsStyle(cfg.CSSVars),
		"stylesheet": stylesheet,
	}
}
