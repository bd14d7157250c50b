package components

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goliatone/go-formflow/pkg/widgets"
)

const (
	templatePrefix = "widgets/"
	partialPrefix  = "forms."
)

// PartialKey is the theme partial that replaces the markup of widget.
func PartialKey(widget string) string {
	return partialPrefix + widget
}

// NewDefaultRegistry constructs a registry with a template-backed component
// for every built-in widget.
func NewDefaultRegistry() *Registry {
	registry := New()
	for _, name := range []string{
		widgets.WidgetText,
		widgets.WidgetTextArea,
		widgets.WidgetNumber,
		widgets.WidgetEmail,
		widgets.WidgetPhone,
		widgets.WidgetDate,
		widgets.WidgetRadio,
		widgets.WidgetCheckbox,
		widgets.WidgetCombobox,
		widgets.WidgetDocument,
		widgets.WidgetSelect,
	} {
		registry.MustRegister(name, Descriptor{
			Renderer: TemplateRenderer(PartialKey(name), templatePrefix+name+".tpl"),
		})
	}
	return registry
}

// TemplateRenderer returns a component renderer that executes templateName with
// the field payload bound to "field". A theme partial registered under
// partialKey is used instead when present.
func TemplateRenderer(partialKey, templateName string) Renderer {
	return func(buf *bytes.Buffer, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}
		resolved := templateName
		if candidate := strings.TrimSpace(data.ThemePartials[partialKey]); candidate != "" {
			resolved = candidate
		}
		rendered, err := data.Template.RenderTemplate(resolved, map[string]any{
			"field": data.Field,
		})
		if err != nil {
			return fmt.Errorf("components: render template %q: %w", resolved, err)
		}
		buf.WriteString(rendered)
		return nil
	}
}
