package vanilla

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-formflow/pkg/engine"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/render/template"
	"github.com/goliatone/go-formflow/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-formflow/pkg/widgets"
)

const (
	fieldTemplate = "field"
	fieldPartial  = "forms.field"
)

// fieldRenderer renders a field tree. Follow-ups are rendered first and handed
// to the parent's chrome template as trusted markup, so templates never
// recurse into themselves.
type fieldRenderer struct {
	templates  template.TemplateRenderer
	widgets    *widgets.Registry
	components *components.Registry
	focus      string
	partials   map[string]string

	usedComponents map[string]struct{}
}

func newFieldRenderer(templates template.TemplateRenderer, registry *widgets.Registry, comps *components.Registry, focus string, partials map[string]string) *fieldRenderer {
	return &fieldRenderer{
		templates:      templates,
		widgets:        registry,
		components:     comps,
		focus:          focus,
		partials:       partials,
		usedComponents: make(map[string]struct{}),
	}
}

func (r *fieldRenderer) renderAll(fields []*engine.Field) (string, error) {
	var builder strings.Builder
	for _, field := range fields {
		markup, err := r.render(field)
		if err != nil {
			return "", err
		}
		builder.WriteString(markup)
	}
	return builder.String(), nil
}

func (r *fieldRenderer) render(field *engine.Field) (string, error) {
	if field == nil {
		return "", nil
	}
	code := field.Question.Code

	widget, ok := r.widgets.Resolve(field.Question)
	if !ok {
		widget = widgets.WidgetText
	}
	descriptor, ok := r.components.Descriptor(widget)
	if !ok {
		return "", fmt.Errorf("component %q not registered for question %q", widget, code)
	}

	payload := fieldPayload(field, widget, r.focus)

	var control bytes.Buffer
	if err := descriptor.Renderer(&control, components.ComponentData{
		Template:      r.templates,
		Field:         payload,
		ThemePartials: r.partials,
	}); err != nil {
		return "", fmt.Errorf("render component %q for question %q: %w", widget, code, err)
	}
	r.usedComponents[descriptor.Name] = struct{}{}

	followups, err := r.renderAll(field.FollowUps)
	if err != nil {
		return "", err
	}

	chrome := fieldTemplate
	if candidate := strings.TrimSpace(r.partials[fieldPartial]); candidate != "" {
		chrome = candidate
	}
	markup, err := r.templates.RenderTemplate(chrome, map[string]any{
		"classes":   classNames(),
		"marker":    render.FieldRendered,
		"field":     payload,
		"control":   control.String(),
		"followups": followups,
	})
	if err != nil {
		return "", fmt.Errorf("render field %q: %w", code, err)
	}
	return markup, nil
}

func (r *fieldRenderer) used() []string {
	names := make([]string, 0, len(r.usedComponents))
	for name := range r.usedComponents {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
