// Package vanilla renders questionnaire screens as server-side HTML using
// pongo2 templates and plain form posts.
package vanilla

import (
	"context"
	"fmt"
	"io/fs"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formflow/pkg/engine"
	"github.com/goliatone/go-formflow/pkg/render"
	rendertemplate "github.com/goliatone/go-formflow/pkg/render/template"
	"github.com/goliatone/go-formflow/pkg/render/template/pongo"
	"github.com/goliatone/go-formflow/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-formflow/pkg/widgets"
)

// Name is the registry name of the HTML renderer.
const Name = "vanilla"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateDir      string
	templateRenderer rendertemplate.TemplateRenderer
	widgets          *widgets.Registry
	components       *components.Registry
	inlineStyles     bool
	stylesheets      []string
	theme            *theme.RendererConfig
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk. Files missing
// from the directory still come from the bundled templates.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templateDir = path
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithWidgets swaps the registry deciding which widget renders a question.
func WithWidgets(registry *widgets.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.widgets = registry
		}
	}
}

// WithComponents swaps the registry holding widget markup renderers.
func WithComponents(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.components = registry
		}
	}
}

// WithoutDefaultStyles drops the inline bundled stylesheet.
func WithoutDefaultStyles() Option {
	return func(cfg *config) {
		cfg.inlineStyles = false
	}
}

// WithStylesheet links an extra stylesheet from the document head.
func WithStylesheet(href string) Option {
	return func(cfg *config) {
		if href != "" {
			cfg.stylesheets = append(cfg.stylesheets, href)
		}
	}
}

// WithTheme applies a resolved go-theme configuration to every render:
// partials replace widget and field templates, tokens become CSS custom
// properties and the "vanilla.stylesheet" asset is linked from the head.
// RenderOptions.Theme overrides it per request.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		c.theme = cfg
	}
}

// Renderer renders engine screens as complete HTML documents.
type Renderer struct {
	templates   rendertemplate.TemplateRenderer
	widgets     *widgets.Registry
	components  *components.Registry
	stylesheet  string
	stylesheets []string
	theme       *theme.RendererConfig
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{inlineStyles: true}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.widgets == nil {
		cfg.widgets = widgets.NewRegistry()
	}
	if cfg.components == nil {
		cfg.components = components.NewDefaultRegistry()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := pongo.New(
			pongo.WithDir(cfg.templateDir),
			pongo.WithFS(cfg.templateFS),
			pongo.WithExtension(".tpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	out := &Renderer{
		templates:   renderer,
		widgets:     cfg.widgets,
		components:  cfg.components,
		stylesheets: cfg.stylesheets,
		theme:       cfg.theme,
	}
	if cfg.inlineStyles {
		out.stylesheet = defaultStylesheet()
	}
	return out, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render produces the HTML document of screen. Templated contents
// (preview, review, consent, completion) are emitted as trusted markup.
func (r *Renderer) Render(_ context.Context, screen engine.Screen, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}

	themeCfg := options.Theme
	if themeCfg == nil {
		themeCfg = r.theme
	}
	var partials map[string]string
	if themeCfg != nil {
		partials = themeCfg.Partials
	}

	fields := newFieldRenderer(r.templates, r.widgets, r.components, screen.Focus, partials)
	fieldsHTML, err := fields.renderAll(screen.Fields)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: %w", err)
	}

	hidden := render.MergeHiddenFields(options.Hidden, render.PageToken(screen.Code))
	stylesheets := append(append([]string(nil), r.stylesheets...), r.components.Stylesheets(fields.used())...)
	themed := themePayload(themeCfg)
	if href, _ := themed["stylesheet"].(string); href != "" {
		stylesheets = append(stylesheets, href)
	}

	payload := map[string]any{
		"classes":       classNames(),
		"screen":        screenPayload(screen),
		"fields":        fieldsHTML,
		"messages":      render.MergeMessages(options.Messages),
		"action":        options.Action,
		"method":        options.MethodOrDefault(),
		"hidden_fields": render.SortedHiddenFields(hidden),
		"stylesheet":    r.stylesheet,
		"stylesheets":   stylesheets,
		"theme":         themed,
	}

	result, err := r.templates.RenderTemplate(string(screen.Kind), payload)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}
