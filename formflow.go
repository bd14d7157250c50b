// Package formflow is the entry point for running multi-page questionnaires:
// load a configuration, open a session, and drive it from a browser or a
// terminal with the bundled renderers.
package formflow

import (
	"io/fs"

	"github.com/goliatone/go-formflow/pkg/engine"
	"github.com/goliatone/go-formflow/pkg/loader"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/renderers/tui"
	"github.com/goliatone/go-formflow/pkg/renderers/vanilla"
)

// FormConfig aliases model.FormConfig.
type FormConfig = model.FormConfig

// Responses aliases model.Responses.
type Responses = model.Responses

// Session aliases engine.Session.
type Session = engine.Session

// Screen aliases engine.Screen.
type Screen = engine.Screen

// RenderOptions describes per-request data passed to renderers.
type RenderOptions = render.RenderOptions

// LoadConfig decodes a JSON or YAML questionnaire. source names the input in
// errors.
func LoadConfig(data []byte, source string, options ...loader.Option) (FormConfig, error) {
	return loader.Load(data, source, options...)
}

// LoadConfigFile reads a questionnaire from disk.
func LoadConfigFile(path string, options ...loader.Option) (FormConfig, error) {
	return loader.LoadFile(path, options...)
}

// LoadConfigFS reads a questionnaire from fsys.
func LoadConfigFS(fsys fs.FS, name string, options ...loader.Option) (FormConfig, error) {
	return loader.LoadFS(fsys, name, options...)
}

// NewSession validates cfg and builds a session. Call Start before
// navigating.
func NewSession(cfg FormConfig, options ...engine.Option) (*Session, error) {
	return engine.New(cfg, options...)
}

// DefaultRenderers registers the HTML renderer (the default) and the plain
// text renderer.
func DefaultRenderers(options ...vanilla.Option) (*render.Registry, error) {
	html, err := vanilla.New(options...)
	if err != nil {
		return nil, err
	}
	registry := render.NewRegistry()
	registry.MustRegister(html)
	registry.MustRegister(tui.NewTextRenderer(nil))
	return registry, nil
}

// NewRunner builds the interactive terminal runner.
func NewRunner(options ...tui.Option) (*tui.Runner, error) {
	return tui.New(options...)
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can reuse
// or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// AssetsFS exposes the bundled stylesheet for hosts that link it instead of
// inlining it.
//
// Typical mount:
//
//	router.StaticFS("/assets", http.FS(formflow.AssetsFS()))
func AssetsFS() fs.FS {
	return vanilla.AssetsFS()
}
