// Package pongo renders questionnaire templates with pongo2. Template data is
// handed over unconverted: maps become the template context and structs are
// resolved by field name.
package pongo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formflow/pkg/macro"
	"github.com/goliatone/go-formflow/pkg/render/template"
)

const defaultExtension = ".tpl"

// Option configures an Engine.
type Option func(*options)

type options struct {
	dir     string
	files   fs.FS
	ext     string
	globals map[string]any
}

// WithFS loads templates from files.
func WithFS(files fs.FS) Option {
	return func(o *options) {
		o.files = files
	}
}

// WithDir loads templates from a directory on disk. Templates found in the
// directory win over those of WithFS, which lets hosts override single files.
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = strings.TrimSpace(dir)
	}
}

// WithExtension sets the suffix appended to template names that lack it.
func WithExtension(ext string) Option {
	return func(o *options) {
		ext = strings.TrimSpace(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if ext != "" {
			o.ext = ext
		}
	}
}

// WithGlobals exposes values to every template.
func WithGlobals(values map[string]any) Option {
	return func(o *options) {
		if o.globals == nil {
			o.globals = make(map[string]any, len(values))
		}
		for key, value := range values {
			o.globals[key] = value
		}
	}
}

// Engine is a pongo2 template set with a parse cache. It is safe for
// concurrent use.
type Engine struct {
	set *pongo2.TemplateSet
	ext string

	mu     sync.RWMutex
	parsed map[string]*pongo2.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)

func New(opts ...Option) (*Engine, error) {
	o := options{ext: defaultExtension}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	var loaders []pongo2.TemplateLoader
	if o.dir != "" {
		local, err := pongo2.NewLocalFileSystemLoader(o.dir)
		if err != nil {
			return nil, fmt.Errorf("pongo: template dir: %w", err)
		}
		loaders = append(loaders, local)
	}
	if o.files != nil {
		loaders = append(loaders, pongo2.NewFSLoader(o.files))
	}
	if len(loaders) == 0 {
		return nil, errors.New("pongo: no template source configured")
	}

	registerFilters()
	e := &Engine{
		set:    pongo2.NewSet("formflow", loaders...),
		ext:    o.ext,
		parsed: make(map[string]*pongo2.Template),
	}
	if err := e.GlobalContext(o.globals); err != nil {
		return nil, err
	}
	return e, nil
}

// RenderTemplate executes the named template. The extension is appended when
// name lacks it.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if !strings.HasSuffix(name, e.ext) {
		name += e.ext
	}
	tmpl, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, name, data, out)
}

// RenderString parses content and executes it. Inline templates are not
// cached.
func (e *Engine) RenderString(content string, data any, out ...io.Writer) (string, error) {
	tmpl, err := e.set.FromString(content)
	if err != nil {
		return "", fmt.Errorf("pongo: parse inline template: %w", err)
	}
	return e.execute(tmpl, "inline", data, out)
}

// RegisterFilter adds a filter. pongo2 filters are process-wide, so a name
// can only be registered once.
func (e *Engine) RegisterFilter(name string, fn func(input, param any) (any, error)) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("pongo: filter needs a name and a function")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("pongo: filter %q already registered", name)
	}
	return pongo2.RegisterFilter(name, func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil {
			arg = param.Interface()
		}
		result, err := fn(in.Interface(), arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	})
}

// GlobalContext merges values into the globals of every template.
func (e *Engine) GlobalContext(values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set.Globals == nil {
		e.set.Globals = pongo2.Context{}
	}
	e.set.Globals.Update(pongo2.Context(values))
	return nil
}

func (e *Engine) lookup(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.parsed[name]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("pongo: load %q: %w", name, err)
	}
	e.mu.Lock()
	e.parsed[name] = tmpl
	e.mu.Unlock()
	return tmpl, nil
}

func (e *Engine) execute(tmpl *pongo2.Template, name string, data any, out []io.Writer) (string, error) {
	ctx, err := contextOf(data)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	e.mu.RLock()
	err = tmpl.ExecuteWriter(ctx, &buf)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("pongo: execute %q: %w", name, err)
	}

	for _, w := range out {
		if _, err := w.Write(buf.Bytes()); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func contextOf(data any) (pongo2.Context, error) {
	switch typed := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return typed, nil
	case map[string]any:
		return pongo2.Context(typed), nil
	default:
		return nil, fmt.Errorf("pongo: template data must be a map, got %T", data)
	}
}

var registerOnce sync.Once

// registerFilters installs the answer filters used by the widget templates:
// answer prints a recorded value the way expanded content shows it, and
// contains_value reports whether a list or scalar answer holds the parameter.
func registerFilters() {
	registerOnce.Do(func() {
		if !pongo2.FilterExists("answer") {
			_ = pongo2.RegisterFilter("answer", filterAnswer)
		}
		if !pongo2.FilterExists("contains_value") {
			_ = pongo2.RegisterFilter("contains_value", filterContainsValue)
		}
	})
}

func filterAnswer(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in == nil || in.IsNil() {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(macro.Format(in.Interface())), nil
}

func filterContainsValue(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in == nil || in.IsNil() || param == nil {
		return pongo2.AsValue(false), nil
	}
	want := param.String()
	switch answer := in.Interface().(type) {
	case []any:
		for _, item := range answer {
			if macro.Format(item) == want {
				return pongo2.AsValue(true), nil
			}
		}
		return pongo2.AsValue(false), nil
	case []string:
		for _, item := range answer {
			if item == want {
				return pongo2.AsValue(true), nil
			}
		}
		return pongo2.AsValue(false), nil
	default:
		return pongo2.AsValue(macro.Format(answer) == want), nil
	}
}
