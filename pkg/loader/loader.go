// Package loader decodes questionnaire configurations from JSON or YAML
// documents, applies decorators and checks the structural invariants the
// engine depends on.
package loader

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Option configures a load call.
type Option func(*config)

type config struct {
	decorators []model.Decorator
	skipChecks bool
}

// WithDecorators appends decorators applied after decoding, in order. The
// built-in model.Normalize decorator always runs first.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(cfg *config) {
		for _, d := range decorators {
			if d != nil {
				cfg.decorators = append(cfg.decorators, d)
			}
		}
	}
}

// WithoutValidation skips model.Validate. Intended for tooling that wants to
// report issues itself.
func WithoutValidation() Option {
	return func(cfg *config) {
		cfg.skipChecks = true
	}
}

// Load decodes data as JSON when possible and falls back to YAML. source is
// only used in error messages.
func Load(data []byte, source string, options ...Option) (model.FormConfig, error) {
	cfg := config{decorators: []model.Decorator{model.Normalize}}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	form, err := parseDocument(data, source)
	if err != nil {
		return model.FormConfig{}, err
	}

	for _, decorator := range cfg.decorators {
		if err := decorator.Decorate(&form); err != nil {
			return model.FormConfig{}, fmt.Errorf("loader: decorate %s: %w", source, err)
		}
	}

	if !cfg.skipChecks {
		if err := model.Validate(form); err != nil {
			return model.FormConfig{}, fmt.Errorf("loader: %s: %w", source, err)
		}
	}
	return form, nil
}

// LoadFile reads and decodes a configuration file from disk.
func LoadFile(path string, options ...Option) (model.FormConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FormConfig{}, fmt.Errorf("loader: read %s: %w", path, err)
	}
	return Load(data, path, options...)
}

// LoadFS reads and decodes a configuration from fsys.
func LoadFS(fsys fs.FS, name string, options ...Option) (model.FormConfig, error) {
	if fsys == nil {
		return model.FormConfig{}, fmt.Errorf("loader: filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return model.FormConfig{}, fmt.Errorf("loader: read %s: %w", name, err)
	}
	return Load(data, name, options...)
}

func parseDocument(data []byte, source string) (model.FormConfig, error) {
	var form model.FormConfig
	if len(strings.TrimSpace(string(data))) == 0 {
		return model.FormConfig{}, fmt.Errorf("loader: file %s is empty", source)
	}

	if isYAMLSource(source) {
		if err := yaml.Unmarshal(data, &form); err != nil {
			return model.FormConfig{}, fmt.Errorf("loader: parse %s: %w", source, err)
		}
		return form, nil
	}

	jsonErr := json.Unmarshal(data, &form)
	if jsonErr == nil {
		return form, nil
	}

	form = model.FormConfig{}
	if err := yaml.Unmarshal(data, &form); err == nil {
		return form, nil
	}

	return model.FormConfig{}, fmt.Errorf("loader: parse %s: invalid JSON or YAML: %w", source, jsonErr)
}

func isYAMLSource(source string) bool {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
