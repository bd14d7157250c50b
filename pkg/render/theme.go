package render

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"path"
	"slices"
	"strings"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

// ErrNoTheme is returned when a selector resolves without a manifest.
var ErrNoTheme = errors.New("render: theme selection has no manifest")

// ResolveTheme asks selector for name and variant and flattens the answer
// into renderer configuration. Blank arguments let the selector pick its
// defaults.
func ResolveTheme(selector theme.ThemeSelector, name, variant string, fallbacks map[string]string) (*theme.RendererConfig, error) {
	if selector == nil {
		return nil, nil
	}
	selection, err := selector.Select(strings.TrimSpace(name), strings.TrimSpace(variant))
	if err != nil {
		return nil, fmt.Errorf("render: select theme %q: %w", name, err)
	}
	return ThemeConfig(selection, fallbacks)
}

// ThemeConfig flattens selection. Variant tokens, templates and asset files
// win over the manifest's; fallbacks fill partial keys neither defines. Every
// token is also exposed as a CSS custom property named "--" + token.
func ThemeConfig(selection *theme.Selection, fallbacks map[string]string) (*theme.RendererConfig, error) {
	if selection == nil || selection.Manifest == nil {
		return nil, ErrNoTheme
	}
	manifest := selection.Manifest
	variant, hasVariant := manifest.Variants[selection.Variant]

	partials := maps.Clone(fallbacks)
	if partials == nil {
		partials = map[string]string{}
	}
	maps.Copy(partials, manifest.Templates)

	tokens := maps.Clone(manifest.Tokens)
	if tokens == nil {
		tokens = map[string]string{}
	}

	prefix := manifest.Assets.Prefix
	files := maps.Clone(manifest.Assets.Files)
	if files == nil {
		files = map[string]string{}
	}

	if hasVariant {
		maps.Copy(partials, variant.Templates)
		maps.Copy(tokens, variant.Tokens)
		maps.Copy(files, variant.Assets.Files)
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+key] = value
	}

	name := selection.Theme
	if name == "" {
		name = manifest.Name
	}
	return &theme.RendererConfig{
		Theme:    name,
		Variant:  selection.Variant,
		Tokens:   tokens,
		CSSVars:  cssVars,
		Partials: partials,
		AssetURL: assetResolver(prefix, files),
	}, nil
}

func assetResolver(prefix string, files map[string]string) func(string) string {
	return func(key string) string {
		file, ok := files[key]
		if !ok || file == "" {
			return ""
		}
		if prefix == "" || strings.Contains(file, "://") || strings.HasPrefix(file, "/") {
			return file
		}
		if strings.Contains(prefix, "://") {
			return strings.TrimRight(prefix, "/") + "/" + file
		}
		return path.Join(prefix, file)
	}
}

// CSSVarsStyle renders vars as declarations sorted by name, ready for a
// :root rule.
func CSSVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	var builder strings.Builder
	for _, key := range slices.Sorted(maps.Keys(vars)) {
		if builder.Len() > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(key)
		builder.WriteString(": ")
		builder.WriteString(vars[key])
		builder.WriteByte(';')
	}
	return builder.String()
}

// ReadThemeManifest decodes a YAML (or JSON) theme manifest.
func ReadThemeManifest(r io.Reader) (*theme.Manifest, error) {
	var manifest theme.Manifest
	if err := yaml.NewDecoder(r).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("render: decode theme manifest: %w", err)
	}
	if strings.TrimSpace(manifest.Name) == "" {
		return nil, errors.New("render: theme manifest has no name")
	}
	return &manifest, nil
}

// SingleTheme serves one manifest. A requested variant the manifest lacks
// falls back to variant; any theme name resolves to the manifest.
func SingleTheme(manifest *theme.Manifest, variant string) theme.ThemeSelector {
	return singleTheme{manifest: manifest, variant: strings.TrimSpace(variant)}
}

type singleTheme struct {
	manifest *theme.Manifest
	variant  string
}

func (s singleTheme) Select(_ string, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if s.manifest == nil {
		return nil, ErrNoTheme
	}
	if _, ok := s.manifest.Variants[variant]; !ok {
		variant = s.variant
	}
	return &theme.Selection{Theme: s.manifest.Name, Variant: variant, Manifest: s.manifest}, nil
}
