package tui

import (
	"io"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/widgets"
)

// OutputFormat controls how submitted answers are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits the response map as JSON.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits page.question=value pairs.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme captures optional message prefixes the runner applies when printing.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures the terminal runner.
type Option func(*Runner)

// WithPromptDriver overrides the prompt driver used by the runner.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Runner) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Runner) {
		r.theme = theme
	}
}

// WithOutput directs screen text printed by the default driver.
func WithOutput(out io.Writer) Option {
	return func(r *Runner) {
		if out != nil {
			r.out = out
		}
	}
}

// WithPolicy swaps the sanitizer used to turn templated markup into text.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(r *Runner) {
		if policy != nil {
			r.text.policy = policy
		}
	}
}

// WithWidgets swaps the registry deciding how each question is prompted.
func WithWidgets(registry *widgets.Registry) Option {
	return func(r *Runner) {
		if registry != nil {
			r.widgets = registry
		}
	}
}

// WithMaxAttempts bounds how many times one screen is retried after a
// validation or consent failure. Zero means unlimited.
func WithMaxAttempts(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.maxAttempts = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}
