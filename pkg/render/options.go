package render

import theme "github.com/goliatone/go-theme"

// RenderOptions describe per-request data that renderers can use without
// touching session state.
type RenderOptions struct {
	// Action is the URL the rendered form posts to. Empty keeps the current URL.
	Action string
	// Method defaults to POST.
	Method string
	// Hidden carries extra inputs such as a CSRF token.
	Hidden map[string]string
	// Messages are form-level notices shown above the screen (for example a
	// storage failure the host decided to surface).
	Messages []string
	// Theme overrides the renderer's configured theme for this request.
	Theme *theme.RendererConfig
}

// MethodOrDefault returns the configured method or POST.
func (o RenderOptions) MethodOrDefault() string {
	if o.Method == "" {
		return "POST"
	}
	return o.Method
}
