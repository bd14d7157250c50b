package server

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/storage"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// Option customises a Server.
type Option func(*Server)

// WithStore sets the durable store behind every session's snapshot.
func WithStore(store storage.Store) Option {
	return func(s *Server) {
		if store != nil {
			s.store = store
		}
	}
}

// WithValidator shares a prebuilt validation engine.
func WithValidator(validator *validation.Engine) Option {
	return func(s *Server) {
		if validator != nil {
			s.validator = validator
		}
	}
}

// WithRenderers swaps the renderer registry. name selects the default
// renderer; empty keeps the registry default.
func WithRenderers(registry *render.Registry, name string) Option {
	return func(s *Server) {
		if registry != nil {
			s.renderers = registry
		}
		s.renderer = strings.TrimSpace(name)
	}
}

// WithThemeSelector resolves a go-theme selection for every rendered screen.
// name and variant are the defaults; ?theme= and ?variant= override them per
// request.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) Option {
	return func(s *Server) {
		s.themes = selector
		s.themeName = strings.TrimSpace(name)
		s.variant = strings.TrimSpace(variant)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracerProvider enables request and render spans.
func WithTracerProvider(provider trace.TracerProvider, service string) Option {
	return func(s *Server) {
		s.tracing = provider
		if service = strings.TrimSpace(service); service != "" {
			s.service = service
		}
	}
}

// WithCookie names the session cookie and its lifetime. secure marks it
// HTTPS-only.
func WithCookie(name string, maxAge time.Duration, secure bool) Option {
	return func(s *Server) {
		if name = strings.TrimSpace(name); name != "" {
			s.cookieName = name
		}
		if maxAge > 0 {
			s.cookieMaxAge = maxAge
		}
		s.secure = secure
	}
}

// WithSessionTTL bounds how long an idle session stays in memory. Evicted
// sessions resume from the durable store on the next request.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithMaxUpload caps the size of a multipart post in bytes.
func WithMaxUpload(limit int64) Option {
	return func(s *Server) {
		if limit > 0 {
			s.maxUpload = limit
		}
	}
}

// WithHealthCheck adds a named dependency to GET /healthz.
func WithHealthCheck(name string, check HealthChecker) Option {
	return func(s *Server) {
		if check != nil {
			s.health = append(s.health, namedCheck{name: name, check: check})
		}
	}
}

// WithOnSubmit receives each completed submission once.
func WithOnSubmit(fn func(model.Submission)) Option {
	return func(s *Server) {
		s.onSubmit = fn
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBaseContext sets the context that outlives requests. Sessions use it
// for persistence triggered by history events.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Server) {
		if ctx != nil {
			s.baseCtx = ctx
		}
	}
}
