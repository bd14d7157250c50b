package engine

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/navigation"
	"github.com/goliatone/go-formflow/pkg/persistence"
	"github.com/goliatone/go-formflow/pkg/validation"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// Option customises a Session.
type Option func(*Session)

// WithNavigator sets the port that holds the page parameter. Defaults to an
// empty navigation.History.
func WithNavigator(port navigation.Port) Option {
	return func(s *Session) {
		if port != nil {
			s.nav = port
		}
	}
}

// WithPersistence sets the snapshot adapter. Defaults to an in-memory store.
func WithPersistence(adapter *persistence.Adapter) Option {
	return func(s *Session) {
		if adapter != nil {
			s.store = adapter
		}
	}
}

// WithValidator shares a validation engine between sessions of one form.
func WithValidator(validator *validation.Engine) Option {
	return func(s *Session) {
		if validator != nil {
			s.validator = validator
		}
	}
}

// WithResolver swaps the follow-up visibility rule.
func WithResolver(resolver visibility.Resolver) Option {
	return func(s *Session) {
		if resolver != nil {
			s.resolver = resolver
		}
	}
}

// WithResponses seeds the answers used when nothing was persisted.
func WithResponses(responses model.Responses) Option {
	return func(s *Session) {
		if responses != nil {
			s.responses = responses.Clone()
		}
	}
}

// WithOnSubmit registers the callback invoked once with the final answers.
func WithOnSubmit(fn func(model.Responses)) Option {
	return func(s *Session) {
		s.onSubmit = fn
	}
}

// WithOnStepChange registers the callback invoked after every navigation.
func WithOnStepChange(fn func(code string, snapshot model.Responses)) Option {
	return func(s *Session) {
		s.onStep = fn
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}
