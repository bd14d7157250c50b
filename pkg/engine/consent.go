package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/model"
)

// ConsentMessage is shown when submitting without consent.
const ConsentMessage = "You must agree to the consent before submitting."

// ConsentFocus is the Focus target of the consent checkbox.
const ConsentFocus = "_consent"

// SetConsent records the consent checkbox state. Any toggle clears the
// pending consent error.
func (s *Session) SetConsent(checked bool) {
	s.consent = checked
	s.consentErr = ""
	if s.focus == ConsentFocus {
		s.focus = ""
	}
}

// Consent reports the consent checkbox state.
func (s *Session) Consent() bool {
	return s.consent
}

// ConsentError returns the pending consent error, if any.
func (s *Session) ConsentError() string {
	return s.consentErr
}

func (s *Session) submitReview(ctx context.Context) error {
	if s.cfg.RequireConsent && !s.consent {
		s.consentErr = ConsentMessage
		s.focus = ConsentFocus
		s.logger.Debug("engine: submission blocked by consent", zap.String("page", model.PageReview))
		return ErrConsentRequired
	}
	s.finish(ctx)
	return nil
}
