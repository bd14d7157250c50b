// Package engine drives one questionnaire session: it resolves the active
// screen, records answers, validates pages before advancing, gates the final
// submission behind consent and keeps the persistence snapshot current.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/navigation"
	"github.com/goliatone/go-formflow/pkg/persistence"
	"github.com/goliatone/go-formflow/pkg/validation"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

var errStopWalk = errors.New("engine: stop walk")

// Session is the state of one person filling one form. It is not safe for
// concurrent use; hosts serving parallel requests must serialise access.
type Session struct {
	cfg       model.FormConfig
	nav       navigation.Port
	store     *persistence.Adapter
	validator *validation.Engine
	resolver  visibility.Resolver
	logger    *zap.Logger

	onSubmit func(model.Responses)
	onStep   func(string, model.Responses)

	responses  model.Responses
	errors     model.ErrorMap
	savedCode  string
	consent    bool
	consentErr string
	focus      string
	submitted  bool
	started    bool

	unsubscribe func()
}

// New validates cfg and builds a session. Call Start before navigating.
func New(cfg model.FormConfig, opts ...Option) (*Session, error) {
	if err := model.Validate(cfg); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	s := &Session{
		cfg:       cfg,
		resolver:  visibility.Default,
		logger:    zap.NewNop(),
		responses: model.Responses{},
		errors:    model.ErrorMap{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.nav == nil {
		s.nav = navigation.NewHistory("")
	}
	if s.store == nil {
		s.store = persistence.New(nil)
	}
	if s.validator == nil {
		s.validator = validation.New(cfg, validation.WithResolver(s.resolver))
	}
	return s, nil
}

// Start restores persisted answers, settles the initial screen and begins
// listening for history events. When the page parameter is missing or not
// usable, the resolved screen replaces it and the step callback fires.
func (s *Session) Start(ctx context.Context) error {
	if s.started {
		return nil
	}
	s.started = true

	for _, issue := range s.validator.Issues() {
		s.logger.Warn("engine: configuration issue",
			zap.String("form", s.cfg.Slug),
			zap.String("path", issue.Path),
			zap.String("message", issue.Message),
		)
	}

	if stored, ok := s.store.Load(ctx); ok {
		s.responses = stored
	}
	if code, ok := s.store.LoadPageCode(ctx); ok {
		s.savedCode = code
	}

	s.unsubscribe = s.nav.OnPopState(func(string) {
		s.handlePopState(ctx)
	})

	code := s.CurrentPage()
	if param, ok := s.nav.Param(); !ok || param != code {
		s.nav.Replace(code)
		s.notify(code)
	}
	s.persist(ctx)

	s.logger.Debug("engine: session started",
		zap.String("form", s.cfg.Slug),
		zap.String("page", code),
	)
	return nil
}

// Close stops listening for history events.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Config returns the form configuration.
func (s *Session) Config() model.FormConfig {
	return s.cfg
}

// Validator returns the validation engine used by the session.
func (s *Session) Validator() *validation.Engine {
	return s.validator
}

// Resolver returns the follow-up visibility rule used by the session.
func (s *Session) Resolver() visibility.Resolver {
	return s.resolver
}

// CurrentPage resolves the active screen: the page parameter when it names a
// reachable screen, then the persisted page, then the preview screen when
// enabled, then the first page. After submission it is always the completion
// screen.
func (s *Session) CurrentPage() string {
	if s.submitted {
		return model.PageComplete
	}
	if code, ok := s.nav.Param(); ok && s.reachable(code) {
		return code
	}
	if s.savedCode != "" && s.reachable(s.savedCode) {
		return s.savedCode
	}
	if s.cfg.ShowPreview {
		return model.PagePreview
	}
	first, _ := s.cfg.FirstPage()
	return first.Code
}

// Submitted reports whether the final submission happened.
func (s *Session) Submitted() bool {
	return s.submitted
}

// Responses returns a copy of every answer recorded so far.
func (s *Session) Responses() model.Responses {
	return s.responses.Clone()
}

// Value returns one recorded answer.
func (s *Session) Value(pageCode, questionCode string) (any, bool) {
	return s.responses.Get(pageCode, questionCode)
}

// Errors returns a copy of the messages from the last validation pass.
func (s *Session) Errors() model.ErrorMap {
	out := make(model.ErrorMap, len(s.errors))
	for page, messages := range s.errors {
		copied := make(map[string]string, len(messages))
		for code, msg := range messages {
			copied[code] = msg
		}
		out[page] = copied
	}
	return out
}

// Focus names what the host should focus: ConsentFocus, the code of the first
// invalid question, or empty.
func (s *Session) Focus() string {
	return s.focus
}

// UpdateResponse records value as the answer to a question of pageCode and
// snapshots the session. Follow-up answers use the follow-up's own code.
func (s *Session) UpdateResponse(ctx context.Context, pageCode, questionCode string, value any) error {
	if s.submitted {
		return ErrCompleted
	}
	page, ok := s.cfg.PageByCode(pageCode)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPage, pageCode)
	}
	if _, ok := page.FindQuestion(questionCode); !ok {
		return fmt.Errorf("%w: %q on page %q", ErrUnknownQuestion, questionCode, pageCode)
	}

	s.responses.Set(pageCode, questionCode, value)
	s.persist(ctx)
	return nil
}

// Validate runs the validation engine on the current page without navigating
// and stores the resulting messages.
func (s *Session) Validate() validation.Result {
	page, ok := s.cfg.PageByCode(s.CurrentPage())
	if !ok {
		return validation.Result{Valid: true, Errors: model.ErrorMap{}}
	}
	return s.applyValidation(page)
}

// Next advances from the current screen. On a page the answers are validated
// first; a failure returns a *ValidationError and keeps the page. Past the
// last page the session moves to the review screen when enabled, otherwise it
// submits. On the preview screen Next starts the form, and on the review
// screen it submits through the consent gate.
func (s *Session) Next(ctx context.Context) error {
	if s.submitted {
		return ErrCompleted
	}
	current := s.CurrentPage()
	switch current {
	case model.PagePreview:
		first, _ := s.cfg.FirstPage()
		s.navigate(ctx, first.Code)
		return nil
	case model.PageReview:
		return s.submitReview(ctx)
	}

	page, ok := s.cfg.PageByCode(current)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPage, current)
	}
	if result := s.applyValidation(page); !result.Valid {
		s.logger.Debug("engine: validation failed",
			zap.String("page", page.Code),
			zap.Int("errors", len(result.PageErrors())),
		)
		return &ValidationError{Result: result}
	}

	idx := s.cfg.PageIndex(current)
	switch {
	case idx+1 < len(s.cfg.Pages):
		s.navigate(ctx, s.cfg.Pages[idx+1].Code)
	case s.cfg.ShowReview:
		s.navigate(ctx, model.PageReview)
	default:
		s.finish(ctx)
	}
	return nil
}

// Submit is Next under the name hosts use for the final button.
func (s *Session) Submit(ctx context.Context) error {
	return s.Next(ctx)
}

// Back retreats one screen without validating.
func (s *Session) Back(ctx context.Context) error {
	if s.submitted {
		return ErrCompleted
	}
	current := s.CurrentPage()
	switch current {
	case model.PagePreview:
		return ErrAtStart
	case model.PageReview:
		last, _ := s.cfg.LastPage()
		s.navigate(ctx, last.Code)
		return nil
	}

	idx := s.cfg.PageIndex(current)
	switch {
	case idx > 0:
		s.navigate(ctx, s.cfg.Pages[idx-1].Code)
	case s.cfg.ShowPreview:
		s.navigate(ctx, model.PagePreview)
	default:
		return ErrAtStart
	}
	return nil
}

// GoTo jumps to code without validating. The completion screen can only be
// reached by submitting.
func (s *Session) GoTo(ctx context.Context, code string) error {
	if s.submitted {
		return ErrCompleted
	}
	if code == model.PageComplete || !s.reachable(code) {
		return fmt.Errorf("%w: %q", ErrUnknownPage, code)
	}
	s.navigate(ctx, code)
	return nil
}

func (s *Session) reachable(code string) bool {
	switch code {
	case model.PagePreview:
		return s.cfg.ShowPreview
	case model.PageReview:
		return s.cfg.ShowReview
	case model.PageComplete:
		return s.submitted
	default:
		return s.cfg.PageIndex(code) >= 0
	}
}

func (s *Session) applyValidation(page model.Page) validation.Result {
	result := s.validator.Validate(page, s.responses)
	s.errors = result.Errors
	s.focus = ""
	if !result.Valid {
		s.focus = firstInvalid(page, s.responses, s.resolver, result.PageErrors())
	}
	return result
}

func (s *Session) navigate(ctx context.Context, code string) {
	from := s.CurrentPage()
	s.nav.Push(code)
	if code != model.PageComplete {
		s.persist(ctx)
	}
	s.logger.Debug("engine: transition", zap.String("from", from), zap.String("to", code))
	s.notify(code)
}

// handlePopState follows a history move. After submission the completion
// screen is terminal: a move away from it is rewritten back in place.
func (s *Session) handlePopState(ctx context.Context) {
	if s.submitted {
		if param, ok := s.nav.Param(); !ok || param != model.PageComplete {
			s.nav.Replace(model.PageComplete)
		}
		s.notify(model.PageComplete)
		return
	}
	code := s.CurrentPage()
	s.persist(ctx)
	s.notify(code)
}

func (s *Session) notify(code string) {
	if s.onStep != nil {
		s.onStep(code, s.responses.Clone())
	}
}

// persist snapshots the answers and, on a real page, its id and code. The
// saved code becomes the fallback for unusable page parameters.
func (s *Session) persist(ctx context.Context) {
	if s.submitted {
		return
	}
	var pageID, pageCode string
	if page, ok := s.cfg.PageByCode(s.CurrentPage()); ok {
		pageID, pageCode = page.ID.String(), page.Code
		s.savedCode = pageCode
	}
	s.store.Save(ctx, s.responses, pageID, pageCode)
}

// finish performs the final submission: clear the snapshot, hand the answers
// to the submit callback and show the completion screen.
func (s *Session) finish(ctx context.Context) {
	if s.submitted {
		return
	}
	s.submitted = true
	s.store.Clear(ctx)

	snapshot := s.responses.Clone()
	s.logger.Info("engine: form submitted",
		zap.String("form", s.cfg.Slug),
		zap.Int("pages", len(snapshot)),
	)
	if s.onSubmit != nil {
		s.onSubmit(snapshot)
	}
	s.navigate(ctx, model.PageComplete)
}

func firstInvalid(page model.Page, responses model.Responses, resolver visibility.Resolver, errs map[string]string) string {
	answers := responses.Page(page.Code)
	var first string
	lookup := func(code string) (any, bool) {
		value, ok := answers[code]
		return value, ok
	}
	_ = visibility.Walk(page.Questions, lookup, resolver, func(node visibility.Node) error {
		if _, bad := errs[node.Question.Code]; bad {
			first = node.Question.Code
			return errStopWalk
		}
		return nil
	})
	return first
}
