// Package tui walks a questionnaire session in the terminal: each screen is
// printed as text, questions are prompted through a PromptDriver (survey by
// default) and the submitted answers are serialized when the form completes.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/engine"
	"github.com/goliatone/go-formflow/pkg/macro"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/validation"
	"github.com/goliatone/go-formflow/pkg/visibility"
	"github.com/goliatone/go-formflow/pkg/widgets"
)

const (
	choiceBack = "Back"
	choiceSkip = "(no answer)"
)

// Runner drives an engine.Session through a prompt driver.
type Runner struct {
	driver       PromptDriver
	out          io.Writer
	outputFormat OutputFormat
	theme        Theme
	text         *TextRenderer
	widgets      *widgets.Registry
	maxAttempts  int
	logger       *zap.Logger
}

// New constructs a runner with defaults (survey driver on stdout, JSON output).
func New(options ...Option) (*Runner, error) {
	r := &Runner{
		out:          os.Stdout,
		outputFormat: OutputFormatJSON,
		text:         NewTextRenderer(nil),
		widgets:      widgets.NewRegistry(),
		logger:       zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(r.out)
	}
	switch r.outputFormat {
	case OutputFormatJSON, OutputFormatFormURLEncoded, OutputFormatPrettyText:
	default:
		return nil, fmt.Errorf("tui: unknown output format %q", r.outputFormat)
	}
	return r, nil
}

// ContentType reports the serialization format used by Run.
func (r *Runner) ContentType() string {
	return ContentType(r.outputFormat)
}

// Run prompts until the session completes and returns the serialized answers.
// Validation and consent failures are printed and the screen is asked again.
func (r *Runner) Run(ctx context.Context, session *engine.Session) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if session == nil {
		return nil, errors.New("tui: session is required")
	}
	if err := session.Start(ctx); err != nil {
		return nil, err
	}

	attempts := make(map[string]int)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		screen := session.Screen()
		if err := r.show(ctx, screen); err != nil {
			return nil, err
		}

		var err error
		switch screen.Kind {
		case engine.KindComplete:
			return Serialize(session.Responses(), r.outputFormat)
		case engine.KindPreview:
			err = r.runPreview(ctx, session)
		case engine.KindReview:
			err = r.runReview(ctx, session, screen)
		default:
			err = r.runPage(ctx, session, screen)
		}
		if err == nil {
			continue
		}
		if !r.report(ctx, session, err) {
			return nil, err
		}
		attempts[screen.Code]++
		if r.maxAttempts > 0 && attempts[screen.Code] >= r.maxAttempts {
			return nil, fmt.Errorf("%w on %q", ErrTooManyAttempts, screen.Code)
		}
	}
}

func (r *Runner) show(ctx context.Context, screen engine.Screen) error {
	var text string
	if screen.Kind == engine.KindPage {
		text = r.text.Header(screen)
	} else {
		out, err := r.text.Render(ctx, screen, render.RenderOptions{})
		if err != nil {
			return err
		}
		text = string(out)
	}
	return r.info(ctx, strings.TrimRight(text, "\n"))
}

func (r *Runner) runPreview(ctx context.Context, session *engine.Session) error {
	start, err := r.driver.Confirm(ctx, "Start the form?", true)
	if err != nil {
		return err
	}
	if !start {
		return ErrAborted
	}
	return session.Next(ctx)
}

// runPage prompts every visible question of the page. Follow-ups are decided
// from the answer just given because the walk reads answers lazily.
func (r *Runner) runPage(ctx context.Context, session *engine.Session, screen engine.Screen) error {
	page, ok := session.Config().PageByCode(screen.Code)
	if !ok {
		return fmt.Errorf("%w: %q", engine.ErrUnknownPage, screen.Code)
	}

	lookup := func(code string) (any, bool) {
		return session.Value(page.Code, code)
	}
	err := visibility.Walk(page.Questions, lookup, session.Resolver(), func(node visibility.Node) error {
		current, _ := session.Value(page.Code, node.Question.Code)
		value, err := r.prompt(ctx, session.Validator(), node, current)
		if err != nil {
			return err
		}
		return session.UpdateResponse(ctx, page.Code, node.Question.Code, value)
	})
	if err != nil {
		return err
	}

	if screen.HasBack {
		next := "Next"
		if screen.IsLast && !screen.ShowReview {
			next = "Submit"
		}
		back, err := r.choseBack(ctx, "Continue", next)
		if err != nil {
			return err
		}
		if back {
			return session.Back(ctx)
		}
	}
	return session.Next(ctx)
}

func (r *Runner) runReview(ctx context.Context, session *engine.Session, screen engine.Screen) error {
	if screen.RequireConsent {
		agreed, err := r.driver.Confirm(ctx, "Do you agree to the consent above?", screen.Consent)
		if err != nil {
			return err
		}
		session.SetConsent(agreed)
	}

	back, err := r.choseBack(ctx, "Ready to submit?", "Submit")
	if err != nil {
		return err
	}
	if back {
		return session.Back(ctx)
	}
	return session.Submit(ctx)
}

// choseBack offers forward or Back and reports whether Back was picked.
func (r *Runner) choseBack(ctx context.Context, message, forward string) (bool, error) {
	picked, err := r.driver.Choose(ctx, Choice{Message: message, Options: []string{forward, choiceBack}})
	if err != nil {
		return false, err
	}
	return slices.Contains(picked, 1), nil
}

// report prints recoverable failures and reports whether the walk can go on.
func (r *Runner) report(ctx context.Context, session *engine.Session, err error) bool {
	var validationErr *engine.ValidationError
	switch {
	case errors.As(err, &validationErr):
		for _, message := range render.ErrorSummary(session.Screen()) {
			_ = r.fail(ctx, message)
		}
		return true
	case errors.Is(err, engine.ErrConsentRequired):
		_ = r.fail(ctx, session.ConsentError())
		return true
	default:
		return false
	}
}

func (r *Runner) prompt(ctx context.Context, validator *validation.Engine, node visibility.Node, current any) (any, error) {
	q := node.Question
	message := strings.Repeat("  ", node.Depth) + q.Label()
	if q.Required {
		message += " *"
	}
	check := func(value any) error {
		if msg, ok := validator.ValidateQuestion(q, value); !ok {
			return errors.New(msg)
		}
		return nil
	}

	widget, _ := r.widgets.Resolve(q)
	switch widget {
	case widgets.WidgetRadio, widgets.WidgetSelect:
		if len(q.Options) > 0 {
			return r.promptChoice(ctx, q, message, current)
		}
	case widgets.WidgetCheckbox:
		if len(q.Options) > 0 {
			return r.promptMulti(ctx, q, message, current, check)
		}
	case widgets.WidgetTextArea:
		text, err := r.driver.Ask(ctx, Prompt{
			Message:   message,
			Default:   macro.Format(current),
			Help:      q.Hint,
			Multiline: true,
			Check:     func(s string) error { return check(s) },
		})
		if err != nil {
			return nil, err
		}
		return text, nil
	case widgets.WidgetDocument:
		return r.promptDocument(ctx, q, message, current, check)
	}

	parse := parseText
	if q.Type.IsNumeric() {
		parse = parseNumber
	}
	help := q.Hint
	if widget == widgets.WidgetCombobox && len(q.Options) > 0 {
		help = strings.TrimSpace(help + " Suggestions: " + strings.Join(optionValues(q.Options), ", "))
	}
	if q.Placeholder != "" && help == "" {
		help = q.Placeholder
	}
	text, err := r.driver.Ask(ctx, Prompt{
		Message: message,
		Default: macro.Format(current),
		Help:    help,
		Check:   func(s string) error { return check(parse(s)) },
	})
	if err != nil {
		return nil, err
	}
	return parse(text), nil
}

func (r *Runner) promptChoice(ctx context.Context, q model.Question, message string, current any) (any, error) {
	labels := make([]string, 0, len(q.Options)+1)
	var selected []int
	for idx, opt := range q.Options {
		labels = append(labels, opt.DisplayLabel())
		if current != nil && macro.Format(current) == opt.Value {
			selected = append(selected, idx)
		}
	}
	if !q.Required {
		labels = append(labels, choiceSkip)
	}

	picked, err := r.driver.Choose(ctx, Choice{
		Message:  message,
		Options:  labels,
		Selected: selected,
		Help:     q.Hint,
	})
	if err != nil {
		return nil, err
	}
	if len(picked) == 0 || picked[0] < 0 || picked[0] >= len(q.Options) {
		return nil, nil
	}
	return q.Options[picked[0]].Value, nil
}

func (r *Runner) promptMulti(ctx context.Context, q model.Question, message string, current any, check func(any) error) (any, error) {
	labels := make([]string, 0, len(q.Options))
	var selected []int
	for idx, opt := range q.Options {
		labels = append(labels, opt.DisplayLabel())
		if containsValue(current, opt.Value) {
			selected = append(selected, idx)
		}
	}

	for attempt := 1; ; attempt++ {
		picked, err := r.driver.Choose(ctx, Choice{
			Message:  message,
			Options:  labels,
			Selected: selected,
			Help:     q.Hint,
			Multiple: true,
		})
		if err != nil {
			return nil, err
		}
		values := make([]any, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(q.Options) {
				values = append(values, q.Options[idx].Value)
			}
		}
		if err := check(values); err == nil {
			return values, nil
		} else if ferr := r.retry(ctx, attempt, err); ferr != nil {
			return nil, ferr
		}
	}
}

func (r *Runner) promptDocument(ctx context.Context, q model.Question, message string, current any, check func(any) error) (any, error) {
	help := q.Hint
	if len(q.FileTypes) > 0 {
		help = strings.TrimSpace(help + " Allowed: " + strings.Join(q.FileTypes, ", "))
	}
	for attempt := 1; ; attempt++ {
		path, err := r.driver.Ask(ctx, Prompt{Message: message + " (file path)", Help: help})
		if err != nil {
			return nil, err
		}
		path = strings.TrimSpace(path)
		if path == "" && current != nil {
			return current, nil
		}

		value, err := describeDocument(q, path)
		if err == nil {
			err = check(value)
		}
		if err == nil {
			return value, nil
		}
		if ferr := r.retry(ctx, attempt, err); ferr != nil {
			return nil, ferr
		}
	}
}

func (r *Runner) retry(ctx context.Context, attempt int, cause error) error {
	if r.maxAttempts > 0 && attempt >= r.maxAttempts {
		return fmt.Errorf("%w: %v", ErrTooManyAttempts, cause)
	}
	return r.fail(ctx, cause.Error())
}

func (r *Runner) info(ctx context.Context, msg string) error {
	if msg == "" {
		return nil
	}
	return r.driver.Print(ctx, r.theme.InfoPrefix+msg)
}

func (r *Runner) fail(ctx context.Context, msg string) error {
	prefix := r.theme.ErrorPrefix
	if prefix == "" {
		prefix = "! "
	}
	return r.driver.Print(ctx, prefix+msg)
}

// describeDocument checks a local file against the question's type and size
// limits and returns the answer recorded for it.
func describeDocument(q model.Question, path string) (any, error) {
	if path == "" {
		return nil, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s", path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	answer, err := model.DocumentAnswer(q, path, "", info.Size())
	if err != nil {
		return nil, err
	}
	return answer, nil
}

func parseText(s string) any {
	return s
}

// parseNumber leaves unparsable and non-finite input as text for validation
// to reject.
func parseNumber(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return trimmed
	}
	return n
}

func containsValue(current any, want string) bool {
	switch typed := current.(type) {
	case []any:
		for _, item := range typed {
			if macro.Format(item) == want {
				return true
			}
		}
	case []string:
		for _, item := range typed {
			if item == want {
				return true
			}
		}
	case nil:
	default:
		return macro.Format(typed) == want
	}
	return false
}

func optionValues(options []model.Option) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		out = append(out, opt.Value)
	}
	return out
}
