// Package validation evaluates the per-question rules of a page: required,
// pattern, numeric bounds and length bounds, in that order, stopping at the
// first failure for each question.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// Result is the outcome of validating one page. Errors always carries an entry
// for the page, empty when every visible question passed.
type Result struct {
	Page   string
	Errors model.ErrorMap
	// ConfigErrors lists questions whose configuration could not be applied
	// (for example a pattern that does not compile), keyed by question code.
	ConfigErrors map[string]string
	Valid        bool
}

// PageErrors returns the messages recorded for the validated page.
func (r Result) PageErrors() map[string]string {
	return r.Errors[r.Page]
}

// Option customises an Engine.
type Option func(*Engine)

// WithResolver swaps the follow-up visibility rule used to decide which nested
// questions are validated.
func WithResolver(resolver visibility.Resolver) Option {
	return func(e *Engine) {
		if resolver != nil {
			e.resolver = resolver
		}
	}
}

// Engine validates answers against question rules. Compiled patterns are
// cached, so one Engine can be shared by every session of a form.
type Engine struct {
	resolver visibility.Resolver

	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
	broken   map[string]error
	issues   []model.Issue
}

// New builds an engine and precompiles every pattern found in cfg. Patterns
// that fail to compile are reported by Issues.
func New(cfg model.FormConfig, opts ...Option) *Engine {
	e := &Engine{
		resolver: visibility.Default,
		patterns: make(map[string]*regexp.Regexp),
		broken:   make(map[string]error),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	for pageIdx, page := range cfg.Pages {
		e.compileTree(page.Questions, fmt.Sprintf("pages[%d].questions", pageIdx))
	}
	return e
}

// Issues returns the configuration defects found while compiling patterns.
func (e *Engine) Issues() []model.Issue {
	if e == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]model.Issue(nil), e.issues...)
}

// Validate checks every visible question on page against responses.
func (e *Engine) Validate(page model.Page, responses model.Responses) Result {
	answers := responses.Page(page.Code)
	pageErrors := make(map[string]string)
	result := Result{
		Page:   page.Code,
		Errors: model.ErrorMap{page.Code: pageErrors},
	}

	lookup := func(code string) (any, bool) {
		value, ok := answers[code]
		return value, ok
	}
	_ = visibility.Walk(page.Questions, lookup, e.resolver, func(node visibility.Node) error {
		q := node.Question
		if msg := e.configError(q); msg != "" {
			if result.ConfigErrors == nil {
				result.ConfigErrors = make(map[string]string)
			}
			result.ConfigErrors[q.Code] = msg
		}
		if msg, ok := e.ValidateQuestion(q, answers[q.Code]); !ok {
			pageErrors[q.Code] = msg
		}
		return nil
	})

	result.Valid = len(pageErrors) == 0
	return result
}

// ValidateQuestion applies the rules of a single question to value and returns
// the failure message. ok is true when value passes.
func (e *Engine) ValidateQuestion(q model.Question, value any) (msg string, ok bool) {
	empty := isEmpty(value)

	if q.Required && empty {
		return orDefault(q.RequiredError, q.Label()+" is required"), false
	}
	if empty {
		return "", true
	}

	if re := e.pattern(q.Pattern); re != nil && !matches(re, value) {
		return orDefault(q.PatternError, q.Label()+" is invalid"), false
	}

	switch {
	case q.Type.IsNumeric():
		n, isNumber := toNumber(value)
		if !isNumber {
			return orDefault(q.PatternError, q.Label()+" must be a number"), false
		}
		if q.Min != nil && n < q.Min.Value {
			return orDefault(q.MinError, fmt.Sprintf("%s must be at least %s", q.Label(), q.Min)), false
		}
		if q.Max != nil && n > q.Max.Value {
			return orDefault(q.MaxError, fmt.Sprintf("%s must be at most %s", q.Label(), q.Max)), false
		}
	case q.Type.IsFreeText():
		text, isText := value.(string)
		if !isText {
			break
		}
		length := float64(utf8.RuneCountInString(text))
		if q.Min != nil && length < q.Min.Value {
			return orDefault(q.MinError, fmt.Sprintf("%s must be at least %s characters", q.Label(), q.Min)), false
		}
		if q.Max != nil && length > q.Max.Value {
			return orDefault(q.MaxError, fmt.Sprintf("%s must be at most %s characters", q.Label(), q.Max)), false
		}
	}
	return "", true
}

func (e *Engine) compileTree(questions []model.Question, prefix string) {
	for idx, q := range questions {
		path := fmt.Sprintf("%s[%d]", prefix, idx)
		if q.Pattern != "" {
			if err := e.compile(q.Pattern); err != nil {
				e.mu.Lock()
				e.issues = append(e.issues, model.Issue{
					Path:    path,
					Message: fmt.Sprintf("question %q: %v", q.Code, err),
				})
				e.mu.Unlock()
			}
		}
		if len(q.FollowUps) > 0 {
			e.compileTree(q.FollowUps, path+".followup_questions")
		}
	}
}

func (e *Engine) compile(pattern string) error {
	e.mu.RLock()
	_, cached := e.patterns[pattern]
	err, failed := e.broken[pattern]
	e.mu.RUnlock()
	if cached {
		return nil
	}
	if failed {
		return err
	}

	re, err := regexp.Compile(pattern)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		err = fmt.Errorf("validation: pattern %q does not compile: %w", pattern, err)
		e.broken[pattern] = err
		return err
	}
	e.patterns[pattern] = re
	return nil
}

// pattern returns the compiled expression or nil when none is configured or
// it does not compile. Broken patterns are skipped.
func (e *Engine) pattern(pattern string) *regexp.Regexp {
	if pattern == "" || e == nil {
		return nil
	}
	if err := e.compile(pattern); err != nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.patterns[pattern]
}

func (e *Engine) configError(q model.Question) string {
	if q.Pattern == "" || e == nil {
		return ""
	}
	if err := e.compile(q.Pattern); err != nil {
		return err.Error()
	}
	return ""
}

func matches(re *regexp.Regexp, value any) bool {
	switch typed := value.(type) {
	case []any:
		for _, item := range typed {
			if !re.MatchString(scalarString(item)) {
				return false
			}
		}
		return true
	case []string:
		for _, item := range typed {
			if !re.MatchString(item) {
				return false
			}
		}
		return true
	default:
		return re.MatchString(scalarString(value))
	}
}

func isEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case []any:
		return len(typed) == 0
	case []string:
		return len(typed) == 0
	case map[string]any:
		return len(typed) == 0
	default:
		return false
	}
}

// toNumber reports false for NaN and infinities: they compare false against
// every bound and cannot be persisted as JSON.
func toNumber(value any) (float64, bool) {
	n, ok := rawNumber(value)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func rawNumber(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case json.Number:
		f, err := typed.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func scalarString(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(typed)
	}
}

func orDefault(override, fallback string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	return fallback
}
