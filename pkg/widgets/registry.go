package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Built-in widget identifiers exposed by the registry. Most match the question
// type they render.
const (
	WidgetText     = "text"
	WidgetTextArea = "textarea"
	WidgetNumber   = "number"
	WidgetEmail    = "email"
	WidgetPhone    = "phone"
	WidgetDate     = "date"
	WidgetRadio    = "radio"
	WidgetCheckbox = "checkbox"
	WidgetCombobox = "combobox"
	WidgetDocument = "document"
	WidgetSelect   = "select"
)

// SelectThreshold is the option count above which radio questions render as a
// select list.
const SelectThreshold = 6

// Matcher decides whether a widget renderer should handle the supplied
// question.
type Matcher func(question model.Question) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widget renderers for questions based on an explicit widget
// name or registered matchers. Higher priority wins; ties fall back to
// registration order. An empty registry never resolves a widget.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in widget matchers
// registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority. Higher
// priority values take precedence.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// RegisterType binds a question type to a widget at the default priority.
func (r *Registry) RegisterType(questionType model.QuestionType, name string) {
	r.Register(name, 0, func(q model.Question) bool {
		return q.Type == questionType
	})
}

// Resolve returns the widget name for a question. An explicit Widget on the
// question is honoured before matcher evaluation.
func (r *Registry) Resolve(question model.Question) (string, bool) {
	if explicit := strings.TrimSpace(question.Widget); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(question) {
			return entry.name, true
		}
	}
	return "", false
}

// Decorate implements model.Decorator, recording the resolved widget on every
// question (follow-ups included) that does not name one already.
func (r *Registry) Decorate(form *model.FormConfig) error {
	if r == nil || form == nil {
		return nil
	}
	for i := range form.Pages {
		r.decorateQuestions(form.Pages[i].Questions)
	}
	return nil
}

func (r *Registry) decorateQuestions(questions []model.Question) {
	for i := range questions {
		q := &questions[i]
		if strings.TrimSpace(q.Widget) == "" {
			if widget, ok := r.Resolve(*q); ok {
				q.Widget = widget
			}
		}
		if len(q.FollowUps) > 0 {
			r.decorateQuestions(q.FollowUps)
		}
	}
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetSelect, 80, func(q model.Question) bool {
		return q.Type == model.QuestionTypeRadio && len(q.Options) > SelectThreshold
	})

	builtins := []struct {
		questionType model.QuestionType
		widget       string
	}{
		{model.QuestionTypeText, WidgetText},
		{model.QuestionTypeTextArea, WidgetTextArea},
		{model.QuestionTypeNumber, WidgetNumber},
		{model.QuestionTypeEmail, WidgetEmail},
		{model.QuestionTypePhone, WidgetPhone},
		{model.QuestionTypeDate, WidgetDate},
		{model.QuestionTypeRadio, WidgetRadio},
		{model.QuestionTypeCheckbox, WidgetCheckbox},
		{model.QuestionTypeCombobox, WidgetCombobox},
		{model.QuestionTypeDocument, WidgetDocument},
	}
	for _, entry := range builtins {
		r.RegisterType(entry.questionType, entry.widget)
	}
}
