package model

import "strings"

// Decorator adjusts a decoded configuration before the engine sees it.
type Decorator interface {
	Decorate(*FormConfig) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*FormConfig) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(cfg *FormConfig) error {
	return fn(cfg)
}

// Normalize trims codes and applies layout defaults (one column per page, one
// column span per question).
var Normalize = DecoratorFunc(func(cfg *FormConfig) error {
	if cfg == nil {
		return nil
	}
	for i := range cfg.Pages {
		page := &cfg.Pages[i]
		page.Code = strings.TrimSpace(page.Code)
		if page.Columns < 1 {
			page.Columns = 1
		}
		normalizeQuestions(page.Questions)
	}
	return nil
})

func normalizeQuestions(questions []Question) {
	for i := range questions {
		q := &questions[i]
		q.Code = strings.TrimSpace(q.Code)
		if q.Type == "" {
			q.Type = QuestionTypeText
		}
		if q.Colspan < 1 {
			q.Colspan = 1
		}
		normalizeQuestions(q.FollowUps)
	}
}
