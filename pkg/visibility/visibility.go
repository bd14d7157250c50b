// Package visibility decides which follow-up questions are revealed by the
// current answers and walks the visible part of a question tree.
package visibility

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Resolver determines whether a question's follow-ups are visible given the
// question's current answer.
type Resolver interface {
	Visible(question model.Question, value any) bool
}

// ResolverFunc adapts a function into a Resolver.
type ResolverFunc func(question model.Question, value any) bool

// Visible delegates to the underlying function.
func (fn ResolverFunc) Visible(question model.Question, value any) bool {
	return fn(question, value)
}

// Default resolves visibility with IsVisible.
var Default Resolver = ResolverFunc(IsVisible)

// IsVisible reports whether question's follow-ups should be shown for value.
// List answers reveal follow-ups when any selected entry is a trigger value;
// scalar answers reveal them when they equal one of the trigger values.
func IsVisible(question model.Question, value any) bool {
	if !question.HasFollowUps() {
		return false
	}
	triggers := question.ShowFollowupWhen.Values

	if answers, ok := asList(value); ok {
		for _, answer := range answers {
			if containsValue(triggers, answer) {
				return true
			}
		}
		return false
	}
	if value == nil {
		return false
	}
	return containsValue(triggers, value)
}

// Node is one visible question encountered by Walk. Depth is zero for the
// page's own questions and grows by one per follow-up level.
type Node struct {
	Question model.Question
	Depth    int
	Parent   string
}

// Walk visits the visible questions depth-first in configuration order. The
// answer for each question is read from answers after fn returns, so a visitor
// that records an answer immediately reveals that question's follow-ups.
// Returning an error from fn stops the walk.
func Walk(questions []model.Question, answers func(code string) (any, bool), resolver Resolver, fn func(Node) error) error {
	if resolver == nil {
		resolver = Default
	}
	stack := make([]Node, 0, len(questions))
	stack = pushReversed(stack, questions, 0, "")

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := fn(node); err != nil {
			return err
		}

		if !node.Question.HasFollowUps() {
			continue
		}
		var value any
		if answers != nil {
			value, _ = answers(node.Question.Code)
		}
		if resolver.Visible(node.Question, value) {
			stack = pushReversed(stack, node.Question.FollowUps, node.Depth+1, node.Question.Code)
		}
	}
	return nil
}

// VisibleQuestions flattens the visible tree in walk order.
func VisibleQuestions(questions []model.Question, answers map[string]any, resolver Resolver) []Node {
	var out []Node
	lookup := func(code string) (any, bool) {
		value, ok := answers[code]
		return value, ok
	}
	_ = Walk(questions, lookup, resolver, func(node Node) error {
		out = append(out, node)
		return nil
	})
	return out
}

func pushReversed(stack []Node, questions []model.Question, depth int, parent string) []Node {
	for i := len(questions) - 1; i >= 0; i-- {
		stack = append(stack, Node{Question: questions[i], Depth: depth, Parent: parent})
	}
	return stack
}

func asList(value any) ([]any, bool) {
	switch typed := value.(type) {
	case []any:
		return typed, true
	case []string:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = v
		}
		return out, true
	default:
		return nil, false
	}
}

func containsValue(candidates []any, value any) bool {
	for _, candidate := range candidates {
		if sameValue(candidate, value) {
			return true
		}
	}
	return false
}

// sameValue compares two decoded scalars. Numbers compare numerically so an
// integer decoded from YAML matches a float decoded from JSON; other kinds
// must match in both type and value.
func sameValue(a, b any) bool {
	if af, ok := number(a); ok {
		bf, ok := number(b)
		return ok && af == bf
	}
	switch at := a.(type) {
	case string:
		bt, ok := b.(string)
		return ok && at == bt
	case bool:
		bt, ok := b.(bool)
		return ok && at == bt
	default:
		return fmt.Sprintf("%T:%v", a, a) == fmt.Sprintf("%T:%v", b, b)
	}
}

func number(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
