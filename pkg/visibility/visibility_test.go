package visibility_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

func allergies() model.Question {
	return model.Question{
		Code:             "allergies",
		Type:             model.QuestionTypeCheckbox,
		Options:          model.OptionValues("Pollen", "Dust", "Other"),
		ShowFollowupWhen: model.When("Other"),
		FollowUps: []model.Question{
			{Code: "otherAllergies", Type: model.QuestionTypeTextArea, Required: true},
		},
	}
}

func TestIsVisible(t *testing.T) {
	t.Parallel()

	radio := model.Question{
		Code:             "smoker",
		Type:             model.QuestionTypeRadio,
		ShowFollowupWhen: model.WhenAny("Yes", "Sometimes"),
		FollowUps:        []model.Question{{Code: "perDay"}},
	}
	numeric := model.Question{
		Code:             "children",
		Type:             model.QuestionTypeNumber,
		ShowFollowupWhen: model.When(float64(3)),
		FollowUps:        []model.Question{{Code: "names"}},
	}

	cases := []struct {
		name     string
		question model.Question
		value    any
		want     bool
	}{
		{"list intersects", allergies(), []any{"Dust", "Other"}, true},
		{"string list intersects", allergies(), []string{"Other"}, true},
		{"list misses", allergies(), []any{"Pollen"}, false},
		{"empty list", allergies(), []any{}, false},
		{"nil answer", allergies(), nil, false},
		{"scalar in trigger list", radio, "Sometimes", true},
		{"scalar outside trigger list", radio, "No", false},
		{"scalar compared numerically", numeric, 3, true},
		{"numeric string is not a number", numeric, "3", false},
		{"no follow-ups", model.Question{Code: "x", ShowFollowupWhen: model.When("a")}, "a", false},
		{"no trigger", model.Question{Code: "x", FollowUps: []model.Question{{Code: "y"}}}, "a", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := visibility.IsVisible(tc.question, tc.value); got != tc.want {
				t.Fatalf("IsVisible(%v) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestVisibleQuestions_Idempotent(t *testing.T) {
	t.Parallel()

	questions := []model.Question{allergies(), {Code: "notes"}}
	answers := map[string]any{"allergies": []any{"Other"}}

	first := visibility.VisibleQuestions(questions, answers, nil)
	second := visibility.VisibleQuestions(questions, answers, nil)
	if diff := cmp.Diff(codes(first), codes(second)); diff != "" {
		t.Fatalf("walk not idempotent (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"allergies", "otherAllergies", "notes"}, codes(first)); diff != "" {
		t.Fatalf("visible order mismatch (-want +got):\n%s", diff)
	}
}

func TestVisibleQuestions_ToggleKeepsAnswers(t *testing.T) {
	t.Parallel()

	questions := []model.Question{allergies()}
	answers := map[string]any{
		"allergies":      []any{"Other"},
		"otherAllergies": "cats",
	}

	if got := codes(visibility.VisibleQuestions(questions, answers, nil)); len(got) != 2 {
		t.Fatalf("expected follow-up visible, got %v", got)
	}

	answers["allergies"] = []any{"Dust"}
	if diff := cmp.Diff([]string{"allergies"}, codes(visibility.VisibleQuestions(questions, answers, nil))); diff != "" {
		t.Fatalf("expected follow-up hidden (-want +got):\n%s", diff)
	}
	if answers["otherAllergies"] != "cats" {
		t.Fatalf("hidden answer must be retained")
	}

	answers["allergies"] = []any{"Other"}
	if got := codes(visibility.VisibleQuestions(questions, answers, nil)); len(got) != 2 {
		t.Fatalf("expected follow-up visible again, got %v", got)
	}
}

func TestWalk_NestedDepth(t *testing.T) {
	t.Parallel()

	leaf := model.Question{Code: "level3"}
	mid := model.Question{Code: "level2", ShowFollowupWhen: model.When("go"), FollowUps: []model.Question{leaf}}
	root := model.Question{Code: "level1", ShowFollowupWhen: model.When("go"), FollowUps: []model.Question{mid}}

	answers := map[string]any{"level1": "go", "level2": "go"}
	nodes := visibility.VisibleQuestions([]model.Question{root}, answers, nil)

	type step struct {
		Code   string
		Depth  int
		Parent string
	}
	got := make([]step, 0, len(nodes))
	for _, node := range nodes {
		got = append(got, step{node.Question.Code, node.Depth, node.Parent})
	}
	want := []step{{"level1", 0, ""}, {"level2", 1, "level1"}, {"level3", 2, "level2"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("nested walk mismatch (-want +got):\n%s", diff)
	}
}

func TestWalk_LazyAnswersAndStop(t *testing.T) {
	t.Parallel()

	answers := map[string]any{}
	lookup := func(code string) (any, bool) {
		v, ok := answers[code]
		return v, ok
	}

	var visited []string
	err := visibility.Walk([]model.Question{allergies()}, lookup, nil, func(node visibility.Node) error {
		visited = append(visited, node.Question.Code)
		if node.Question.Code == "allergies" {
			answers["allergies"] = []any{"Other"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if diff := cmp.Diff([]string{"allergies", "otherAllergies"}, visited); diff != "" {
		t.Fatalf("answer recorded during walk should reveal follow-up (-want +got):\n%s", diff)
	}

	stop := errors.New("stop")
	err = visibility.Walk([]model.Question{{Code: "a"}, {Code: "b"}}, lookup, nil, func(visibility.Node) error {
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected walk to return visitor error, got %v", err)
	}
}

func TestWalk_CustomResolver(t *testing.T) {
	t.Parallel()

	always := visibility.ResolverFunc(func(model.Question, any) bool { return true })
	nodes := visibility.VisibleQuestions([]model.Question{allergies()}, nil, always)
	if diff := cmp.Diff([]string{"allergies", "otherAllergies"}, codes(nodes)); diff != "" {
		t.Fatalf("custom resolver ignored (-want +got):\n%s", diff)
	}
}

func codes(nodes []visibility.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, node.Question.Code)
	}
	return out
}
