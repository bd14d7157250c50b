package model

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	cfg := FormConfig{
		Pages: []Page{
			{Code: "bio", Questions: []Question{
				{Code: "name"},
				{Code: "pets", FollowUps: []Question{{Code: "name"}}},
			}},
			{Code: "history"},
		},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_ReportsStructuralIssues(t *testing.T) {
	cfg := FormConfig{
		Pages: []Page{
			{Code: "bio", Questions: []Question{{Code: "a"}, {Code: "a"}}},
			{Code: "bio"},
			{Code: PageReview},
			{Code: " ", Questions: []Question{{Code: "x", FollowUps: []Question{{Code: ""}}}}},
		},
	}

	err := Validate(cfg)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}

	wantFragments := []string{
		`pages[0].questions[1]: question code "a" duplicates`,
		`pages[1]: page code "bio" duplicates pages[0]`,
		`pages[2]: page code "_review" is reserved`,
		`pages[3]: page code is required`,
		`pages[3].questions[0].followup_questions[0]: question code is required`,
	}
	msg := err.Error()
	for _, fragment := range wantFragments {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error:\n%s", fragment, msg)
		}
	}
}

func TestValidate_RequiresPages(t *testing.T) {
	if err := Validate(FormConfig{}); err == nil {
		t.Fatalf("expected error for empty config")
	}
}

func TestPage_FindQuestionSearchesFollowUps(t *testing.T) {
	page := Page{Questions: []Question{
		{Code: "pets", FollowUps: []Question{
			{Code: "otherPet", FollowUps: []Question{{Code: "species", Text: "Species"}}},
		}},
	}}
	q, ok := page.FindQuestion("species")
	if !ok || q.Text != "Species" {
		t.Fatalf("expected nested follow-up, got %#v (ok=%v)", q, ok)
	}
	if _, ok := page.FindQuestion("missing"); ok {
		t.Fatalf("unexpected match for missing code")
	}
}

func TestResponses_CloneDoesNotAlias(t *testing.T) {
	live := Responses{}
	live.Set("bio", "tags", []any{"a"})
	snapshot := live.Clone()

	live["bio"]["tags"].([]any)[0] = "changed"
	live.Set("bio", "name", "x")

	if got := snapshot["bio"]["tags"].([]any)[0]; got != "a" {
		t.Fatalf("snapshot aliased live slice: %v", got)
	}
	if _, ok := snapshot.Get("bio", "name"); ok {
		t.Fatalf("snapshot aliased live page map")
	}
}
