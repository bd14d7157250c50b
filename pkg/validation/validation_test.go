package validation_test

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/validation"
)

func basicPage() model.Page {
	return model.Page{
		Code: "basicInfo",
		Questions: []model.Question{
			{Code: "firstName", Type: model.QuestionTypeText, Text: "First Name", Required: true, RequiredError: "Please enter your first name"},
			{Code: "lastName", Type: model.QuestionTypeText, Text: "Last Name", Required: true},
			{Code: "email", Type: model.QuestionTypeEmail, Text: "Email", Pattern: `^[^@\s]+@[^@\s]+\.[a-z]{2,}$`},
			{Code: "age", Type: model.QuestionTypeNumber, Text: "Age", Min: model.NewBound(18), Max: model.NewBound(120)},
		},
	}
}

func TestValidate_RequiredBlocks(t *testing.T) {
	t.Parallel()

	page := basicPage()
	engine := validation.New(model.FormConfig{Pages: []model.Page{page}})

	result := engine.Validate(page, model.Responses{})
	if result.Valid {
		t.Fatalf("expected invalid result")
	}
	want := model.ErrorMap{"basicInfo": {
		"firstName": "Please enter your first name",
		"lastName":  "Last Name is required",
	}}
	if diff := cmp.Diff(want, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	responses := model.Responses{}
	responses.Set("basicInfo", "firstName", "")
	responses.Set("basicInfo", "lastName", "Doe")
	result = engine.Validate(page, responses)
	if _, ok := result.PageErrors()["firstName"]; !ok {
		t.Fatalf("empty answer should count as missing")
	}

	// Only the empty string is missing; whitespace is an answer.
	responses.Set("basicInfo", "firstName", "  ")
	result = engine.Validate(page, responses)
	if !result.Valid {
		t.Fatalf("whitespace answer rejected: %v", result.Errors)
	}
}

func TestValidate_ValidPageKeepsEmptyEntry(t *testing.T) {
	t.Parallel()

	page := basicPage()
	engine := validation.New(model.FormConfig{Pages: []model.Page{page}})

	responses := model.Responses{}
	responses.Set("basicInfo", "firstName", "John")
	responses.Set("basicInfo", "lastName", "Doe")

	result := engine.Validate(page, responses)
	if !result.Valid {
		t.Fatalf("expected valid result, got %v", result.Errors)
	}
	pageErrors, ok := result.Errors["basicInfo"]
	if !ok || len(pageErrors) != 0 {
		t.Fatalf("expected empty page entry, got %#v", result.Errors)
	}
}

func TestValidateQuestion_NumericBounds(t *testing.T) {
	t.Parallel()

	engine := validation.New(model.FormConfig{})
	q := model.Question{Code: "age", Type: model.QuestionTypeNumber, Text: "Age", Min: model.NewBound(18), Max: model.NewBound(120)}

	cases := []struct {
		value any
		want  string
	}{
		{float64(18), ""},
		{float64(50), ""},
		{float64(120), ""},
		{"42", ""},
		{float64(17), "Age must be at least 18"},
		{float64(121), "Age must be at most 120"},
		{"abc", "Age must be a number"},
		{"NaN", "Age must be a number"},
		{"Inf", "Age must be a number"},
		{"-Inf", "Age must be a number"},
		{math.NaN(), "Age must be a number"},
		{math.Inf(1), "Age must be a number"},
		{nil, ""},
	}
	for _, tc := range cases {
		msg, ok := engine.ValidateQuestion(q, tc.value)
		if msg != tc.want || ok != (tc.want == "") {
			t.Fatalf("value %v: got (%q, %v), want %q", tc.value, msg, ok, tc.want)
		}
	}

	q.MinError = "Too young"
	if msg, _ := engine.ValidateQuestion(q, float64(3)); msg != "Too young" {
		t.Fatalf("override ignored: %q", msg)
	}
}

func TestValidateQuestion_LengthBounds(t *testing.T) {
	t.Parallel()

	engine := validation.New(model.FormConfig{})
	q := model.Question{Code: "bio", Type: model.QuestionTypeTextArea, Text: "Bio", Min: model.NewBound(3), Max: model.NewBound(5)}

	cases := []struct {
		value string
		want  string
	}{
		{"abc", ""},
		{"abcd", ""},
		{"abcde", ""},
		{"héé", ""},
		{"ab", "Bio must be at least 3 characters"},
		{"abcdef", "Bio must be at most 5 characters"},
	}
	for _, tc := range cases {
		if msg, _ := engine.ValidateQuestion(q, tc.value); msg != tc.want {
			t.Fatalf("value %q: got %q, want %q", tc.value, msg, tc.want)
		}
	}

	// Bounds on other types are ignored.
	email := model.Question{Code: "mail", Type: model.QuestionTypeEmail, Min: model.NewBound(50)}
	if _, ok := engine.ValidateQuestion(email, "a@b.co"); !ok {
		t.Fatalf("length bounds must only apply to text types")
	}
}

func TestValidateQuestion_ShortCircuits(t *testing.T) {
	t.Parallel()

	engine := validation.New(model.FormConfig{})
	q := model.Question{
		Code: "code", Type: model.QuestionTypeText, Text: "Code", Required: true,
		Pattern: "^[0-9]+$", PatternError: "Digits only", Min: model.NewBound(4),
	}

	if msg, _ := engine.ValidateQuestion(q, "x"); msg != "Digits only" {
		t.Fatalf("pattern should win over length: %q", msg)
	}
	if msg, _ := engine.ValidateQuestion(q, "12"); msg != "Code must be at least 4 characters" {
		t.Fatalf("unexpected message %q", msg)
	}
	if msg, _ := engine.ValidateQuestion(q, ""); msg != "Code is required" {
		t.Fatalf("required should win: %q", msg)
	}
}

func TestValidateQuestion_PatternOnLists(t *testing.T) {
	t.Parallel()

	engine := validation.New(model.FormConfig{})
	q := model.Question{Code: "tags", Type: model.QuestionTypeCheckbox, Text: "Tags", Pattern: "^[a-z]+$"}

	if _, ok := engine.ValidateQuestion(q, []any{"a", "b"}); !ok {
		t.Fatalf("expected every entry to match")
	}
	if msg, ok := engine.ValidateQuestion(q, []any{"a", "B"}); ok || msg != "Tags is invalid" {
		t.Fatalf("expected invalid list, got (%q, %v)", msg, ok)
	}
	required := model.Question{Code: "tags", Type: model.QuestionTypeCheckbox, Text: "Tags", Required: true}
	if _, ok := engine.ValidateQuestion(required, []any{}); ok {
		t.Fatalf("empty list must fail required")
	}
}

func TestValidate_FollowUps(t *testing.T) {
	t.Parallel()

	page := model.Page{
		Code: "medicalHistory",
		Questions: []model.Question{{
			Code:             "allergies",
			Type:             model.QuestionTypeCheckbox,
			Text:             "Allergies",
			ShowFollowupWhen: model.When("Other"),
			FollowUps: []model.Question{
				{Code: "otherAllergies", Type: model.QuestionTypeTextArea, Text: "Other Allergies", Required: true},
			},
		}},
	}
	engine := validation.New(model.FormConfig{Pages: []model.Page{page}})

	responses := model.Responses{}
	responses.Set("medicalHistory", "allergies", []any{"Dust"})
	if result := engine.Validate(page, responses); !result.Valid {
		t.Fatalf("hidden follow-up must not be validated: %v", result.Errors)
	}

	responses.Set("medicalHistory", "allergies", []any{"Dust", "Other"})
	result := engine.Validate(page, responses)
	if result.Valid || result.PageErrors()["otherAllergies"] != "Other Allergies is required" {
		t.Fatalf("visible follow-up must be validated: %v", result.Errors)
	}
}

func TestNew_MalformedPatternIsConfigError(t *testing.T) {
	t.Parallel()

	page := model.Page{
		Code: "p",
		Questions: []model.Question{
			{Code: "broken", Type: model.QuestionTypeText, Text: "Broken", Pattern: "([a-z"},
		},
	}
	engine := validation.New(model.FormConfig{Pages: []model.Page{page}})

	issues := engine.Issues()
	if len(issues) != 1 || issues[0].Path != "pages[0].questions[0]" {
		t.Fatalf("expected one issue, got %#v", issues)
	}

	responses := model.Responses{}
	responses.Set("p", "broken", "anything")
	result := engine.Validate(page, responses)
	if !result.Valid {
		t.Fatalf("broken pattern must be skipped, got %v", result.Errors)
	}
	if !strings.Contains(result.ConfigErrors["broken"], "does not compile") {
		t.Fatalf("expected config error, got %#v", result.ConfigErrors)
	}
}
