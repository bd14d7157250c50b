// Package testsupport holds fixtures and golden-file helpers shared by package
// tests.
package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/goliatone/go-formflow/pkg/model"
)

// IntakeConfig returns a three page intake form with preview, review, consent
// and follow-ups, built in code so packages can use it without fixtures.
func IntakeConfig() model.FormConfig {
	return model.FormConfig{
		Title:                "Patient Intake Form",
		Slug:                 "patient-intake",
		Type:                 "patient",
		Tag:                  "intake",
		ShowPreview:          true,
		PreviewContent:       "<h2>Welcome</h2>",
		ShowReview:           true,
		ReviewContent:        "<p>Name: [#basicInfo.firstName]</p>",
		RequireConsent:       true,
		ConsentContent:       "I agree, [#basicInfo.firstName].",
		ConsentSignURL:       "https://example.test/sign.png?name=[#basicInfo.firstName]",
		FormSubmittedContent: "<h2>Thank you, [#basicInfo.firstName]!</h2>",
		FormSubmitBackLink:   "/",
		Pages: []model.Page{
			{
				ID: "1", Code: "basicInfo", Title: "Basic Information", Columns: 2,
				Questions: []model.Question{
					{ID: "1", Code: "firstName", Type: model.QuestionTypeText, Text: "First Name", Required: true, Colspan: 1},
					{ID: "2", Code: "age", Type: model.QuestionTypeNumber, Text: "Age", Min: model.NewBound(18), Max: model.NewBound(120), Colspan: 1},
				},
			},
			{
				ID: "2", Code: "medicalHistory", Title: "Medical History", Columns: 1,
				Questions: []model.Question{
					{
						ID: "7", Code: "allergies", Type: model.QuestionTypeCheckbox, Text: "Allergies", Colspan: 1,
						Options:          model.OptionValues("Pollen", "Dust", "Other"),
						ShowFollowupWhen: model.When("Other"),
						FollowUps: []model.Question{
							{ID: "8", Code: "otherAllergies", Type: model.QuestionTypeTextArea, Text: "Other Allergies", Required: true, Colspan: 1},
						},
					},
				},
			},
			{
				ID: "3", Code: "insurance", Title: "Insurance", Columns: 1, Footer: "Kept confidential.",
				Questions: []model.Question{
					{ID: "11", Code: "provider", Type: model.QuestionTypeRadio, Text: "Provider", Required: true, Colspan: 1,
						Options: model.OptionValues("Acme", "Globex")},
				},
			},
		},
	}
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// MustReadGoldenString returns the content of a golden file.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return string(data)
}

// CaptureTemplateOutput runs render against a buffer and returns both the
// returned string and what was written.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
