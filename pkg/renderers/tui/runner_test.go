package tui

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/engine"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/testsupport"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	infoMessages []string
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	textPos      int
}

// Ask consumes scripted answers until one passes the check, the way a survey
// prompt keeps asking. Multiline prompts read from textAreas.
func (s *stubDriver) Ask(_ context.Context, prompt Prompt) (string, error) {
	script, pos := &s.inputs, &s.inputPos
	if prompt.Multiline {
		script, pos = &s.textAreas, &s.textPos
	}
	for {
		if *pos >= len(*script) {
			return "", errors.New("no answer scripted")
		}
		val := (*script)[*pos]
		*pos++
		if prompt.Check != nil {
			if err := prompt.Check(val); err != nil {
				s.infoMessages = append(s.infoMessages, err.Error())
				continue
			}
		}
		return val, nil
	}
}

func (s *stubDriver) Confirm(_ context.Context, _ string, _ bool) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Choose(_ context.Context, choice Choice) ([]int, error) {
	if choice.Multiple {
		if s.multiPos >= len(s.multiIdx) {
			return nil, errors.New("no multiselect scripted")
		}
		val := s.multiIdx[s.multiPos]
		s.multiPos++
		return val, nil
	}
	if s.selectPos >= len(s.selectIdx) {
		return nil, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return []int{val}, nil
}

func (s *stubDriver) Print(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func (s *stubDriver) printed(fragment string) bool {
	for _, msg := range s.infoMessages {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

func newSession(t *testing.T, cfg model.FormConfig, opts ...engine.Option) *engine.Session {
	t.Helper()
	session, err := engine.New(cfg, opts...)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(session.Close)
	return session
}

func TestRunner_WalksWholeIntake(t *testing.T) {
	driver := &stubDriver{
		confirm:   []bool{true, false, true},
		inputs:    []string{"", "Ada", "abc", "NaN", "12", "42"},
		multiIdx:  [][]int{{0, 2}},
		textAreas: []string{"", "Cats"},
		selectIdx: []int{0, 0, 1, 0, 0, 0},
	}

	var submitted int
	session := newSession(t, testsupport.IntakeConfig(), engine.WithOnSubmit(func(model.Responses) { submitted++ }))

	runner, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	out, err := runner.Run(testsupport.Context(), session)
	if err != nil {
		t.Fatalf("run: %v\nprinted: %v", err, driver.infoMessages)
	}

	var got map[string]map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	want := map[string]map[string]any{
		"basicInfo":      {"firstName": "Ada", "age": float64(42)},
		"medicalHistory": {"allergies": []any{"Pollen", "Other"}, "otherAllergies": "Cats"},
		"insurance":      {"provider": "Globex"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if submitted != 1 {
		t.Fatalf("expected one submission, got %d", submitted)
	}
	if runner.ContentType() != "application/json" {
		t.Fatalf("unexpected content type %q", runner.ContentType())
	}

	for _, fragment := range []string{
		"Welcome",
		"[Step 1 of 3] Basic Information",
		"First Name is required",
		"Age must be a number",
		"Age must be at least 18",
		"Other Allergies is required",
		"Name: Ada",
		engine.ConsentMessage,
		"Thank you, Ada!",
	} {
		if !driver.printed(fragment) {
			t.Fatalf("expected %q to be printed, got %v", fragment, driver.infoMessages)
		}
	}
}

func TestRunner_BackFromReview(t *testing.T) {
	cfg := model.FormConfig{
		Title:      "Short",
		Slug:       "short",
		ShowReview: true,
		Pages: []model.Page{{
			ID: "1", Code: "only", Title: "Only", Columns: 1,
			Questions: []model.Question{{ID: "1", Code: "color", Type: model.QuestionTypeText, Text: "Color", Colspan: 1}},
		}},
	}
	driver := &stubDriver{
		inputs: []string{"red", "blue"},
		// review: Back, review: Submit
		selectIdx: []int{1, 0},
	}

	runner, err := New(WithPromptDriver(driver), WithOutputFormat(OutputFormatPrettyText))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	out, err := runner.Run(testsupport.Context(), newSession(t, cfg))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if string(out) != "only.color=blue\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRunner_AbortAtPreview(t *testing.T) {
	driver := &stubDriver{confirm: []bool{false}}
	runner, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if _, err := runner.Run(testsupport.Context(), newSession(t, testsupport.IntakeConfig())); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestRunner_MaxAttemptsOnConsent(t *testing.T) {
	cfg := testsupport.IntakeConfig()
	cfg.ShowPreview = false
	driver := &stubDriver{
		inputs:    []string{"Ada", ""},
		multiIdx:  [][]int{{}},
		selectIdx: []int{0, 0, 0, 0, 0, 0},
		confirm:   []bool{false, false},
	}

	runner, err := New(WithPromptDriver(driver), WithMaxAttempts(2))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	_, err = runner.Run(testsupport.Context(), newSession(t, cfg))
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	if _, err := New(WithPromptDriver(&stubDriver{}), WithOutputFormat("xml")); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestDescribeDocument(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "scan.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	q := model.Question{Code: "id", Text: "ID", Type: model.QuestionTypeDocument, FileTypes: []string{"jpg", "pdf"}, MaxFileSize: 5}

	value, err := describeDocument(q, pdf)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	doc, ok := value.(map[string]any)
	if !ok || doc["name"] != "scan.pdf" || doc["size"] != float64(8) {
		t.Fatalf("unexpected document %#v", value)
	}

	if _, err := describeDocument(q, txt); err == nil {
		t.Fatalf("expected type error for txt")
	}
	if _, err := describeDocument(q, filepath.Join(dir, "missing.pdf")); err == nil {
		t.Fatalf("expected missing file error")
	}
	q.FileTypes = []string{"application/pdf"}
	if _, err := describeDocument(q, pdf); err != nil {
		t.Fatalf("media type should be accepted: %v", err)
	}
	if value, err := describeDocument(q, ""); err != nil || value != nil {
		t.Fatalf("empty path should be no answer, got %v %v", value, err)
	}
}
