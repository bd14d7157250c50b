package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

const choicePageSize = 10

// Prompt asks for a free text answer. Check runs on every submitted line and
// keeps the prompt open while it fails.
type Prompt struct {
	Message   string
	Help      string
	Default   string
	Multiline bool
	Check     func(string) error
}

// Choice asks the respondent to pick from Options. Selected holds the indices
// shown as preselected.
type Choice struct {
	Message  string
	Help     string
	Options  []string
	Selected []int
	Multiple bool
}

// PromptDriver is the terminal seam of the runner. Tests script answers with
// a stub; the default implementation is backed by survey.
type PromptDriver interface {
	Ask(ctx context.Context, prompt Prompt) (string, error)
	Confirm(ctx context.Context, message string, fallback bool) (bool, error)
	// Choose returns the picked indices; single choices return at most one.
	Choose(ctx context.Context, choice Choice) ([]int, error)
	Print(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns the survey-backed driver. Printed lines go to out
// (stdout when nil).
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out}
}

func (d *surveyDriver) Ask(ctx context.Context, prompt Prompt) (string, error) {
	var p survey.Prompt = &survey.Input{Message: prompt.Message, Help: prompt.Help, Default: prompt.Default}
	if prompt.Multiline {
		p = &survey.Multiline{Message: prompt.Message, Help: prompt.Help, Default: prompt.Default}
	}

	var opts []survey.AskOpt
	if prompt.Check != nil {
		opts = append(opts, survey.WithValidator(func(ans any) error {
			text, _ := ans.(string)
			return prompt.Check(text)
		}))
	}
	var answer string
	err := ask(ctx, p, &answer, opts...)
	return answer, err
}

func (d *surveyDriver) Confirm(ctx context.Context, message string, fallback bool) (bool, error) {
	var answer bool
	err := ask(ctx, &survey.Confirm{Message: message, Default: fallback}, &answer)
	return answer, err
}

func (d *surveyDriver) Choose(ctx context.Context, choice Choice) ([]int, error) {
	if choice.Multiple {
		var picked []string
		prompt := &survey.MultiSelect{
			Message:  choice.Message,
			Options:  choice.Options,
			Help:     choice.Help,
			PageSize: choicePageSize,
		}
		if preset := labelsAt(choice.Options, choice.Selected); len(preset) > 0 {
			prompt.Default = preset
		}
		if err := ask(ctx, prompt, &picked); err != nil {
			return nil, err
		}
		return positions(choice.Options, picked), nil
	}

	var picked string
	prompt := &survey.Select{
		Message:  choice.Message,
		Options:  choice.Options,
		Help:     choice.Help,
		PageSize: choicePageSize,
	}
	if preset := labelsAt(choice.Options, choice.Selected); len(preset) > 0 {
		prompt.Default = preset[0]
	}
	if err := ask(ctx, prompt, &picked); err != nil {
		return nil, err
	}
	return positions(choice.Options, []string{picked}), nil
}

func (d *surveyDriver) Print(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// ask runs one survey prompt. Ctrl-C surfaces as ErrAborted.
func ask(ctx context.Context, prompt survey.Prompt, answer any, opts ...survey.AskOpt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := survey.AskOne(prompt, answer, opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func positions(options, picked []string) []int {
	var out []int
	for idx, option := range options {
		if slices.Contains(picked, option) {
			out = append(out, idx)
		}
	}
	return out
}

func labelsAt(options []string, indices []int) []string {
	var out []string
	for _, idx := range indices {
		if idx >= 0 && idx < len(options) {
			out = append(out, options[idx])
		}
	}
	return out
}
