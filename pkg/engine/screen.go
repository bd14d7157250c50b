package engine

import (
	"github.com/goliatone/go-formflow/pkg/macro"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// ScreenKind tells hosts which layout to render.
type ScreenKind string

const (
	KindPage     ScreenKind = "page"
	KindPreview  ScreenKind = "preview"
	KindReview   ScreenKind = "review"
	KindComplete ScreenKind = "complete"
)

// Field is a visible question with its answer and message. FollowUps only
// holds follow-ups revealed by the current answer.
type Field struct {
	Question  model.Question
	Value     any
	Error     string
	Depth     int
	FollowUps []*Field
}

// Screen is a host-neutral description of what to show for the active step.
// Templated contents are already macro-expanded and must be rendered as
// trusted markup.
type Screen struct {
	Kind ScreenKind
	Code string

	FormTitle       string
	FormDescription string
	FormNotes       string

	Title       string
	Description string
	Footer      string
	Columns     int
	Index       int
	Total       int
	Fields      []*Field

	HasNext    bool
	IsLast     bool
	HasBack    bool
	ShowReview bool

	PreviewContent   string
	ReviewContent    string
	SubmittedContent string
	BackLink         string

	RequireConsent bool
	ConsentContent string
	ConsentSignURL string
	Consent        bool
	ConsentError   string

	Focus string
}

// Screen builds the view of the active step.
func (s *Session) Screen() Screen {
	code := s.CurrentPage()
	screen := Screen{
		Code:            code,
		FormTitle:       s.cfg.Title,
		FormDescription: s.cfg.Description,
		FormNotes:       s.cfg.FormNotes,
		Total:           len(s.cfg.Pages),
		ShowReview:      s.cfg.ShowReview,
		Focus:           s.focus,
	}

	switch code {
	case model.PagePreview:
		screen.Kind = KindPreview
		screen.Index = -1
		screen.PreviewContent = macro.Expand(s.cfg.PreviewContent, s.responses)
		return screen
	case model.PageReview:
		screen.Kind = KindReview
		screen.Index = len(s.cfg.Pages)
		screen.HasBack = true
		screen.ReviewContent = macro.Expand(s.cfg.ReviewContent, s.responses)
		screen.RequireConsent = s.cfg.RequireConsent
		if s.cfg.RequireConsent {
			screen.ConsentContent = macro.Expand(s.cfg.ConsentContent, s.responses)
			screen.ConsentSignURL = macro.Expand(s.cfg.ConsentSignURL, s.responses)
		}
		screen.Consent = s.consent
		screen.ConsentError = s.consentErr
		return screen
	case model.PageComplete:
		screen.Kind = KindComplete
		screen.Index = len(s.cfg.Pages)
		screen.SubmittedContent = macro.Expand(s.cfg.FormSubmittedContent, s.responses)
		screen.BackLink = s.cfg.FormSubmitBackLink
		return screen
	}

	page, _ := s.cfg.PageByCode(code)
	idx := s.cfg.PageIndex(code)
	screen.Kind = KindPage
	screen.Title = page.Title
	screen.Description = page.Desc
	screen.Footer = page.Footer
	screen.Columns = page.Columns
	screen.Index = idx
	screen.HasNext = idx+1 < len(s.cfg.Pages)
	screen.IsLast = idx == len(s.cfg.Pages)-1
	screen.HasBack = idx > 0 || s.cfg.ShowPreview
	screen.Fields = BuildFields(page, s.responses, s.errors, s.resolver)
	return screen
}

// BuildFields assembles the visible question tree of page.
func BuildFields(page model.Page, responses model.Responses, errs model.ErrorMap, resolver visibility.Resolver) []*Field {
	answers := responses.Page(page.Code)
	lookup := func(code string) (any, bool) {
		value, ok := answers[code]
		return value, ok
	}

	var roots []*Field
	var path []*Field
	_ = visibility.Walk(page.Questions, lookup, resolver, func(node visibility.Node) error {
		field := &Field{
			Question: node.Question,
			Value:    answers[node.Question.Code],
			Error:    errs.Get(page.Code, node.Question.Code),
			Depth:    node.Depth,
		}
		path = path[:node.Depth]
		if node.Depth == 0 {
			roots = append(roots, field)
		} else {
			parent := path[node.Depth-1]
			parent.FollowUps = append(parent.FollowUps, field)
		}
		path = append(path, field)
		return nil
	})
	return roots
}

// Flatten lists fields depth-first.
func Flatten(fields []*Field) []*Field {
	var out []*Field
	stack := make([]*Field, 0, len(fields))
	for i := len(fields) - 1; i >= 0; i-- {
		stack = append(stack, fields[i])
	}
	for len(stack) > 0 {
		field := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, field)
		for i := len(field.FollowUps) - 1; i >= 0; i-- {
			stack = append(stack, field.FollowUps[i])
		}
	}
	return out
}
