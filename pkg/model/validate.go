package model

import (
	"fmt"
	"strings"
)

// Issue describes one structural defect in a configuration.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// ConfigError aggregates every structural issue found by Validate.
type ConfigError struct {
	Issues []Issue
}

func (e *ConfigError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "model: invalid form config"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return "model: invalid form config: " + strings.Join(parts, "; ")
}

// Validate checks the structural invariants the engine relies on: at least one
// page, non-empty globally unique page codes that do not collide with the
// reserved screens, and question codes unique within each list.
func Validate(cfg FormConfig) error {
	var issues []Issue
	if len(cfg.Pages) == 0 {
		issues = append(issues, Issue{Path: "pages", Message: "at least one page is required"})
	}

	seen := make(map[string]int, len(cfg.Pages))
	for idx, page := range cfg.Pages {
		path := fmt.Sprintf("pages[%d]", idx)
		code := strings.TrimSpace(page.Code)
		switch {
		case code == "":
			issues = append(issues, Issue{Path: path, Message: "page code is required"})
		case IsPseudoPage(code):
			issues = append(issues, Issue{Path: path, Message: fmt.Sprintf("page code %q is reserved", code)})
		default:
			if first, dup := seen[code]; dup {
				issues = append(issues, Issue{Path: path, Message: fmt.Sprintf("page code %q duplicates pages[%d]", code, first)})
			} else {
				seen[code] = idx
			}
		}
		issues = append(issues, validateQuestions(page.Questions, path+".questions")...)
	}

	if len(issues) > 0 {
		return &ConfigError{Issues: issues}
	}
	return nil
}

func validateQuestions(questions []Question, prefix string) []Issue {
	var issues []Issue
	seen := make(map[string]int, len(questions))
	for idx, question := range questions {
		path := fmt.Sprintf("%s[%d]", prefix, idx)
		code := strings.TrimSpace(question.Code)
		if code == "" {
			issues = append(issues, Issue{Path: path, Message: "question code is required"})
		} else if first, dup := seen[code]; dup {
			issues = append(issues, Issue{Path: path, Message: fmt.Sprintf("question code %q duplicates %s[%d]", code, prefix, first)})
		} else {
			seen[code] = idx
		}
		if len(question.FollowUps) > 0 {
			issues = append(issues, validateQuestions(question.FollowUps, path+".followup_questions")...)
		}
	}
	return issues
}
