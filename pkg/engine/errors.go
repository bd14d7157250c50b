package engine

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formflow/pkg/validation"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("engine: page has validation errors")
	// ErrConsentRequired is returned when submitting from the review screen
	// without consent.
	ErrConsentRequired = errors.New("engine: consent required")
	// ErrUnknownPage is returned for navigation targets that are not
	// reachable in this form.
	ErrUnknownPage = errors.New("engine: unknown page")
	// ErrUnknownQuestion is returned when an answer targets a question the
	// page does not define.
	ErrUnknownQuestion = errors.New("engine: unknown question")
	// ErrCompleted is returned by navigation once the form was submitted.
	ErrCompleted = errors.New("engine: form already submitted")
	// ErrAtStart is returned by Back on the first screen.
	ErrAtStart = errors.New("engine: no previous screen")
)

// ValidationError carries the failed validation result of the current page.
type ValidationError struct {
	Result validation.Result
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("engine: page %q has %d validation error(s)", e.Result.Page, len(e.Result.PageErrors()))
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
