package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrTooManyAttempts stops a walk that keeps failing validation with a
	// scripted or non-interactive driver.
	ErrTooManyAttempts = errors.New("tui: too many attempts")
)
