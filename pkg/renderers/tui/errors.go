package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoOptions is returned when a picker has nothing to choose from.
	ErrNoOptions = errors.New("tui: no options to choose from")
	// ErrTooManyAttempts is returned when a prompt keeps receiving input the
	// controller rejects.
	ErrTooManyAttempts = errors.New("tui: too many invalid answers")
)
