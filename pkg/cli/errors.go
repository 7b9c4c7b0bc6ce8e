package cli

import "errors"

// Common CLI errors
var (
	// ErrTestsFailed is returned by run when a test failed or errored. It
	// sets the exit code without printing anything more.
	ErrTestsFailed = errors.New("tests failed")
	ErrTooManyArgs = errors.New("at most a target and a prefix may precede --")
)
