// Package failure classifies the errors produced while building and running
// HTTP test sequences.
//
// Two classes matter to callers. Assertion errors mean the system under test
// did not behave as declared and are reported as test failures. Format errors
// mean a test document is malformed and are reported before any request is
// made. Everything else is an error in the harness or the network and is
// reported as a test error.
package failure

import (
	"errors"
	"fmt"
)

// Error classes.
var (
	ErrAssertion = errors.New("assertion failed")
	ErrFormat    = errors.New("malformed test data")
)

// Assertf returns an assertion error with a formatted message.
func Assertf(format string, args ...any) error {
	return &classified{class: ErrAssertion, msg: fmt.Sprintf(format, args...)}
}

// Formatf returns a format error with a formatted message.
func Formatf(format string, args ...any) error {
	return &classified{class: ErrFormat, msg: fmt.Sprintf(format, args...)}
}

// IsAssertion reports whether err is an assertion failure.
func IsAssertion(err error) bool {
	return errors.Is(err, ErrAssertion)
}

// IsFormat reports whether err is a format error.
func IsFormat(err error) bool {
	return errors.Is(err, ErrFormat)
}

type classified struct {
	class error
	msg   string
}

func (e *classified) Error() string { return e.msg }

func (e *classified) Unwrap() error { return e.class }
