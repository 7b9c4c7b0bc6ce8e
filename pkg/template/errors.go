package template

import (
	"errors"
	"fmt"

	"github.com/getmockd/httpseq/pkg/failure"
)

var errNoPrior = errors.New("no prior test")

func errNoHistory(name string) error {
	return fmt.Errorf("no test named %q in history", name)
}

// Error reports a token that could not be resolved. It is an assertion
// failure: the data the test depends on is not available.
type Error struct {
	// Token is the token name without the leading $.
	Token string
	// Message is the original message being resolved.
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("unable to replace $%s in %s, data unavailable: %v", e.Token, e.Message, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{failure.ErrAssertion, e.Err}
}
