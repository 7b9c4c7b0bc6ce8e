package handler

import (
	"strings"

	"github.com/getmockd/httpseq/pkg/failure"
)

// StringsHandler checks response_strings: a list of substrings, or /regex/
// patterns, that must appear in the response body.
type StringsHandler struct{}

func (*StringsHandler) Key() string  { return "response_strings" }
func (*StringsHandler) Default() any { return []any{} }

func (*StringsHandler) Action(t Test, item, _ any) error {
	want, err := resolveExpected(t, item)
	if err != nil {
		return err
	}
	body := t.Output()
	if want.regex {
		ok, err := want.matchString(body)
		if err != nil {
			return err
		}
		if !ok {
			return failure.Assertf("'%s' not matched in %s", want, t.Excerpt())
		}
		return nil
	}
	if !strings.Contains(body, want.String()) {
		return failure.Assertf("'%s' not found in %s", want, t.Excerpt())
	}
	return nil
}
