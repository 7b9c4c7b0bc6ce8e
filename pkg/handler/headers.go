package handler

import (
	"sort"
	"strings"

	"github.com/getmockd/httpseq/internal/matching"
	"github.com/getmockd/httpseq/pkg/failure"
)

// HeadersHandler checks response_headers: a mapping of header name to
// expected value or /regex/. Names are case-insensitive.
type HeadersHandler struct{}

func (*HeadersHandler) Key() string  { return "response_headers" }
func (*HeadersHandler) Default() any { return map[string]any{} }

func (*HeadersHandler) Action(t Test, item, value any) error {
	resolvedName, err := t.Resolve(item)
	if err != nil {
		return err
	}
	name := strings.ToLower(matching.Stringify(resolvedName))

	want, err := resolveExpected(t, value)
	if err != nil {
		return err
	}

	actual, ok := t.ResponseHeader(name)
	if !ok {
		return failure.Assertf("'%s' header not present in response: %s", name, headerNames(t))
	}
	ok, err = want.matchString(actual)
	if err != nil {
		return err
	}
	if !ok {
		if want.regex {
			return failure.Assertf("Expect header %s to match %s, got %s", name, want, actual)
		}
		return failure.Assertf("Expect header %s with value %s, got %s", name, want, actual)
	}
	return nil
}

// ForbiddenHeadersHandler checks response_forbidden_headers: a list of
// header names that must not be in the response.
type ForbiddenHeadersHandler struct{}

func (*ForbiddenHeadersHandler) Key() string  { return "response_forbidden_headers" }
func (*ForbiddenHeadersHandler) Default() any { return []any{} }

func (*ForbiddenHeadersHandler) Action(t Test, item, _ any) error {
	resolved, err := t.Resolve(item)
	if err != nil {
		return err
	}
	name := strings.ToLower(matching.Stringify(resolved))
	if _, ok := t.ResponseHeader(name); ok {
		return failure.Assertf("Forbidden header %s found in response", name)
	}
	return nil
}

func headerNames(t Test) string {
	names := make([]string, 0)
	for k := range t.ResponseHeaders() {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
