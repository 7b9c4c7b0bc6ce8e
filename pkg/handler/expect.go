package handler

import (
	"github.com/getmockd/httpseq/internal/matching"
	"github.com/getmockd/httpseq/pkg/failure"
)

// expectation is a declared value after template resolution.
type expectation struct {
	value   any
	pattern string
	regex   bool
}

// resolveExpected resolves a declared value. A value written as /regex/ is
// resolved with regex escaping and kept as a pattern.
func resolveExpected(t Test, declared any) (expectation, error) {
	if matching.IsPattern(declared) {
		v, err := t.ResolveRegex(declared)
		if err != nil {
			return expectation{}, err
		}
		return expectation{pattern: matching.PatternBody(matching.Stringify(v)), regex: true}, nil
	}
	v, err := t.Resolve(declared)
	if err != nil {
		return expectation{}, err
	}
	return expectation{value: v}, nil
}

// matchString checks a string against the expectation, as a regex search or
// by string equality.
func (e expectation) matchString(actual string) (bool, error) {
	if e.regex {
		ok, err := matching.MatchPattern(e.pattern, actual)
		if err != nil {
			return false, failure.Formatf("%v", err)
		}
		return ok, nil
	}
	return matching.Stringify(e.value) == actual, nil
}

func (e expectation) String() string {
	if e.regex {
		return "/" + e.pattern + "/"
	}
	return matching.Stringify(e.value)
}
