package matching

import (
	"fmt"
	"regexp"
)

// IsPattern reports whether an expected value is written as a regular
// expression, that is wrapped in slashes: /^ab+c$/.
func IsPattern(expected any) bool {
	s, ok := expected.(string)
	return ok && len(s) > 1 && s[0] == '/' && s[len(s)-1] == '/'
}

// PatternBody strips the delimiting slashes from a pattern.
func PatternBody(pattern string) string {
	if len(pattern) > 1 && pattern[0] == '/' && pattern[len(pattern)-1] == '/' {
		return pattern[1 : len(pattern)-1]
	}
	return pattern
}

// MatchPattern compiles pattern (without delimiters) and searches actual for
// it. Uses Go's regexp package with RE2 syntax.
func MatchPattern(pattern, actual string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid regular expression /%s/: %w", pattern, err)
	}
	return re.MatchString(actual), nil
}
