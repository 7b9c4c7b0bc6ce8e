package util

import (
	"os"
	"strconv"
)

// MaxOutputChars is the default number of response body characters shown in
// failure messages.
const MaxOutputChars = 2000

// MaxOutputEnv names the environment variable that overrides MaxOutputChars.
const MaxOutputEnv = "HTTPSEQ_MAX_CHARS_OUTPUT"

// TruncatedMarker is appended to bodies cut by TruncateBody.
const TruncatedMarker = "\n...truncated..."

// TruncateBody truncates a string to maxSize runes, appending TruncatedMarker if truncated.
// If maxSize <= 0, uses OutputBudget.
func TruncateBody(data string, maxSize int) (string, bool) {
	if maxSize <= 0 {
		maxSize = OutputBudget()
	}
	runes := []rune(data)
	if len(runes) > maxSize {
		return string(runes[:maxSize]) + TruncatedMarker, true
	}
	return data, false
}

// OutputBudget returns the configured failure output budget.
// Unparseable or non-positive values of MaxOutputEnv are ignored.
func OutputBudget() int {
	if v, ok := os.LookupEnv(MaxOutputEnv); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return MaxOutputChars
}
