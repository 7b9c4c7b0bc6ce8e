// Package matching compares expected values from test documents with actual
// values extracted from HTTP responses.
//
// Expected values are plain values compared with numeric coercion
// (ValuesEqual) or regular expressions delimited by slashes (IsPattern,
// MatchPattern) searched in the stringified actual value (Stringify).
package matching
