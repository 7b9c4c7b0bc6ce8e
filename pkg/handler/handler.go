// Package handler implements the pluggable assertion and content-type layer
// of a test case.
//
// A ResponseHandler owns one test key (response_strings, response_headers,
// ...) and checks each declared item against the response. A ContentHandler
// owns a family of media types: it decodes response bodies, encodes
// structured request bodies and resolves $RESPONSE paths. A handler may be
// both, like JSONHandler.
//
// Handlers are collected in a Registry. The registry contributes the test
// keys it knows to the default test, picks the content handler for a media
// type (first registered wins) and runs every response handler over a test
// after its request has completed.
package handler

import (
	"strings"
)

// Test is the view of a running test case available to handlers.
type Test interface {
	// Name is the canonical test name.
	Name() string

	// Resolve substitutes template tokens in v.
	Resolve(v any) (any, error)
	// ResolveRegex substitutes template tokens in v, regex-escaping the
	// substituted values.
	ResolveRegex(v any) (any, error)

	// Status is the response status code.
	Status() int
	// ResponseHeader returns a response header, case-insensitively.
	ResponseHeader(name string) (string, bool)
	// ResponseHeaders returns the normalized response headers, keyed by
	// lower-case name and including the synthetic "status" and "reason".
	ResponseHeaders() map[string]string
	// ContentType is the response media type.
	ContentType() string
	// Output is the decoded response body.
	Output() string
	// ResponseData is the body as decoded by the response's content
	// handler, or nil.
	ResponseData() any
	// Excerpt is the body formatted for a failure message, pretty-printed
	// when a content handler allows it and bounded in size.
	Excerpt() string

	// LoadDataFile reads a file relative to the test document's directory.
	// Paths leaving that directory are an error.
	LoadDataFile(name string) ([]byte, error)
}

// ResponseHandler checks one test key.
type ResponseHandler interface {
	// Key is the test key this handler reads, e.g. "response_strings".
	Key() string
	// Default is the empty value of the key: []any{} for list-shaped
	// keys, map[string]any{} for mapping-shaped keys. The declared value
	// must have the same shape.
	Default() any
	// Action checks one declared item. For list-shaped keys value is nil;
	// for mapping-shaped keys item is the map key and value its value.
	Action(t Test, item, value any) error
}

// Preprocessor is implemented by response handlers that need to prepare
// once per test before their actions run.
type Preprocessor interface {
	Preprocess(t Test) error
}

// ContentHandler encodes and decodes one family of media types.
type ContentHandler interface {
	// Accepts reports whether the handler understands a content type.
	Accepts(contentType string) bool
	// Loads decodes a response body.
	Loads(raw string) (any, error)
	// Dumps encodes data. With pretty set the output is stable and meant
	// for humans.
	Dumps(data any, pretty bool) (string, error)
	// Replacer extracts the value at path from decoded data.
	Replacer(data any, path string) (any, error)
}

// MediaType returns the lower-cased media type of a Content-Type value,
// without parameters.
func MediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
