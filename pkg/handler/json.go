package handler

import (
	"strings"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/httpseq/internal/matching"
	"github.com/getmockd/httpseq/pkg/failure"
)

// JSONHandler is both the content handler for JSON media types and the
// response handler for response_json_paths, a mapping of JSONPath to
// expected value.
//
// An expected value may be /regex/, matched against the stringified result,
// or "<@file" to compare against a data file next to the test document.
// "<@file:$.path" compares against a path within that file.
type JSONHandler struct {
	paths    pathCache
	loadFile func(raw []byte) (any, error)
}

// JSONOption configures a JSONHandler.
type JSONOption func(*JSONHandler)

// WithYAMLDisk makes "<@file" data files decode as YAML, a superset of
// JSON.
func WithYAMLDisk() JSONOption {
	return func(h *JSONHandler) {
		h.loadFile = func(raw []byte) (any, error) {
			var v any
			if err := yaml.Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			return v, nil
		}
	}
}

// NewJSONHandler creates a JSON handler.
func NewJSONHandler(opts ...JSONOption) *JSONHandler {
	h := &JSONHandler{
		loadFile: func(raw []byte) (any, error) { return oj.Parse(raw) },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (*JSONHandler) Key() string  { return "response_json_paths" }
func (*JSONHandler) Default() any { return map[string]any{} }

// Accepts matches application/json and any +json suffix type.
func (*JSONHandler) Accepts(contentType string) bool {
	mt := MediaType(contentType)
	return strings.HasPrefix(mt, "application/json") || strings.HasSuffix(mt, "+json")
}

func (*JSONHandler) Loads(raw string) (any, error) {
	return oj.ParseString(raw)
}

func (*JSONHandler) Dumps(data any, pretty bool) (string, error) {
	opts := &ojg.Options{Sort: true}
	if pretty {
		opts.Indent = 2
	}
	b, err := oj.Marshal(data, opts)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *JSONHandler) Replacer(data any, path string) (any, error) {
	return h.paths.extract(data, path)
}

// Extract evaluates a JSONPath against decoded data.
func (h *JSONHandler) Extract(data any, path string) (any, error) {
	return h.paths.extract(data, path)
}

func (h *JSONHandler) Action(t Test, item, value any) error {
	resolvedPath, err := t.Resolve(item)
	if err != nil {
		return err
	}
	path := matching.Stringify(resolvedPath)

	data := t.ResponseData()
	if data == nil {
		return failure.Assertf("unable to extract JSON from test results")
	}
	match, err := h.paths.extract(data, path)
	if err != nil {
		return failure.Assertf("left hand side json path %s cannot match %s", path, t.Excerpt())
	}

	if s, ok := value.(string); ok && strings.HasPrefix(s, "<@") {
		expected, err := h.fromFile(t, s[2:])
		if err != nil {
			return err
		}
		return compareJSON(path, expected, match)
	}

	want, err := resolveExpected(t, value)
	if err != nil {
		return err
	}
	if want.regex {
		ok, err := want.matchString(matching.Stringify(match))
		if err != nil {
			return err
		}
		if !ok {
			return failure.Assertf("Expect jsonpath %s to match %s, got %s", path, want, matching.Stringify(match))
		}
		return nil
	}
	return compareJSON(path, want.value, match)
}

// fromFile loads the expected value for "<@name" or "<@name:$.path".
func (h *JSONHandler) fromFile(t Test, ref string) (any, error) {
	name, rhsPath := ref, ""
	if i := strings.Index(ref, ":$"); i >= 0 {
		name, rhsPath = ref[:i], ref[i+1:]
	}
	raw, err := t.LoadDataFile(name)
	if err != nil {
		return nil, err
	}
	data, err := h.loadFile(raw)
	if err != nil {
		return nil, failure.Formatf("unable to decode data file %s: %v", name, err)
	}
	if rhsPath == "" {
		return t.Resolve(data)
	}
	resolved, err := t.Resolve(rhsPath)
	if err != nil {
		return nil, err
	}
	rhsPath = matching.Stringify(resolved)
	rhs, err := h.paths.extract(data, rhsPath)
	if err != nil {
		return nil, failure.Assertf("right hand side json path %s cannot match %s", rhsPath, matching.Stringify(data))
	}
	return rhs, nil
}

func compareJSON(path string, expected, actual any) error {
	if !matching.ValuesEqual(expected, actual) {
		return failure.Assertf("Unable to match %s as %s, got %s",
			path, matching.Stringify(expected), matching.Stringify(actual))
	}
	return nil
}
