package handler

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/getmockd/httpseq/internal/matching"
)

// FormHandler is the content handler for
// application/x-www-form-urlencoded. Decoded data is a mapping of field name
// to string, or to a list of strings for repeated fields.
type FormHandler struct{}

func (*FormHandler) Accepts(contentType string) bool {
	return MediaType(contentType) == "application/x-www-form-urlencoded"
}

func (*FormHandler) Loads(raw string) (any, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		out[k] = list
	}
	return out, nil
}

// Dumps encodes a mapping. List values repeat the field. Output is sorted
// by field name either way.
func (*FormHandler) Dumps(data any, _ bool) (string, error) {
	switch d := data.(type) {
	case string:
		return d, nil
	case map[string]any:
		values := url.Values{}
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if list, ok := d[k].([]any); ok {
				for _, v := range list {
					values.Add(k, matching.Stringify(v))
				}
				continue
			}
			values.Add(k, matching.Stringify(d[k]))
		}
		return values.Encode(), nil
	}
	return "", fmt.Errorf("cannot encode %T as a form", data)
}

// Replacer looks up a field by name.
func (*FormHandler) Replacer(data any, path string) (any, error) {
	m, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("response is not a form")
	}
	v, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("form field %s not in response", path)
	}
	return v, nil
}
