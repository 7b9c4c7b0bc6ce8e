package handler

import (
	"fmt"
	"sort"

	"github.com/getmockd/httpseq/pkg/failure"
)

// Registry holds handlers in registration order.
type Registry struct {
	response []ResponseHandler
	content  []ContentHandler
}

// NewRegistry creates a registry holding handlers. Each handler must be a
// ResponseHandler, a ContentHandler or both.
func NewRegistry(handlers ...any) (*Registry, error) {
	r := &Registry{}
	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Core returns the handlers every registry starts with: response headers,
// response strings, JSON and forbidden headers.
func Core() []any {
	return []any{
		&HeadersHandler{},
		&StringsHandler{},
		NewJSONHandler(),
		&ForbiddenHeadersHandler{},
	}
}

// Default returns a registry with the core handlers.
func Default() *Registry {
	r, _ := NewRegistry(Core()...)
	return r
}

// Register appends a handler. Two response handlers may share a key; both
// run.
func (r *Registry) Register(h any) error {
	rh, isResponse := h.(ResponseHandler)
	ch, isContent := h.(ContentHandler)
	if !isResponse && !isContent {
		return fmt.Errorf("%T is neither a response handler nor a content handler", h)
	}
	if isResponse {
		switch rh.Default().(type) {
		case []any, map[string]any:
		default:
			return fmt.Errorf("response handler %T: default for %s must be a list or a mapping", h, rh.Key())
		}
		r.response = append(r.response, rh)
	}
	if isContent {
		r.content = append(r.content, ch)
	}
	return nil
}

// ResponseHandlers returns the response handlers in registration order.
func (r *Registry) ResponseHandlers() []ResponseHandler {
	return append([]ResponseHandler(nil), r.response...)
}

// ContentHandler returns the first registered content handler accepting
// contentType, or nil.
func (r *Registry) ContentHandler(contentType string) ContentHandler {
	if contentType == "" {
		return nil
	}
	for _, h := range r.content {
		if h.Accepts(contentType) {
			return h
		}
	}
	return nil
}

// Defaults returns the test keys contributed by the response handlers with
// fresh empty values.
func (r *Registry) Defaults() map[string]any {
	out := make(map[string]any, len(r.response))
	for _, h := range r.response {
		switch h.Default().(type) {
		case []any:
			out[h.Key()] = []any{}
		default:
			out[h.Key()] = map[string]any{}
		}
	}
	return out
}

// Replace extracts path from data using the content handler for
// contentType. Without a handler the path itself is returned.
func (r *Registry) Replace(contentType string, data any, path string) (any, error) {
	h := r.ContentHandler(contentType)
	if h == nil {
		return path, nil
	}
	return h.Replacer(data, path)
}

// Assert runs every response handler against t for the values declared in
// assertions, stopping at the first error. Handlers whose key is empty are
// skipped.
func (r *Registry) Assert(t Test, assertions map[string]any) error {
	for _, h := range r.response {
		declared := assertions[h.Key()]
		if isEmpty(declared) {
			continue
		}
		if err := checkShape(t, h, declared); err != nil {
			return err
		}
		if p, ok := h.(Preprocessor); ok {
			if err := p.Preprocess(t); err != nil {
				return err
			}
		}
		switch items := declared.(type) {
		case []any:
			for _, item := range items {
				if err := h.Action(t, item, nil); err != nil {
					return err
				}
			}
		case map[string]any:
			keys := make([]string, 0, len(items))
			for k := range items {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if err := h.Action(t, k, items[k]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func checkShape(t Test, h ResponseHandler, declared any) error {
	var ok bool
	var shape string
	switch h.Default().(type) {
	case []any:
		_, ok = declared.([]any)
		shape = "list"
	default:
		_, ok = declared.(map[string]any)
		shape = "mapping"
	}
	if !ok {
		return failure.Formatf("%s in '%s' has incorrect type, must be %s", h.Key(), t.Name(), shape)
	}
	return nil
}
