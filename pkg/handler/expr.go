package handler

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/httpseq/internal/matching"
	"github.com/getmockd/httpseq/pkg/failure"
)

// ExprHandler checks response_expressions: a list of boolean expressions
// evaluated against the response. Expressions see:
//
//	status   int                 response status code
//	headers  map[string]string   lower-cased response headers
//	body     string              decoded response body
//	json     any                 decoded body, or nil
//
// For example: status == 200 && len(json.items) > 2.
type ExprHandler struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
}

func (*ExprHandler) Key() string  { return "response_expressions" }
func (*ExprHandler) Default() any { return []any{} }

func (h *ExprHandler) Action(t Test, item, _ any) error {
	resolved, err := t.Resolve(item)
	if err != nil {
		return err
	}
	expression := matching.Stringify(resolved)

	env := map[string]any{
		"status":  t.Status(),
		"headers": t.ResponseHeaders(),
		"body":    t.Output(),
		"json":    t.ResponseData(),
	}
	program, err := h.compile(expression, env)
	if err != nil {
		return failure.Formatf("compile %q: %v", expression, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return failure.Assertf("eval %q: %v", expression, err)
	}
	ok, isBool := result.(bool)
	if !isBool {
		return failure.Formatf("expression %q returned %T, not a bool", expression, result)
	}
	if !ok {
		return failure.Assertf("Expression %s is false for %s", expression, t.Excerpt())
	}
	return nil
}

// compile caches programs by expression and the type of the json value,
// which changes from one response to the next.
func (h *ExprHandler) compile(expression string, env map[string]any) (*vm.Program, error) {
	cacheKey := expression + "\x00" + fmt.Sprintf("%T", env["json"])

	h.mu.RLock()
	program, ok := h.programs[cacheKey]
	h.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if h.programs == nil {
		h.programs = make(map[string]*vm.Program)
	}
	h.programs[cacheKey] = program
	h.mu.Unlock()
	return program, nil
}
