package handler

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/httpseq/internal/matching"
)

// Suffixes that post-process a JSONPath result.
const (
	lenSuffix    = ".`len`"
	sortedSuffix = ".`sorted`"
)

// pathCache compiles JSONPath expressions once.
type pathCache struct {
	mu    sync.Mutex
	exprs map[string]jp.Expr
}

func (c *pathCache) compile(path string) (jp.Expr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if x, ok := c.exprs[path]; ok {
		return x, nil
	}
	x, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath %q: %w", path, err)
	}
	if c.exprs == nil {
		c.exprs = make(map[string]jp.Expr)
	}
	c.exprs[path] = x
	return x, nil
}

// extract evaluates path against data. One match yields the value, several
// yield a list of them, none is an error. A trailing .`len` returns the
// length of the match and .`sorted` returns a sorted copy of a list match.
func (c *pathCache) extract(data any, path string) (any, error) {
	var post func(any) (any, error)
	switch {
	case strings.HasSuffix(path, lenSuffix):
		path = strings.TrimSuffix(path, lenSuffix)
		post = length
	case strings.HasSuffix(path, sortedSuffix):
		path = strings.TrimSuffix(path, sortedSuffix)
		post = sorted
	}

	x, err := c.compile(path)
	if err != nil {
		return nil, err
	}
	results := x.Get(data)
	var match any
	switch len(results) {
	case 0:
		return nil, fmt.Errorf("JSONPath '%s' failed to match on data: '%s'", path, matching.Stringify(data))
	case 1:
		match = results[0]
	default:
		match = results
	}
	if post != nil {
		return post(match)
	}
	return match, nil
}

func length(v any) (any, error) {
	switch t := v.(type) {
	case []any:
		return len(t), nil
	case map[string]any:
		return len(t), nil
	case string:
		return utf8.RuneCountInString(t), nil
	}
	return nil, fmt.Errorf("cannot take the length of %s", matching.Stringify(v))
}

func sorted(v any) (any, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("cannot sort %s", matching.Stringify(v))
	}
	out := append([]any(nil), list...)
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := toNumber(out[i])
		b, bok := toNumber(out[j])
		if aok && bok {
			return a < b
		}
		return matching.Stringify(out[i]) < matching.Stringify(out[j])
	})
	return out, nil
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
