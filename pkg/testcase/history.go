package testcase

import "github.com/getmockd/httpseq/pkg/template"

// History maps canonical test names to the cases of one document.
type History map[string]*TestCase

// Lookup implements template.History.
func (h History) Lookup(name string) (template.Referent, bool) {
	tc, ok := h[name]
	if !ok || tc == nil {
		return nil, false
	}
	return tc, true
}
