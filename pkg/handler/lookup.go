package handler

import (
	"fmt"
	"sort"
	"strings"
)

// optional lists the handlers that can be added by name.
var optional = map[string]func() any{
	"html":       func() any { return &HTMLHandler{} },
	"xml":        func() any { return &XMLHandler{} },
	"form":       func() any { return &FormHandler{} },
	"jsonschema": func() any { return &SchemaHandler{} },
	"expr":       func() any { return &ExprHandler{} },
}

// Lookup returns a new instance of the optional handler called name.
func Lookup(name string) (any, bool) {
	ctor, ok := optional[name]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// Names lists the optional handler names.
func Names() []string {
	names := make([]string, 0, len(optional))
	for k := range optional {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// YAMLDisk is the name that swaps the core JSON handler for one reading
// "<@file" data files as YAML.
const YAMLDisk = "yaml-disk"

// Build creates a registry of the core handlers followed by the optional
// handlers named, in order.
func Build(names ...string) (*Registry, error) {
	core := Core()
	var extra []any
	for _, name := range names {
		if name == YAMLDisk {
			for i, h := range core {
				if _, ok := h.(*JSONHandler); ok {
					core[i] = NewJSONHandler(WithYAMLDisk())
				}
			}
			continue
		}
		h, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown response handler %q (valid: %s, %s)", name, strings.Join(Names(), ", "), YAMLDisk)
		}
		extra = append(extra, h)
	}
	return NewRegistry(append(core, extra...)...)
}
