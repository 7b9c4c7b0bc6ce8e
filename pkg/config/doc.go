// Package config loads httpseq test documents and the run configuration
// that surrounds them.
//
// A test document is a YAML mapping:
//
//	fixtures:
//	  - database
//	defaults:
//	  request_headers:
//	    accept: application/json
//	tests:
//	  - name: create widget
//	    POST: /widgets
//	    data: {name: cow}
//	    status: 201
//
// LoadDocument and ParseDocument return the top-level mapping with every
// nested mapping normalized to map[string]any, the shape the suite builder
// consumes. Anything that is not a mapping at the top level is a format
// error.
//
// File-based Configuration:
//
// DiscoverFiles expands the input file arguments of a run. Patterns may use
// ** for recursive matching:
//
//	files, err := config.DiscoverFiles([]string{"tests/**/*.yaml"})
//
// ParseTarget splits the target argument of a run, either host[:port] or a
// full URL, into the host, port, prefix and scheme used for relative test
// URLs.
package config
