package template

// Referent is a test case whose request and response a template may refer to.
type Referent interface {
	// URL is the request URL after template resolution and before query
	// parameters were merged in.
	URL() string
	// ResponseHeader returns a response header, matched case-insensitively.
	ResponseHeader(name string) (string, bool)
	// SetCookies returns every Set-Cookie header of the response.
	SetCookies() []string
	// ContentType is the response media type.
	ContentType() string
	// ResponseData is the response body as decoded by its content handler.
	ResponseData() any
}

// History finds referents by test name.
type History interface {
	Lookup(name string) (Referent, bool)
}

// ResponseReplacer extracts the value at path from response data of the
// given content type. It backs $RESPONSE tokens.
type ResponseReplacer func(contentType string, data any, path string) (any, error)

// Context holds the run-time data templates are resolved against.
type Context struct {
	// Scheme and Netloc describe the current test's request. Netloc
	// includes the mount prefix.
	Scheme string
	Netloc string

	// Prior is the test immediately before the current one, or nil.
	Prior Referent

	// History resolves $HISTORY["name"] qualifiers. May be nil.
	History History

	// Replacer resolves $RESPONSE paths. When nil the path itself is
	// substituted.
	Replacer ResponseReplacer
}

func (c *Context) referent(name string) (Referent, error) {
	if name != "" {
		if c.History == nil {
			return nil, errNoHistory(name)
		}
		ref, ok := c.History.Lookup(name)
		if !ok {
			return nil, errNoHistory(name)
		}
		return ref, nil
	}
	if c.Prior == nil {
		return nil, errNoPrior
	}
	return c.Prior, nil
}
