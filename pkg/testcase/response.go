package testcase

import (
	"strconv"
	"strings"

	"github.com/getmockd/httpseq/internal/matching"
	"github.com/getmockd/httpseq/pkg/failure"
	"github.com/getmockd/httpseq/pkg/handler"
	"github.com/getmockd/httpseq/pkg/httpclient"
	"github.com/getmockd/httpseq/pkg/template"
	"github.com/getmockd/httpseq/pkg/util"
)

// capture stores the response and decodes its body with the matching
// content handler.
func (tc *TestCase) capture(resp *httpclient.Response) error {
	tc.response = resp
	tc.responseData = nil
	ct := resp.ContentType()
	tc.output = httpclient.Decode(resp.Body, ct)
	tc.content = tc.opts.Registry.ContentHandler(ct)
	if tc.content == nil || tc.output == "" {
		return nil
	}
	data, err := tc.content.Loads(tc.output)
	if err != nil {
		return failure.Assertf("unable to decode response body as %s: %v: %s",
			ct, err, tc.Excerpt())
	}
	tc.responseData = data
	return nil
}

// checkStatus compares the response status with the expected code or any
// of several codes joined by "||".
func (tc *TestCase) checkStatus() error {
	expected := strings.TrimSpace(tc.spec.Status)
	if expected == "" {
		return nil
	}
	got := strconv.Itoa(tc.response.Status)
	for _, alt := range strings.Split(expected, "||") {
		if strings.TrimSpace(alt) == got {
			return nil
		}
	}
	return failure.Assertf("Expected status %s, got %s: %s", expected, got, tc.Excerpt())
}

// Name implements handler.Test.
func (tc *TestCase) Name() string { return tc.id }

// URL is the resolved URL of the last request, without added query
// parameters.
func (tc *TestCase) URL() string { return tc.url }

// Status implements handler.Test.
func (tc *TestCase) Status() int {
	if tc.response == nil {
		return 0
	}
	return tc.response.Status
}

// ResponseHeader returns a response header by case-insensitive name.
func (tc *TestCase) ResponseHeader(name string) (string, bool) {
	if tc.response == nil {
		return "", false
	}
	v, ok := tc.response.Header[strings.ToLower(name)]
	return v, ok
}

// ResponseHeaders implements handler.Test.
func (tc *TestCase) ResponseHeaders() map[string]string {
	if tc.response == nil {
		return map[string]string{}
	}
	return tc.response.Header
}

// SetCookies implements template.Referent.
func (tc *TestCase) SetCookies() []string {
	if tc.response == nil {
		return nil
	}
	return tc.response.SetCookies
}

// ContentType is the response content type.
func (tc *TestCase) ContentType() string {
	if tc.response == nil {
		return ""
	}
	return tc.response.ContentType()
}

// Output is the decoded response body.
func (tc *TestCase) Output() string { return tc.output }

// ResponseData is the decoded response body structure, or nil.
func (tc *TestCase) ResponseData() any { return tc.responseData }

// Excerpt is the response body for failure messages: pretty-printed by the
// content handler when possible and truncated to the output budget.
func (tc *TestCase) Excerpt() string {
	out := tc.output
	if tc.content != nil && tc.responseData != nil {
		if pretty, err := tc.content.Dumps(tc.responseData, true); err == nil {
			out = pretty
		}
	}
	out, _ = util.TruncateBody(out, tc.opts.MaxChars)
	return out
}

func toString(v any) string { return matching.Stringify(v) }

var (
	_ handler.Test      = (*TestCase)(nil)
	_ template.Referent = (*TestCase)(nil)
)
