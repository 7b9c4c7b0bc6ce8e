package httpclient

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

const (
	requestPrefix  = ">"
	responsePrefix = "<"
)

// tracer writes verbose request and response traces.
type tracer struct {
	w       io.Writer
	headers bool
	body    bool
}

func newTracer(w io.Writer, mode string) *tracer {
	t := &tracer{w: w}
	switch mode {
	case VerboseAll, "true":
		t.headers, t.body = true, true
	case VerboseHeaders:
		t.headers = true
	case VerboseBody:
		t.body = true
	}
	return t
}

func (t *tracer) enabled() bool { return t.headers || t.body }

func (t *tracer) request(caption string, req *http.Request, body []byte) {
	if !t.enabled() {
		return
	}
	if caption != "" {
		t.line("", "#### "+caption+" ####")
	}
	t.line(requestPrefix, req.Method+" "+req.URL.String())
	t.printHeaders(requestPrefix, req.Header)
	t.printBody(req.Header.Get("Content-Type"), body)
}

func (t *tracer) response(resp *http.Response, body []byte) {
	if !t.enabled() {
		return
	}
	t.line("", "")
	t.line(responsePrefix, fmt.Sprintf("%d %s", resp.StatusCode, reason(resp)))
	t.printHeaders(responsePrefix, resp.Header)
	t.printBody(resp.Header.Get("Content-Type"), body)
	t.line("", "")
}

func (t *tracer) printHeaders(prefix string, h http.Header) {
	if !t.headers {
		return
	}
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		for _, v := range h[k] {
			t.line(prefix, k+": "+v)
		}
	}
}

// printBody writes textual bodies, pretty-printing JSON. A missing content
// type counts as text.
func (t *tracer) printBody(contentType string, body []byte) {
	if !t.body {
		return
	}
	if contentType == "" {
		contentType = "text/plain"
	}
	if !NotBinary(contentType) {
		return
	}
	content := Decode(body, contentType)
	if content != "" && isJSON(contentType) {
		if data, err := oj.ParseString(content); err == nil {
			content = oj.JSON(data, &ojg.Options{Indent: 2, Sort: true})
		}
	}
	t.line("", "")
	if content != "" {
		t.line("", content)
	}
}

func (t *tracer) line(prefix, message string) {
	if prefix != "" && message != "" {
		_, _ = fmt.Fprintf(t.w, "%s %s\n", prefix, message)
		return
	}
	_, _ = fmt.Fprintln(t.w, message)
}

func isJSON(contentType string) bool {
	mt, _ := ParseContentType(contentType)
	return strings.HasPrefix(mt, "application/json") || strings.HasSuffix(mt, "+json")
}
