package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/getmockd/httpseq/internal/matching"
	"github.com/getmockd/httpseq/pkg/failure"
)

// HTMLHandler is the content handler for HTML and the response handler for
// response_html, a mapping of CSS selector to expectation.
//
// A selector may end in @attr to address an attribute. An integer
// expectation is the number of matching elements (each of which must carry
// attr when given). Any other expectation is compared with the text, or
// attribute value, of the single matching element.
type HTMLHandler struct{}

func (*HTMLHandler) Key() string  { return "response_html" }
func (*HTMLHandler) Default() any { return map[string]any{} }

func (*HTMLHandler) Accepts(contentType string) bool {
	mt := MediaType(contentType)
	return mt == "text/html" || mt == "application/xhtml+xml"
}

func (*HTMLHandler) Loads(raw string) (any, error) {
	return html.Parse(strings.NewReader(raw))
}

func (*HTMLHandler) Dumps(data any, _ bool) (string, error) {
	switch d := data.(type) {
	case *html.Node:
		var b strings.Builder
		if err := html.Render(&b, d); err != nil {
			return "", err
		}
		return b.String(), nil
	case string:
		return d, nil
	}
	return "", fmt.Errorf("cannot encode %T as html", data)
}

// Replacer returns the text, or attribute value, of the single element
// matching path.
func (*HTMLHandler) Replacer(data any, path string) (any, error) {
	doc, ok := data.(*html.Node)
	if !ok {
		return nil, fmt.Errorf("response is not an html document")
	}
	selector, attr := splitSelector(path)
	nodes, err := selectAll(doc, selector)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("expected exactly one match for %s, got %d", selector, len(nodes))
	}
	return nodeValue(nodes[0], attr)
}

func (*HTMLHandler) Action(t Test, item, value any) error {
	doc, ok := t.ResponseData().(*html.Node)
	if !ok {
		return failure.Assertf("unable to parse HTML from test results")
	}
	resolved, err := t.Resolve(item)
	if err != nil {
		return err
	}
	selector, attr := splitSelector(matching.Stringify(resolved))
	nodes, err := selectAll(doc, selector)
	if err != nil {
		return failure.Formatf("%v", err)
	}

	if count, ok := elementCount(value); ok {
		if len(nodes) != count {
			return failure.Assertf("expected %d elements matching %s, got %d", count, selector, len(nodes))
		}
		if attr == "" {
			return nil
		}
		for _, n := range nodes {
			if _, ok := attribute(n, attr); !ok {
				return failure.Assertf("element matching %s lacks attribute %s", selector, attr)
			}
		}
		return nil
	}

	if len(nodes) != 1 {
		return failure.Assertf("expected exactly one element matching %s, got %d", selector, len(nodes))
	}
	actual, err := nodeValue(nodes[0], attr)
	if err != nil {
		return failure.Assertf("%v", err)
	}
	want, err := resolveExpected(t, value)
	if err != nil {
		return err
	}
	ok, err = want.matchString(actual.(string))
	if err != nil {
		return err
	}
	if !ok {
		return failure.Assertf("Expect %s to be %s, got %s", selector, want, actual)
	}
	return nil
}

// splitSelector separates a trailing @attr from a CSS selector. Attribute
// selectors in brackets are left alone.
func splitSelector(path string) (selector, attr string) {
	i := strings.LastIndex(path, "@")
	if i < 0 || strings.Contains(path[i:], "]") {
		return path, ""
	}
	return path[:i], path[i+1:]
}

func selectAll(doc *html.Node, selector string) ([]*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %s: %w", selector, err)
	}
	return sel.MatchAll(doc), nil
}

func elementCount(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

func nodeValue(n *html.Node, attr string) (any, error) {
	if attr == "" {
		return strings.TrimSpace(textContent(n)), nil
	}
	v, ok := attribute(n, attr)
	if !ok {
		return nil, fmt.Errorf("no attribute %s on <%s>", attr, n.Data)
	}
	return v, nil
}

func attribute(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// textContent returns the full text content of n.
func textContent(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.ElementNode:
		s := ""
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			cs := textContent(child)
			if cs != "" {
				if s != "" && s[len(s)-1] != ' ' {
					s += " "
				}
				s += cs
			}
		}
		return s
	}
	return ""
}
