package handler

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/getmockd/httpseq/internal/matching"
	"github.com/getmockd/httpseq/pkg/failure"
)

// XMLHandler is the content handler for XML and the response handler for
// response_xpaths, a mapping of path to expected value or /regex/.
//
// Supported path syntax:
//   - /path/to/element - absolute path
//   - //element - find anywhere in document
//   - /path/to/element/@attr - attribute value
//   - /path/to/element[1] - indexed access (1-based)
type XMLHandler struct{}

func (*XMLHandler) Key() string  { return "response_xpaths" }
func (*XMLHandler) Default() any { return map[string]any{} }

func (*XMLHandler) Accepts(contentType string) bool {
	mt := MediaType(contentType)
	return mt == "application/xml" || mt == "text/xml" || strings.HasSuffix(mt, "+xml")
}

func (*XMLHandler) Loads(raw string) (any, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return nil, err
	}
	return doc, nil
}

func (*XMLHandler) Dumps(data any, pretty bool) (string, error) {
	switch d := data.(type) {
	case *etree.Document:
		if pretty {
			d = d.Copy()
			d.Indent(2)
		}
		return d.WriteToString()
	case string:
		return d, nil
	}
	return "", fmt.Errorf("cannot encode %T as xml", data)
}

func (*XMLHandler) Replacer(data any, path string) (any, error) {
	doc, ok := data.(*etree.Document)
	if !ok {
		return nil, fmt.Errorf("response is not an xml document")
	}
	return extractXPath(doc, path)
}

func (*XMLHandler) Action(t Test, item, value any) error {
	doc, ok := t.ResponseData().(*etree.Document)
	if !ok {
		return failure.Assertf("unable to parse XML from test results")
	}
	resolved, err := t.Resolve(item)
	if err != nil {
		return err
	}
	path := matching.Stringify(resolved)
	match, err := extractXPath(doc, path)
	if err != nil {
		return failure.Assertf("%v in %s", err, t.Excerpt())
	}
	want, err := resolveExpected(t, value)
	if err != nil {
		return err
	}
	actual := matching.Stringify(match)
	if want.regex {
		ok, err = want.matchString(actual)
		if err != nil {
			return err
		}
		if !ok {
			return failure.Assertf("Expect xpath %s to match %s, got %s", path, want, actual)
		}
		return nil
	}
	if !matching.ValuesEqual(want.value, match) && matching.Stringify(want.value) != actual {
		return failure.Assertf("Unable to match %s as %s, got %s", path, want, actual)
	}
	return nil
}

// extractXPath returns the trimmed text of the element at path, or the
// attribute value for a trailing /@attr. Several matching elements yield a
// list of their texts.
func extractXPath(doc *etree.Document, path string) (any, error) {
	if elemPath, attr, ok := strings.Cut(path, "/@"); ok {
		elem := doc.FindElement(elemPath)
		if elem == nil {
			return nil, fmt.Errorf("xpath %s matched no element", elemPath)
		}
		a := elem.SelectAttr(attr)
		if a == nil {
			return nil, fmt.Errorf("xpath %s has no attribute %s", elemPath, attr)
		}
		return a.Value, nil
	}

	elems := doc.FindElements(path)
	switch len(elems) {
	case 0:
		return nil, fmt.Errorf("xpath %s matched no element", path)
	case 1:
		return strings.TrimSpace(elems[0].Text()), nil
	}
	out := make([]any, len(elems))
	for i, e := range elems {
		out[i] = strings.TrimSpace(e.Text())
	}
	return out, nil
}
