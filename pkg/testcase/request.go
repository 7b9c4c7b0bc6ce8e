package testcase

import (
	"errors"
	"os"
	"strings"

	"github.com/getmockd/httpseq/internal/matching"
	"github.com/getmockd/httpseq/pkg/failure"
	"github.com/getmockd/httpseq/pkg/httpclient"
	"github.com/getmockd/httpseq/pkg/template"
	"github.com/getmockd/httpseq/pkg/util"
)

// templateContext is what templates in this test resolve against.
func (tc *TestCase) templateContext() *template.Context {
	ctx := &template.Context{
		Scheme:   tc.scheme,
		Netloc:   tc.netloc + tc.opts.Prefix,
		History:  tc.history,
		Replacer: tc.opts.Registry.Replace,
	}
	// A nil *TestCase must not become a non-nil interface.
	if tc.prior != nil {
		ctx.Prior = tc.prior
	}
	return ctx
}

// Resolve implements handler.Test.
func (tc *TestCase) Resolve(v any) (any, error) {
	return tc.opts.Engine.Resolve(v, tc.templateContext())
}

// ResolveRegex implements handler.Test.
func (tc *TestCase) ResolveRegex(v any) (any, error) {
	return tc.opts.Engine.ResolveRegex(v, tc.templateContext())
}

func (tc *TestCase) resolveString(s string) (string, error) {
	return tc.opts.Engine.ResolveString(s, tc.templateContext())
}

// buildRequest resolves the URL, query, headers and body of the test.
func (tc *TestCase) buildRequest() (*httpclient.Request, error) {
	full, err := tc.resolveURL()
	if err != nil {
		return nil, err
	}
	headers, err := tc.resolveHeaders()
	if err != nil {
		return nil, err
	}
	body, err := tc.encodeBody(contentType(headers))
	if err != nil {
		return nil, err
	}
	method, err := tc.resolveString(tc.spec.Method)
	if err != nil {
		return nil, err
	}
	return &httpclient.Request{
		Method:       strings.ToUpper(method),
		URL:          full,
		Header:       headers,
		Body:         body,
		Redirects:    tc.spec.Redirects,
		CertValidate: tc.spec.CertValidate,
		Timeout:      tc.opts.Timeout,
		Verbose:      tc.spec.Verbose,
		Caption:      tc.spec.Name,
	}, nil
}

// resolveURL fills in host, port and prefix for relative URLs and appends
// query parameters. The URL without the added query is kept for $URL.
func (tc *TestCase) resolveURL() (string, error) {
	raw, err := tc.resolveString(tc.spec.URL)
	if err != nil {
		return "", err
	}
	full := httpclient.CreateURL(raw, tc.opts.Host, tc.opts.Port, tc.opts.Prefix, tc.spec.SSL)
	tc.scheme, tc.netloc = httpclient.SplitURL(full)
	tc.url = full

	if len(tc.spec.QueryParameters) == 0 {
		return full, nil
	}
	resolved, err := tc.Resolve(tc.spec.QueryParameters)
	if err != nil {
		return "", err
	}
	return httpclient.AddQuery(full, resolved.(map[string]any)), nil
}

// resolveHeaders resolves header names and values.
func (tc *TestCase) resolveHeaders() (map[string]string, error) {
	out := make(map[string]string, len(tc.spec.RequestHeaders))
	for k, v := range tc.spec.RequestHeaders {
		name, err := tc.resolveString(k)
		if err != nil {
			return nil, err
		}
		value, err := tc.Resolve(v)
		if err != nil {
			return nil, err
		}
		out[name] = matching.Stringify(value)
	}
	return out, nil
}

func contentType(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, "content-type") {
			return v
		}
	}
	return ""
}

// encodeBody turns the declared data into request bytes. Strings are sent
// as text after template resolution, "<@file" loads a data file and
// anything else is encoded by the handler for the request content type.
func (tc *TestCase) encodeBody(ct string) ([]byte, error) {
	switch data := tc.spec.Data.(type) {
	case nil:
		return nil, nil
	case string:
		if data == "" {
			return nil, nil
		}
		if name, ok := strings.CutPrefix(data, "<@"); ok {
			raw, err := tc.LoadDataFile(name)
			if err != nil {
				return nil, err
			}
			if ct == "" || !httpclient.NotBinary(ct) {
				return raw, nil
			}
			text, err := tc.resolveString(string(raw))
			if err != nil {
				return nil, err
			}
			return []byte(text), nil
		}
		text, err := tc.resolveString(data)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	case map[string]any:
		if len(data) == 0 {
			return nil, nil
		}
	case []any:
		if len(data) == 0 {
			return nil, nil
		}
	}

	h := tc.opts.Registry.ContentHandler(ct)
	if h == nil {
		return nil, failure.Formatf("unable to process data to %s", ct)
	}
	resolved, err := tc.Resolve(tc.spec.Data)
	if err != nil {
		return nil, err
	}
	out, err := h.Dumps(resolved, false)
	if err != nil {
		return nil, failure.Formatf("unable to encode data as %s: %v", ct, err)
	}
	return []byte(out), nil
}

// LoadDataFile implements handler.Test. Names leaving the test directory
// are refused before any read.
func (tc *TestCase) LoadDataFile(name string) ([]byte, error) {
	path, err := util.SafeJoin(tc.opts.TestDir, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, failure.Formatf("data file %s not found", name)
		}
		return nil, err
	}
	return data, nil
}
