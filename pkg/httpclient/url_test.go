package httpclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateURL(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		host   string
		port   string
		prefix string
		ssl    bool
		want   string
	}{
		{"simple", "/foo/bar", "test.host.com", "", "", false, "http://test.host.com/foo/bar"},
		{"ssl", "/foo/bar", "test.host.com", "", "", true, "https://test.host.com/foo/bar"},
		{"prefix", "/foo/bar", "test.host.com", "", "/zoom", false, "http://test.host.com/zoom/foo/bar"},
		{"prefix trailing slash", "/foo/bar", "test.host.com", "", "zoom/", false, "http://test.host.com/zoom/foo/bar"},
		{"port", "/foo/bar", "test.host.com", "8000", "", false, "http://test.host.com:8000/foo/bar"},
		{"default http port", "/foobar", "h", "80", "", false, "http://h/foobar"},
		{"default https port", "/foobar", "h", "443", "", true, "https://h/foobar"},
		{"443 without ssl", "/foobar", "h", "443", "", false, "http://h:443/foobar"},
		{"80 with ssl", "/foobar", "h", "80", "", true, "https://h:80/foobar"},
		{"full url", "http://example.com/house", "h", "8000", "/p", false, "http://example.com/house"},
		{"ipv6", "/foobar", "::1", "80", "", true, "https://[::1]:80/foobar"},
		{"ipv6 default port", "/foobar", "::1", "80", "", false, "http://[::1]/foobar"},
		{"ipv6 full url", "http://[2001:4860:4860::8888]/foobar", "::1", "80", "", true, "http://[2001:4860:4860::8888]/foobar"},
		{"ipv6 no double colon", "/foobar", "FEDC:BA98:7654:3210:FEDC:BA98:7654:3210", "8000", "", true,
			"https://[FEDC:BA98:7654:3210:FEDC:BA98:7654:3210]:8000/foobar"},
		{"relative path", "foo", "h", "", "", false, "http://h/foo"},
		{"query only", "?a=1", "h", "", "/p", false, "http://h/p?a=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CreateURL(tt.base, tt.host, tt.port, tt.prefix, tt.ssl))
		})
	}
}

func TestAddQuery(t *testing.T) {
	params := map[string]any{"y": 2, "x": 1}

	assert.Equal(t, "http://h:8000/foobar?x=1&y=2", AddQuery("http://h:8000/foobar", params))
	assert.Equal(t, "http://h/foobar?alpha=beta&x=1&y=2", AddQuery("http://h/foobar?alpha=beta", params))
	assert.Equal(t, "http://h/f?x=1&y=2", AddQuery("http://h/f?", params))
	assert.Equal(t, "http://h/f?a=1&a=two&b=c+d", AddQuery("http://h/f", map[string]any{
		"a": []any{1, "two"},
		"b": "c d",
	}))
	assert.Equal(t, "http://h/f", AddQuery("http://h/f", nil))
}

func TestSplitURL(t *testing.T) {
	scheme, netloc := SplitURL("https://[::1]:8443/a")
	assert.Equal(t, "https", scheme)
	assert.Equal(t, "[::1]:8443", netloc)
}

func TestNotBinary(t *testing.T) {
	for ct, want := range map[string]bool{
		"text/plain":                      true,
		"text/html; charset=utf-8":        true,
		"application/json":                true,
		"application/vnd.custom+json":     true,
		"application/atom+xml":            true,
		"application/javascript":          true,
		"application/octet-stream":        false,
		"image/png":                       false,
		"application/json; charset=utf-8": true,
	} {
		assert.Equal(t, want, NotBinary(ct), ct)
	}
}

func TestParseContentType(t *testing.T) {
	mt, cs := ParseContentType("Text/HTML; Charset=ISO-8859-1")
	assert.Equal(t, "text/html", mt)
	assert.Equal(t, "iso-8859-1", cs)

	mt, cs = ParseContentType("application/json;;;")
	assert.Equal(t, "application/json", mt)
	assert.Equal(t, "", cs)
}

func TestDecode(t *testing.T) {
	latin1 := []byte{'c', 'a', 'f', 0xe9}
	assert.Equal(t, "café", Decode(latin1, "text/plain; charset=iso-8859-1"))
	assert.Equal(t, "café", Decode([]byte("café"), "text/plain; charset=utf-8"))
	assert.Equal(t, "", Decode(nil, "text/plain"))

	raw := []byte{0x00, 0xff}
	assert.Equal(t, string(raw), Decode(raw, "application/octet-stream"))
}
