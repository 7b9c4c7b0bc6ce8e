package httpclient

import (
	"bytes"
	"io"
	"mime"
	"strings"

	"golang.org/x/net/html/charset"
)

// ParseContentType splits a Content-Type value into its lower-cased media
// type and charset parameter. Malformed parameters are ignored.
func ParseContentType(contentType string) (mediaType, cs string) {
	mt, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
		return strings.ToLower(strings.TrimSpace(mt)), ""
	}
	return mt, strings.ToLower(params["charset"])
}

// NotBinary reports whether a content type is text that can be shown and
// searched as a string.
func NotBinary(contentType string) bool {
	mt, _ := ParseContentType(contentType)
	return strings.HasPrefix(mt, "text/") ||
		strings.HasSuffix(mt, "+xml") ||
		strings.HasSuffix(mt, "+json") ||
		mt == "application/javascript" ||
		mt == "application/json" ||
		mt == "application/xml" ||
		mt == "application/x-www-form-urlencoded"
}

// Decode returns body as a string, converting from the declared or sniffed
// charset to UTF-8. Binary content is returned unconverted.
func Decode(body []byte, contentType string) string {
	if len(body) == 0 {
		return ""
	}
	if !NotBinary(contentType) {
		return string(body)
	}
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
