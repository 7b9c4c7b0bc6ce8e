package httpclient

import (
	"net"
	"net/url"
	"sort"
	"strings"

	"github.com/getmockd/httpseq/internal/matching"
)

// CreateURL builds an absolute URL from a test url. A url that already has a
// scheme is returned unchanged. Otherwise host, port and prefix fill in the
// rest; port is omitted when it is the default for the scheme and IPv6
// hosts are bracketed.
func CreateURL(base, host, port, prefix string, ssl bool) string {
	if u, err := url.Parse(base); err == nil && u.Scheme != "" {
		return base
	}
	scheme := "http"
	if ssl {
		scheme = "https"
	}

	netloc := host
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		netloc = "[" + host + "]"
	}
	if port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
		netloc = net.JoinHostPort(strings.Trim(netloc, "[]"), port)
	}

	prefix = strings.TrimRight(prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if base != "" && !strings.HasPrefix(base, "/") && !strings.HasPrefix(base, "?") {
		base = "/" + base
	}
	return scheme + "://" + netloc + prefix + base
}

// SplitURL returns the scheme and netloc of an absolute URL.
func SplitURL(raw string) (scheme, netloc string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", ""
	}
	return u.Scheme, u.Host
}

// AddQuery appends params to the query of raw. Keys are sorted; list values
// repeat the key. Existing query parameters are kept in place.
func AddQuery(raw string, params map[string]any) string {
	if len(params) == 0 {
		return raw
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		values, ok := params[k].([]any)
		if !ok {
			values = []any{params[k]}
		}
		for _, v := range values {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(matching.Stringify(v)))
		}
	}

	base, fragment, _ := strings.Cut(raw, "#")
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
		if strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&") {
			sep = ""
		}
	}
	out := base + sep + strings.Join(parts, "&")
	if fragment != "" {
		out += "#" + fragment
	}
	return out
}
