// Package simpleapp is a small HTTP application used as the system under
// test in this module's tests. It reflects requests back to the caller.
//
// Every response carries X-Httpseq-Method and X-Httpseq-URL. The body is
// the query string as a JSON object of lists; for POST, PUT and PATCH a
// JSON request body is merged in and a Location header points back at the
// request URL. The response Content-Type is the request's Accept header,
// or application/json.
//
// A few paths behave differently:
//
//	/cookie        sets two cookies
//	/redirect      302 to /
//	/status/{code} responds with code
//	/poll/{name}   404 until the third request for name, then 200
//	/html          a small HTML page
package simpleapp

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

// Methods the app accepts. Anything else is 405.
var Methods = []string{"GET", "PUT", "POST", "DELETE", "PATCH"}

// PollAfter is how many requests a /poll path needs before it succeeds.
const PollAfter = 3

const htmlPage = `<!DOCTYPE html>
<html><head><title>Simple</title></head>
<body><div id="main"><a class="link" href="/one">one</a><a class="link" href="/two">two</a></div></body>
</html>`

// App is the reflecting application.
type App struct {
	mu       sync.Mutex
	requests int
	polls    map[string]int
}

// New creates an app.
func New() *App {
	return &App{polls: make(map[string]int)}
}

// Requests returns how many requests the app has served.
func (a *App) Requests() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.requests++
	a.mu.Unlock()

	method := strings.ToUpper(r.Method)
	requestURL := fullyQualify(r)
	contentType := r.Header.Get("Accept")
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("X-Httpseq-Method", method)
	w.Header().Set("X-Httpseq-URL", requestURL)
	w.Header().Set("Content-Type", contentType)

	if !allowed(method) {
		w.Header().Set("Allow", strings.Join(Methods, ", "))
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	switch {
	case r.URL.Path == "/cookie":
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc123", Path: "/", HttpOnly: true})
		http.SetCookie(w, &http.Cookie{Name: "flavor", Value: "oatmeal", MaxAge: 60})
	case r.URL.Path == "/redirect":
		w.Header().Set("Location", "/")
		w.WriteHeader(http.StatusFound)
		return
	case strings.HasPrefix(r.URL.Path, "/status/"):
		code, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/status/"))
		if err != nil {
			code = http.StatusBadRequest
		}
		w.WriteHeader(code)
		return
	case strings.HasPrefix(r.URL.Path, "/poll/"):
		if !a.pollReady(strings.TrimPrefix(r.URL.Path, "/poll/")) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	case r.URL.Path == "/html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, htmlPage)
		return
	}

	data := map[string]any{}
	for k, vs := range r.URL.Query() {
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		data[k] = list
	}

	if strings.HasPrefix(method, "P") {
		body, _ := io.ReadAll(r.Body)
		if len(body) > 0 {
			reqType := r.Header.Get("Content-Type")
			if reqType == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if strings.HasPrefix(reqType, "application/json") {
				parsed, err := oj.Parse(body)
				if err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				if m, ok := parsed.(map[string]any); ok {
					for k, v := range m {
						data[k] = v
					}
				} else {
					writeJSON(w, parsed)
					return
				}
			}
		}
		w.Header().Set("Location", requestURL)
	}

	writeJSON(w, data)
}

func (a *App) pollReady(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.polls[name]++
	return a.polls[name] >= PollAfter
}

func writeJSON(w http.ResponseWriter, data any) {
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, oj.JSON(data, &ojg.Options{Sort: true}))
}

func allowed(method string) bool {
	for _, m := range Methods {
		if m == method {
			return true
		}
	}
	return false
}

// fullyQualify rebuilds the absolute request URL, omitting default ports.
func fullyQualify(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if h, port, ok := strings.Cut(host, ":"); ok && !strings.Contains(port, ":") &&
		((scheme == "http" && port == "80") || (scheme == "https" && port == "443")) {
		host = h
	}
	u := url.URL{Scheme: scheme, Host: host, Path: r.URL.Path, RawQuery: r.URL.RawQuery}
	return u.String()
}
