package simpleapp

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, app *App, method, target, contentType, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec.Result()
}

func TestAppReflectsQuery(t *testing.T) {
	resp := serve(t, New(), "GET", "http://example.com/foo?a=1&a=2&b=x", "", "")
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "GET", resp.Header.Get("X-Httpseq-Method"))
	assert.Equal(t, "http://example.com/foo?a=1&a=2&b=x", resp.Header.Get("X-Httpseq-URL"))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"a":["1","2"],"b":["x"]}`, string(body))
}

func TestAppPostMergesJSON(t *testing.T) {
	resp := serve(t, New(), "POST", "http://example.com/things?q=1", "application/json", `{"name":"cow"}`)
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, "http://example.com/things?q=1", resp.Header.Get("Location"))
	assert.JSONEq(t, `{"q":["1"],"name":"cow"}`, string(body))
}

func TestAppPostWithoutContentType(t *testing.T) {
	resp := serve(t, New(), "POST", "http://example.com/", "", "data")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAppMethodNotAllowed(t *testing.T) {
	resp := serve(t, New(), "OPTIONS", "http://example.com/", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "GET, PUT, POST, DELETE, PATCH", resp.Header.Get("Allow"))
}

func TestAppPoll(t *testing.T) {
	app := New()
	for i := 1; i < PollAfter; i++ {
		assert.Equal(t, 404, serve(t, app, "GET", "http://example.com/poll/x", "", "").StatusCode)
	}
	assert.Equal(t, 200, serve(t, app, "GET", "http://example.com/poll/x", "", "").StatusCode)
	assert.Equal(t, 404, serve(t, app, "GET", "http://example.com/poll/y", "", "").StatusCode)
	assert.Equal(t, PollAfter+1, app.Requests())
}

func TestAppSpecialPaths(t *testing.T) {
	app := New()

	resp := serve(t, app, "GET", "http://example.com/cookie", "", "")
	require.Len(t, resp.Cookies(), 2)

	resp = serve(t, app, "GET", "http://example.com/redirect", "", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp = serve(t, app, "GET", "http://example.com/status/418", "", "")
	assert.Equal(t, 418, resp.StatusCode)

	resp = serve(t, app, "GET", "http://example.com/html", "", "")
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
}
