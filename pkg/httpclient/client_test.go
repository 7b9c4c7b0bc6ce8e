package httpclient

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Agent", r.UserAgent())
		w.Header().Add("Set-Cookie", "a=1; Path=/")
		w.Header().Add("Set-Cookie", "b=2")
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/echo", http.StatusFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/teapot", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	mux.HandleFunc("/host", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Host", r.Host)
	})
	mux.HandleFunc("/links", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Add("Link", "<a>; rel=a")
		w.Header().Add("Link", "<b>; rel=b")
	})
	mux.HandleFunc("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	return mux
}

func TestClientDo(t *testing.T) {
	srv := httptest.NewServer(echoHandler())
	defer srv.Close()

	c := New()
	defer c.Close()

	resp, err := c.Do(context.Background(), &Request{
		Method: "POST",
		URL:    srv.URL + "/echo",
		Header: map[string]string{"content-type": "text/plain"},
		Body:   []byte("hello"),
	})
	require.NoError(t, err)

	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "OK", resp.Reason)
	assert.Equal(t, "hello", string(resp.Body))
	assert.Equal(t, "200", resp.Header["status"])
	assert.Equal(t, "OK", resp.Header["reason"])
	assert.Equal(t, "POST", resp.Header["x-method"])
	assert.True(t, strings.HasPrefix(resp.Header["x-agent"], "httpseq/"))
	assert.Equal(t, []string{"a=1; Path=/", "b=2"}, resp.SetCookies)
	assert.Equal(t, "text/plain", resp.ContentType())
	assert.Equal(t, srv.URL+"/echo", resp.URL)
}

func TestClientHostHeader(t *testing.T) {
	srv := httptest.NewServer(echoHandler())
	defer srv.Close()

	c := New()
	defer c.Close()

	resp, err := c.Do(context.Background(), &Request{
		URL:    srv.URL + "/host",
		Header: map[string]string{"host": "vhost.example"},
	})
	require.NoError(t, err)
	assert.Equal(t, "vhost.example", resp.Header["x-host"])
}

func TestClientJoinsRepeatedHeaders(t *testing.T) {
	srv := httptest.NewServer(echoHandler())
	defer srv.Close()

	c := New()
	defer c.Close()

	resp, err := c.Do(context.Background(), &Request{URL: srv.URL + "/links"})
	require.NoError(t, err)
	assert.Equal(t, "<a>; rel=a, <b>; rel=b", resp.Header["link"])

	resp, err = c.Do(context.Background(), &Request{URL: srv.URL + "/echo"})
	require.NoError(t, err)
	assert.Equal(t, "b=2", resp.Header["set-cookie"])
}

func TestClientUserAgentOverride(t *testing.T) {
	srv := httptest.NewServer(echoHandler())
	defer srv.Close()

	resp, err := New().Do(context.Background(), &Request{
		URL:    srv.URL + "/echo",
		Header: map[string]string{"User-Agent": "custom/1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "custom/1", resp.Header["x-agent"])

	resp, err = New(WithUserAgent("other/2")).Do(context.Background(), &Request{URL: srv.URL + "/echo"})
	require.NoError(t, err)
	assert.Equal(t, "other/2", resp.Header["x-agent"])
}

func TestClientRedirectsPerRequest(t *testing.T) {
	srv := httptest.NewServer(echoHandler())
	defer srv.Close()
	c := New()

	resp, err := c.Do(context.Background(), &Request{URL: srv.URL + "/redirect", Redirects: true})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, srv.URL+"/echo", resp.URL)

	// The next request on the same client does not inherit the setting.
	resp, err = c.Do(context.Background(), &Request{URL: srv.URL + "/redirect"})
	require.NoError(t, err)
	assert.Equal(t, 302, resp.Status)
	assert.Equal(t, "/echo", resp.Header["location"])
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(echoHandler())
	defer srv.Close()

	_, err := New().Do(context.Background(), &Request{URL: srv.URL + "/slow", Timeout: 50 * time.Millisecond})
	require.Error(t, err)
}

func TestClientReason(t *testing.T) {
	srv := httptest.NewServer(echoHandler())
	defer srv.Close()

	resp, err := New().Do(context.Background(), &Request{URL: srv.URL + "/teapot"})
	require.NoError(t, err)
	assert.Equal(t, 418, resp.Status)
	assert.Equal(t, "I'm a teapot", resp.Reason)
}

func TestClientCertValidate(t *testing.T) {
	srv := httptest.NewTLSServer(echoHandler())
	defer srv.Close()
	c := New()

	_, err := c.Do(context.Background(), &Request{URL: srv.URL + "/echo", CertValidate: true})
	require.Error(t, err)

	resp, err := c.Do(context.Background(), &Request{URL: srv.URL + "/echo", CertValidate: false})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
}

func TestClientIntercept(t *testing.T) {
	c := New(WithIntercept(echoHandler()))

	resp, err := c.Do(context.Background(), &Request{
		Method: "PUT",
		URL:    "http://intercepted.test/echo",
		Body:   []byte("in process"),
	})
	require.NoError(t, err)
	assert.Equal(t, "in process", string(resp.Body))
	assert.Equal(t, "PUT", resp.Header["x-method"])

	resp, err = c.Do(context.Background(), &Request{URL: "http://intercepted.test/redirect", Redirects: true})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)

	_, err = c.Do(context.Background(), &Request{URL: "http://intercepted.test/panic"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestClientVerbose(t *testing.T) {
	tests := []struct {
		mode        string
		wantHeaders bool
		wantBody    bool
	}{
		{VerboseAll, true, true},
		{VerboseHeaders, true, false},
		{VerboseBody, false, true},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run("mode "+tt.mode, func(t *testing.T) {
			var buf bytes.Buffer
			c := New(WithIntercept(echoHandler()), WithVerboseOutput(&buf))
			_, err := c.Do(context.Background(), &Request{
				Method:  "POST",
				URL:     "http://intercepted.test/echo",
				Header:  map[string]string{"Content-Type": "text/plain"},
				Body:    []byte("payload-text"),
				Verbose: tt.mode,
				Caption: "echo test",
			})
			require.NoError(t, err)

			out := buf.String()
			if tt.mode == "" {
				assert.Empty(t, out)
				return
			}
			assert.Contains(t, out, "#### echo test ####")
			assert.Contains(t, out, "> POST http://intercepted.test/echo")
			assert.Contains(t, out, "< 200 OK")
			assert.Equal(t, tt.wantHeaders, strings.Contains(out, "< X-Method: POST"))
			assert.Equal(t, tt.wantBody, strings.Contains(out, "payload-text"))
		})
	}
}

func TestVerbosePrettyJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := newTracer(&buf, VerboseBody)
	tr.printBody("application/json", []byte(`{"b":1,"a":[1,2]}`))
	assert.Contains(t, buf.String(), "\n  \"a\"")
}

func TestIsConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	_, err = New().Do(context.Background(), &Request{URL: "http://" + addr + "/"})
	require.Error(t, err)
	assert.True(t, IsConnectionRefused(err))

	assert.False(t, IsConnectionRefused(io.EOF))
}
