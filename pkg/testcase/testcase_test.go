package testcase

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/httpseq/internal/simpleapp"
	"github.com/getmockd/httpseq/pkg/failure"
	"github.com/getmockd/httpseq/pkg/handler"
	"github.com/getmockd/httpseq/pkg/httpclient"
	"github.com/getmockd/httpseq/pkg/util"
)

// recordingApp wraps the simple app and remembers request paths.
type recordingApp struct {
	*simpleapp.App
	mu    sync.Mutex
	paths []string
}

func (a *recordingApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.paths = append(a.paths, r.URL.Path)
	a.mu.Unlock()
	a.App.ServeHTTP(w, r)
}

// panicHandler crashes whenever response_boom is declared.
type panicHandler struct{}

func (panicHandler) Key() string  { return "response_boom" }
func (panicHandler) Default() any { return []any{} }
func (panicHandler) Action(handler.Test, any, any) error { panic("boom") }

type fixture struct {
	app      *recordingApp
	registry *handler.Registry
	client   *httpclient.Client
	history  History
	dir      string
	prior    *TestCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	app := &recordingApp{App: simpleapp.New()}
	registry := handler.Default()
	require.NoError(t, registry.Register(panicHandler{}))
	return &fixture{
		app:      app,
		registry: registry,
		client:   httpclient.New(httpclient.WithIntercept(app)),
		history:  History{},
		dir:      t.TempDir(),
	}
}

// add builds the next case of the document from overrides.
func (f *fixture) add(t *testing.T, overrides map[string]any) *TestCase {
	t.Helper()
	m := BaseDefaults()
	for k, v := range f.registry.Defaults() {
		m[k] = v
	}
	for k, v := range overrides {
		m[k] = v
	}
	spec, err := SpecFromMap(m)
	require.NoError(t, err)

	tc := New("test_"+spec.Name, spec, Options{
		Host:     "example.test",
		Client:   f.client,
		Registry: f.registry,
		TestDir:  f.dir,
		Prior:    f.prior,
		History:  f.history,
	})
	f.history[spec.Name] = tc
	f.prior = tc
	return tc
}

type collector struct{ results []Result }

func (c *collector) Record(r Result) { c.results = append(c.results, r) }

func TestRunIsIdempotent(t *testing.T) {
	f := newFixture(t)
	tc := f.add(t, map[string]any{"name": "once", "url": "/once"})

	rec := &collector{}
	first := tc.Run(context.Background(), rec)
	second := tc.Run(context.Background(), rec)

	assert.Equal(t, Passed, first.Outcome)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.app.Requests())
	assert.Len(t, rec.results, 2, "a second run records the cached result again")
	assert.True(t, tc.HasRun())
}

func TestRunPrimesPriorChainInOrder(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, map[string]any{"name": "a", "url": "/a"})
	b := f.add(t, map[string]any{"name": "b", "url": "/b"})
	c := f.add(t, map[string]any{"name": "c", "url": "/c"})

	rec := &collector{}
	res := c.Run(context.Background(), rec)

	assert.Equal(t, Passed, res.Outcome)
	assert.Equal(t, []string{"/a", "/b", "/c"}, f.app.paths)
	assert.True(t, a.HasRun())
	assert.True(t, b.HasRun())
	require.Len(t, rec.results, 1, "primed results are discarded")
	assert.Equal(t, "test_c", rec.results[0].Name)

	// Running the chain in order afterwards sends nothing new.
	a.Run(context.Background(), rec)
	b.Run(context.Background(), rec)
	assert.Equal(t, 3, f.app.Requests())
}

func TestRunWithoutPrior(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, map[string]any{"name": "a", "url": "/a"})
	b := f.add(t, map[string]any{"name": "b", "url": "/b", "use_prior_test": false})

	b.Run(context.Background(), nil)
	assert.False(t, a.HasRun())
	assert.Equal(t, []string{"/b"}, f.app.paths)
}

func TestPrimingFailureDoesNotFailLaterTest(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, map[string]any{"name": "a", "url": "/status/404"})
	b := f.add(t, map[string]any{"name": "b", "url": "/b"})

	assert.Equal(t, Passed, b.Run(context.Background(), nil).Outcome)
	assert.Equal(t, Failed, a.Result().Outcome)
}

func TestPriorCrashAbortsTest(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, map[string]any{"name": "a", "url": "/a", "response_boom": []any{"x"}})
	b := f.add(t, map[string]any{"name": "b", "url": "/b"})

	res := b.Run(context.Background(), nil)
	assert.Equal(t, Errored, res.Outcome)
	assert.True(t, errors.Is(res.Err, ErrCrashed))
	assert.Contains(t, res.Err.Error(), "prior test test_a")
	assert.Equal(t, []string{"/a"}, f.app.paths)

	assert.True(t, a.HasRun(), "a crashed case is still marked as run")
	assert.Equal(t, Errored, a.Result().Outcome)
}

func TestStatusAlternatives(t *testing.T) {
	tests := []struct {
		url  string
		want Outcome
	}{
		{"/status/200", Passed},
		{"/status/201", Passed},
		{"/status/404", Failed},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			f := newFixture(t)
			tc := f.add(t, map[string]any{"name": "alt", "url": tt.url, "status": "200 || 201"})
			res := tc.Run(context.Background(), nil)
			assert.Equal(t, tt.want, res.Outcome)
			if tt.want == Failed {
				assert.True(t, failure.IsAssertion(res.Err))
				assert.Contains(t, res.Err.Error(), "Expected status 200 || 201, got 404")
			}
		})
	}
}

func TestTemplatesAcrossTests(t *testing.T) {
	f := newFixture(t)
	f.add(t, map[string]any{
		"name":            "create",
		"method":          "POST",
		"url":             "/things",
		"request_headers": map[string]any{"content-type": "application/json"},
		"data":            map[string]any{"object": map[string]any{"name": "x"}, "tags": []any{"a", "b"}},
	})
	f.add(t, map[string]any{
		"name": "follow",
		"url":  "$LOCATION",
		"response_headers": map[string]any{
			"x-httpseq-url":    "$HISTORY['create'].$URL",
			"x-httpseq-method": "GET",
		},
	})
	last := f.add(t, map[string]any{
		"name": "use response",
		"url":  "/items/$HISTORY['create'].$RESPONSE['$.object.name']",
		"query_parameters": map[string]any{
			"tag":  "$HISTORY['create'].$RESPONSE['$.tags']",
			"prev": "$LAST_URL",
		},
		"response_headers": map[string]any{
			"content-type": "$HEADERS['content-type']",
		},
		"response_json_paths": map[string]any{
			"$.tag":  []any{"a", "b"},
			"$.prev": []any{"http://example.test/things"},
		},
		"response_strings": []any{"/^\\{/"},
	})

	res := last.Run(context.Background(), nil)
	require.NoError(t, res.Err)
	assert.Equal(t, Passed, res.Outcome)
	assert.Equal(t, "http://example.test/items/x", last.URL())
}

func TestCookieToken(t *testing.T) {
	f := newFixture(t)
	f.add(t, map[string]any{"name": "login", "url": "/cookie"})
	tc := f.add(t, map[string]any{
		"name":            "use cookie",
		"url":             "/echo",
		"request_headers": map[string]any{"cookie": "$COOKIE"},
	})

	res := tc.Run(context.Background(), nil)
	require.NoError(t, res.Err)
	assert.Equal(t, "/echo", f.app.paths[1])
}

func TestTemplateFailureIsAssertion(t *testing.T) {
	f := newFixture(t)
	tc := f.add(t, map[string]any{"name": "env", "url": "/$ENVIRON['HTTPSEQ_SURELY_UNSET']"})

	res := tc.Run(context.Background(), nil)
	assert.Equal(t, Failed, res.Outcome)
	assert.Contains(t, res.Err.Error(), "HTTPSEQ_SURELY_UNSET")
	assert.Equal(t, 0, f.app.Requests())
}

func TestDataFileTraversalGuard(t *testing.T) {
	f := newFixture(t)
	tc := f.add(t, map[string]any{
		"name":   "escape",
		"method": "POST",
		"url":    "/x",
		"data":   "<@../../etc/passwd",
	})

	res := tc.Run(context.Background(), nil)
	assert.Equal(t, Errored, res.Outcome)
	assert.True(t, errors.Is(res.Err, util.ErrOutsideDir))
	assert.Equal(t, 0, f.app.Requests())
}

func TestDataFileBody(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "body.json"), []byte(`{"from": "$ENVIRON['HTTPSEQ_BODY_VALUE']"}`), 0o600))
	t.Setenv("HTTPSEQ_BODY_VALUE", "file")

	tc := f.add(t, map[string]any{
		"name":                "file body",
		"method":              "POST",
		"url":                 "/x",
		"request_headers":     map[string]any{"content-type": "application/json"},
		"data":                "<@body.json",
		"response_json_paths": map[string]any{"$.from": "file"},
	})

	res := tc.Run(context.Background(), nil)
	require.NoError(t, res.Err)
	assert.Equal(t, Passed, res.Outcome)
}

func TestStructuredDataNeedsHandler(t *testing.T) {
	f := newFixture(t)
	tc := f.add(t, map[string]any{
		"name":            "no handler",
		"method":          "POST",
		"url":             "/x",
		"request_headers": map[string]any{"content-type": "text/plain"},
		"data":            map[string]any{"a": 1},
	})

	res := tc.Run(context.Background(), nil)
	assert.Equal(t, Errored, res.Outcome)
	assert.True(t, failure.IsFormat(res.Err))
	assert.Contains(t, res.Err.Error(), "unable to process data to text/plain")
}

func TestEmptyStructuredDataSendsNoBody(t *testing.T) {
	for _, data := range []any{map[string]any{}, []any{}} {
		f := newFixture(t)
		tc := f.add(t, map[string]any{
			"name":   "empty",
			"method": "POST",
			"url":    "/empty",
			"data":   data,
		})

		res := tc.Run(context.Background(), nil)
		require.NoError(t, res.Err)
		assert.Equal(t, Passed, res.Outcome)
		assert.Equal(t, []string{"/empty"}, f.app.paths)
	}
}

func TestPoll(t *testing.T) {
	f := newFixture(t)
	tc := f.add(t, map[string]any{
		"name": "poll",
		"url":  "/poll/ready",
		"poll": map[string]any{"count": "3", "delay": 0},
	})

	res := tc.Run(context.Background(), nil)
	require.NoError(t, res.Err)
	assert.Equal(t, Passed, res.Outcome)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, f.app.Requests())
}

func TestPollExhausted(t *testing.T) {
	f := newFixture(t)
	tc := f.add(t, map[string]any{
		"name": "poll",
		"url":  "/poll/never",
		"poll": map[string]any{"count": 2.9, "delay": "0"},
	})

	res := tc.Run(context.Background(), nil)
	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, 2, res.Attempts)
}

func TestPollBadCount(t *testing.T) {
	f := newFixture(t)
	tc := f.add(t, map[string]any{"name": "poll", "url": "/", "poll": map[string]any{"count": "many"}})

	res := tc.Run(context.Background(), nil)
	assert.Equal(t, Errored, res.Outcome)
	assert.True(t, failure.IsFormat(res.Err))
}

func TestPollRetriesRefusedConnection(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, _ := net.SplitHostPort(l.Addr().String())
	require.NoError(t, l.Close())

	spec, err := SpecFromMap(merged(map[string]any{
		"name": "refused",
		"url":  "/",
		"poll": map[string]any{"count": 2, "delay": 0},
	}))
	require.NoError(t, err)
	tc := New("refused", spec, Options{Host: host, Port: port})

	res := tc.Run(context.Background(), nil)
	assert.Equal(t, Errored, res.Outcome)
	assert.Equal(t, 2, res.Attempts)
	assert.True(t, httpclient.IsConnectionRefused(res.Err))
}

func TestXfail(t *testing.T) {
	f := newFixture(t)
	failing := f.add(t, map[string]any{"name": "fails", "url": "/status/500", "xfail": true})
	passing := f.add(t, map[string]any{"name": "passes", "url": "/", "xfail": true})

	assert.Equal(t, ExpectedFailure, failing.Run(context.Background(), nil).Outcome)
	assert.Equal(t, UnexpectedSuccess, passing.Run(context.Background(), nil).Outcome)
}

func TestSkip(t *testing.T) {
	f := newFixture(t)
	tc := f.add(t, map[string]any{"name": "skipped", "url": "/", "skip": "not today"})

	res := tc.Run(context.Background(), nil)
	assert.Equal(t, Skipped, res.Outcome)
	assert.Equal(t, "not today", res.Reason)
	assert.Equal(t, 0, f.app.Requests())
}

func TestFailureExcerptIsTruncated(t *testing.T) {
	f := newFixture(t)
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'a'
	}
	tc := f.add(t, map[string]any{
		"name":             "long",
		"url":              "/?q=" + string(long),
		"response_strings": []any{"missing"},
	})
	tc.opts.MaxChars = 20

	res := tc.Run(context.Background(), nil)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), util.TruncatedMarker)
}

func TestHistoryLookup(t *testing.T) {
	f := newFixture(t)
	tc := f.add(t, map[string]any{"name": "a", "url": "/"})

	ref, ok := f.history.Lookup("a")
	require.True(t, ok)
	assert.Same(t, tc, ref)

	_, ok = f.history.Lookup("nope")
	assert.False(t, ok)
}

func merged(overrides map[string]any) map[string]any {
	m := BaseDefaults()
	for k, v := range handler.Default().Defaults() {
		m[k] = v
	}
	for k, v := range overrides {
		m[k] = v
	}
	return m
}
