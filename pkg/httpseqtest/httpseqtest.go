package httpseqtest

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/getmockd/httpseq/pkg/config"
	"github.com/getmockd/httpseq/pkg/handler"
	"github.com/getmockd/httpseq/pkg/suite"
	"github.com/getmockd/httpseq/pkg/suitemaker"
	"github.com/getmockd/httpseq/pkg/testcase"
)

// Options configure a run.
type Options struct {
	// Target is host[:port] or a URL. It is ignored when Handler is set.
	Target string
	Prefix string

	// Handler receives every request in process instead of the network.
	Handler http.Handler

	// Handlers names optional response handlers to enable, as with
	// httpseq run -r.
	Handlers []string
	Arena    *suite.Arena

	// Namespace prefixes every test name.
	Namespace string
	// Overrides are test keys applied to every test that does not set
	// them itself, such as {"verbose": "all"}.
	Overrides map[string]any
	Timeout   time.Duration

	Logger *slog.Logger
}

// RunDir runs every YAML document in dir. Documents that fail to load or
// build fail the test before any request is sent.
func RunDir(t *testing.T, dir string, opts Options) {
	t.Helper()

	suites, err := suitemaker.BuildFromDir(dir, makerOptions(t, opts))
	if err != nil {
		t.Fatalf("building tests from %s: %v", dir, err)
	}
	if len(suites) == 0 {
		t.Fatalf("no test documents in %s", dir)
	}
	for _, s := range suites {
		runSuite(t, s)
	}
}

// RunFile runs the single document at path.
func RunFile(t *testing.T, path string, opts Options) {
	t.Helper()

	doc, err := config.LoadDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	mo := makerOptions(t, opts)
	mo.TestDir = filepath.Dir(path)
	s, err := suitemaker.BuildSuite(config.BaseName(path), doc, mo)
	if err != nil {
		t.Fatalf("building tests from %s: %v", path, err)
	}
	runSuite(t, s)
}

func makerOptions(t *testing.T, opts Options) suitemaker.Options {
	t.Helper()

	target, err := config.ParseTarget(opts.Target, opts.Prefix)
	if err != nil {
		t.Fatal(err)
	}
	registry, err := handler.Build(opts.Handlers...)
	if err != nil {
		t.Fatal(err)
	}
	overrides := make(map[string]any, len(opts.Overrides)+1)
	if target.SSL {
		overrides[testcase.KeySSL] = true
	}
	for k, v := range opts.Overrides {
		overrides[k] = v
	}
	return suitemaker.Options{
		Host:          target.Host,
		Port:          target.Port,
		Prefix:        target.Prefix,
		Intercept:     opts.Handler,
		Registry:      registry,
		Arena:         opts.Arena,
		Namespace:     opts.Namespace,
		Overrides:     overrides,
		Timeout:       opts.Timeout,
		VerboseOutput: testWriter{t},
		Logger:        opts.Logger,
	}
}

func runSuite(t *testing.T, s *suite.Suite) {
	t.Helper()
	t.Run(s.Name, func(t *testing.T) {
		rec := &recorder{t: t}
		if err := s.Run(context.Background(), rec); err != nil {
			t.Error(err)
		}
	})
}

// recorder reports each result as a subtest of t.
type recorder struct {
	t       *testing.T
	stopped bool
}

func (r *recorder) Record(res testcase.Result) {
	r.t.Run(res.Name, func(t *testing.T) {
		report(t, res)
	})
}

func (r *recorder) Stop()            { r.stopped = true }
func (r *recorder) ShouldStop() bool { return r.stopped }

// report turns one result into the outcome of subtest t.
func report(t testing.TB, res testcase.Result) {
	if res.Desc != "" {
		t.Log(res.Desc)
	}
	switch res.Outcome {
	case testcase.Failed, testcase.Errored:
		t.Errorf("%s: %v", res.Outcome, res.Err)
	case testcase.UnexpectedSuccess:
		t.Error("test marked xfail passed")
	case testcase.ExpectedFailure:
		t.Logf("expected failure: %v", res.Err)
	case testcase.Skipped:
		t.Skip(res.Reason)
	}
}

// testWriter sends verbose traffic to the test log.
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
