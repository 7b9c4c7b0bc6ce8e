package httpseqtest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/httpseq/internal/simpleapp"
	"github.com/getmockd/httpseq/pkg/suite"
	"github.com/getmockd/httpseq/pkg/testcase"
)

func TestRunDir(t *testing.T) {
	app := simpleapp.New()
	RunDir(t, "testdata/docs", Options{
		Handler:  app,
		Handlers: []string{"html"},
	})
	// create, follow, three polls, known bug and links
	assert.Equal(t, 7, app.Requests())
}

func TestRunFile(t *testing.T) {
	app := simpleapp.New()
	RunFile(t, "testdata/docs/pages.yaml", Options{
		Handler:   app,
		Handlers:  []string{"html"},
		Namespace: "api",
	})
	assert.Equal(t, 1, app.Requests())
}

func TestRunDirWithFixture(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "fixtured.yaml", "fixtures:\n  - counter\ntests:\n  - name: one\n    GET: /\n")

	var starts, stops int
	arena := suite.NewArena(nil)
	arena.Register("counter", func() suite.Fixture {
		return suite.FixtureFuncs{
			StartFunc: func(context.Context) error { starts++; return nil },
			StopFunc:  func(context.Context) error { stops++; return nil },
		}
	})

	RunDir(t, dir, Options{Handler: simpleapp.New(), Arena: arena})
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops)
}

// fakeTB records what report does to a test.
type fakeTB struct {
	testing.TB
	errors  []string
	logs    []string
	skipped string
}

func (f *fakeTB) Error(args ...any)                 { f.errors = append(f.errors, fmt.Sprint(args...)) }
func (f *fakeTB) Errorf(format string, args ...any) { f.errors = append(f.errors, fmt.Sprintf(format, args...)) }
func (f *fakeTB) Log(args ...any)                   { f.logs = append(f.logs, fmt.Sprint(args...)) }
func (f *fakeTB) Logf(format string, args ...any)   { f.logs = append(f.logs, fmt.Sprintf(format, args...)) }
func (f *fakeTB) Skip(args ...any)                  { f.skipped = fmt.Sprint(args...) }

func TestReport(t *testing.T) {
	boom := errors.New("Expected status 200, got 500")

	tests := []struct {
		name    string
		res     testcase.Result
		errors  []string
		logs    []string
		skipped string
	}{
		{
			name: "passed",
			res:  testcase.Result{Outcome: testcase.Passed, Desc: "says hi"},
			logs: []string{"says hi"},
		},
		{
			name:   "failed",
			res:    testcase.Result{Outcome: testcase.Failed, Err: boom},
			errors: []string{"failed: Expected status 200, got 500"},
		},
		{
			name:   "errored",
			res:    testcase.Result{Outcome: testcase.Errored, Err: boom},
			errors: []string{"errored: Expected status 200, got 500"},
		},
		{
			name:   "unexpected success",
			res:    testcase.Result{Outcome: testcase.UnexpectedSuccess},
			errors: []string{"test marked xfail passed"},
		},
		{
			name: "expected failure",
			res:  testcase.Result{Outcome: testcase.ExpectedFailure, Err: boom},
			logs: []string{"expected failure: Expected status 200, got 500"},
		},
		{
			name:    "skipped",
			res:     testcase.Result{Outcome: testcase.Skipped, Reason: "later"},
			skipped: "later",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeTB{TB: t}
			report(f, tt.res)
			assert.Equal(t, tt.errors, f.errors)
			assert.Equal(t, tt.logs, f.logs)
			assert.Equal(t, tt.skipped, f.skipped)
		})
	}
}

func TestRecorderStop(t *testing.T) {
	r := &recorder{t: t}
	require.False(t, r.ShouldStop())
	r.Stop()
	assert.True(t, r.ShouldStop())
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}
