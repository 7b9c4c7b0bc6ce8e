package runner

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/getmockd/httpseq/pkg/testcase"
)

func TestReporterLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)

	r.Record(testcase.Result{Name: "doc_ok", Desc: "all good", Outcome: testcase.Passed})
	r.Record(testcase.Result{Name: "doc_bad", Outcome: testcase.Failed, Err: errors.New("Expected status 200, got 404: Not Found\nsecond line")})
	r.Record(testcase.Result{Name: "doc_boom", Outcome: testcase.Errored, Err: errors.New("connection refused")})
	r.Record(testcase.Result{Name: "doc_skip", Outcome: testcase.Skipped, Reason: "not today"})
	r.Record(testcase.Result{Name: "doc_xfail", Outcome: testcase.ExpectedFailure})
	r.Record(testcase.Result{Name: "doc_fixed", Outcome: testcase.UnexpectedSuccess})
	r.Summary(1500 * time.Millisecond)

	want := "... ✓ doc_ok: all good\n" +
		"... ✗ doc_bad\n" +
		"... E doc_boom\n" +
		"... - doc_skip\n\t[skipped] \"not today\"\n" +
		"... o doc_xfail\n\t[expected failure]\n" +
		"... ! doc_fixed\n\t[unexpected success]\n" +
		"\n" +
		"ERROR: doc_boom\n\tconnection refused\n" +
		"FAIL: doc_bad\n\tExpected status 200, got 404: Not Found\n\tsecond line\n" +
		separator + "\n" +
		"Ran 6 tests in 1.500s\n\n" +
		"FAILED (failures=1, errors=1, skipped=1, expected failures=1, unexpected successes=1)\n"
	assert.Equal(t, want, buf.String())
	assert.False(t, r.Successful())
}

func TestReporterSuccess(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)
	r.Record(testcase.Result{Name: "doc_ok", Outcome: testcase.Passed})
	r.Summary(0)

	assert.True(t, r.Successful())
	assert.Contains(t, buf.String(), "Ran 1 test in 0.000s\n\nOK\n")
}

func TestReporterUnexpectedSuccessIsUnsuccessful(t *testing.T) {
	r := NewReporter(nil, false)
	r.Record(testcase.Result{Name: "x", Outcome: testcase.UnexpectedSuccess})
	assert.False(t, r.Successful())
}

func TestReporterFailFast(t *testing.T) {
	tests := []struct {
		outcome testcase.Outcome
		stop    bool
	}{
		{testcase.Passed, false},
		{testcase.Skipped, false},
		{testcase.ExpectedFailure, false},
		{testcase.Failed, true},
		{testcase.Errored, true},
		{testcase.UnexpectedSuccess, true},
	}

	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			r := NewReporter(nil, true)
			r.Record(testcase.Result{Name: "x", Outcome: tt.outcome})
			assert.Equal(t, tt.stop, r.ShouldStop())

			r = NewReporter(nil, false)
			r.Record(testcase.Result{Name: "x", Outcome: tt.outcome})
			assert.False(t, r.ShouldStop())
		})
	}

	r := NewReporter(nil, false)
	r.Stop()
	assert.True(t, r.ShouldStop())
}
