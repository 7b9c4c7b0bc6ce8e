package testcase

import (
	"errors"
	"time"

	"github.com/getmockd/httpseq/pkg/failure"
)

// Outcome is how a test ended.
type Outcome int

const (
	Passed Outcome = iota
	Failed
	ExpectedFailure
	UnexpectedSuccess
	Skipped
	Errored
)

func (o Outcome) String() string {
	switch o {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case ExpectedFailure:
		return "expected failure"
	case UnexpectedSuccess:
		return "unexpected success"
	case Skipped:
		return "skipped"
	case Errored:
		return "errored"
	}
	return "unknown"
}

// Successful reports whether the outcome leaves a run green.
func (o Outcome) Successful() bool {
	return o == Passed || o == ExpectedFailure || o == Skipped
}

// Result is the record of one test run.
type Result struct {
	Name    string
	Desc    string
	Outcome Outcome
	// Err is the failure or error, nil for passes and skips.
	Err error
	// Reason explains a skip.
	Reason   string
	Attempts int
	Duration time.Duration
}

// Recorder receives results.
type Recorder interface {
	Record(Result)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(Result)

func (f RecorderFunc) Record(r Result) { f(r) }

// Discard is a Recorder that drops results. It is used when priming a
// test's prior chain.
var Discard Recorder = RecorderFunc(func(Result) {})

// ErrCrashed marks a test whose execution panicked.
var ErrCrashed = errors.New("test crashed")

// classify maps the error of an execution to an outcome, honoring xfail.
func classify(err error, xfail bool) Outcome {
	switch {
	case xfail && err == nil:
		return UnexpectedSuccess
	case xfail:
		return ExpectedFailure
	case err == nil:
		return Passed
	case failure.IsAssertion(err):
		return Failed
	default:
		return Errored
	}
}
