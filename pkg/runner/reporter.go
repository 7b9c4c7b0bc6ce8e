package runner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/httpseq/pkg/testcase"
)

const separator = "----------------------------------------------------------------------"

// Symbols printed before each test name.
const (
	SymbolPassed            = "✓"
	SymbolFailed            = "✗"
	SymbolErrored           = "E"
	SymbolSkipped           = "-"
	SymbolExpectedFailure   = "o"
	SymbolUnexpectedSuccess = "!"
)

// Reporter writes concise results for one suite. It implements
// testcase.Recorder and suite.Stopper.
type Reporter struct {
	mu       sync.Mutex
	w        io.Writer
	failFast bool
	stopped  bool

	run                 int
	failures            []testcase.Result
	errors              []testcase.Result
	skipped             int
	expectedFailures    int
	unexpectedSuccesses int
}

// NewReporter creates a reporter writing to w. With failFast the reporter
// asks the suite to stop after the first unsuccessful test.
func NewReporter(w io.Writer, failFast bool) *Reporter {
	if w == nil {
		w = io.Discard
	}
	return &Reporter{w: w, failFast: failFast}
}

// Record prints the result line of one test.
func (r *Reporter) Record(res testcase.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.run++
	desc := description(res)
	switch res.Outcome {
	case testcase.Passed:
		fmt.Fprintf(r.w, "... %s %s\n", SymbolPassed, desc)
	case testcase.Failed:
		r.failures = append(r.failures, res)
		fmt.Fprintf(r.w, "... %s %s\n", SymbolFailed, desc)
	case testcase.Errored:
		r.errors = append(r.errors, res)
		fmt.Fprintf(r.w, "... %s %s\n", SymbolErrored, desc)
	case testcase.Skipped:
		r.skipped++
		fmt.Fprintf(r.w, "... %s %s\n\t[skipped] %q\n", SymbolSkipped, desc, res.Reason)
	case testcase.ExpectedFailure:
		r.expectedFailures++
		fmt.Fprintf(r.w, "... %s %s\n\t[expected failure]\n", SymbolExpectedFailure, desc)
	case testcase.UnexpectedSuccess:
		r.unexpectedSuccesses++
		fmt.Fprintf(r.w, "... %s %s\n\t[unexpected success]\n", SymbolUnexpectedSuccess, desc)
	}

	if r.failFast && !res.Outcome.Successful() {
		r.stopped = true
	}
}

// Stop asks the suite to run no more tests.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
}

// ShouldStop reports whether Stop was called or fail-fast tripped.
func (r *Reporter) ShouldStop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Successful reports whether no test failed, errored or unexpectedly
// succeeded.
func (r *Reporter) Successful() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures) == 0 && len(r.errors) == 0 && r.unexpectedSuccesses == 0
}

// Summary prints the failure and error details followed by the totals.
func (r *Reporter) Summary(elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.w)
	printErrorList(r.w, "ERROR", r.errors)
	printErrorList(r.w, "FAIL", r.failures)

	fmt.Fprintln(r.w, separator)
	plural := "s"
	if r.run == 1 {
		plural = ""
	}
	fmt.Fprintf(r.w, "Ran %d test%s in %.3fs\n\n", r.run, plural, elapsed.Seconds())

	var infos []string
	if n := len(r.failures); n > 0 {
		infos = append(infos, fmt.Sprintf("failures=%d", n))
	}
	if n := len(r.errors); n > 0 {
		infos = append(infos, fmt.Sprintf("errors=%d", n))
	}
	if r.skipped > 0 {
		infos = append(infos, fmt.Sprintf("skipped=%d", r.skipped))
	}
	if r.expectedFailures > 0 {
		infos = append(infos, fmt.Sprintf("expected failures=%d", r.expectedFailures))
	}
	if r.unexpectedSuccesses > 0 {
		infos = append(infos, fmt.Sprintf("unexpected successes=%d", r.unexpectedSuccesses))
	}

	status := "OK"
	if len(r.failures) > 0 || len(r.errors) > 0 || r.unexpectedSuccesses > 0 {
		status = "FAILED"
	}
	if len(infos) > 0 {
		fmt.Fprintf(r.w, "%s (%s)\n", status, strings.Join(infos, ", "))
	} else {
		fmt.Fprintln(r.w, status)
	}
}

func printErrorList(w io.Writer, flavor string, results []testcase.Result) {
	for _, res := range results {
		fmt.Fprintf(w, "%s: %s\n", flavor, description(res))
		if res.Err == nil {
			continue
		}
		for _, line := range strings.Split(res.Err.Error(), "\n") {
			fmt.Fprintf(w, "\t%s\n", line)
		}
	}
}

func description(res testcase.Result) string {
	if res.Desc != "" {
		return res.Name + ": " + res.Desc
	}
	return res.Name
}
