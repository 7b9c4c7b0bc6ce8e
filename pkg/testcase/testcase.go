package testcase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/getmockd/httpseq/pkg/handler"
	"github.com/getmockd/httpseq/pkg/httpclient"
	"github.com/getmockd/httpseq/pkg/logging"
	"github.com/getmockd/httpseq/pkg/template"
)

// Options binds a test case to its document and environment.
type Options struct {
	// Host, Port and Prefix locate the system under test for relative
	// URLs. Port may be empty.
	Host   string
	Port   string
	Prefix string

	// Client sends the request. One client is shared by the cases of a
	// suite.
	Client *httpclient.Client
	// Registry holds the content and response handlers.
	Registry *handler.Registry
	// Engine resolves templates.
	Engine *template.Engine

	// TestDir is the directory "<@file" references are relative to.
	TestDir string
	// Prior is the case before this one in its document, or nil.
	Prior *TestCase
	// History is shared by every case of a document.
	History History

	// MaxChars bounds response bodies in failure messages. Zero uses
	// the environment or default budget.
	MaxChars int
	// Timeout bounds each request. Zero uses the client default.
	Timeout time.Duration

	Logger *slog.Logger
}

// TestCase runs one Spec. It sends its request at most once; later runs
// re-record the first result.
type TestCase struct {
	spec    Spec
	id      string
	opts    Options
	prior   *TestCase
	history History
	logger  *slog.Logger

	hasRun bool
	result Result

	// Set while running and read by later cases through templates.
	scheme       string
	netloc       string
	url          string
	response     *httpclient.Response
	output       string
	responseData any
	content      handler.ContentHandler
}

// New creates a test case named id, the canonical name of spec.
func New(id string, spec Spec, opts Options) *TestCase {
	if opts.Registry == nil {
		opts.Registry = handler.Default()
	}
	if opts.Engine == nil {
		opts.Engine = template.New()
	}
	if opts.Client == nil {
		opts.Client = httpclient.New()
	}
	if opts.History == nil {
		opts.History = History{}
	}
	tc := &TestCase{
		spec:    spec,
		id:      id,
		opts:    opts,
		prior:   opts.Prior,
		history: opts.History,
		logger:  logging.ForTest(logging.OrNop(opts.Logger), id),
	}
	tc.scheme, tc.netloc = httpclient.SplitURL(httpclient.CreateURL("", opts.Host, opts.Port, "", spec.SSL))
	return tc
}

// ID returns the canonical test name.
func (tc *TestCase) ID() string { return tc.id }

// Spec returns the test's specification.
func (tc *TestCase) Spec() Spec { return tc.spec }

// Prior returns the previous case in the document, or nil.
func (tc *TestCase) Prior() *TestCase { return tc.prior }

// HasRun reports whether the case has executed.
func (tc *TestCase) HasRun() bool { return tc.hasRun }

// Result returns the result of the first run.
func (tc *TestCase) Result() Result { return tc.result }

// Run executes the case and records its result. A case that has already
// run records its earlier result again without sending a request.
func (tc *TestCase) Run(ctx context.Context, rec Recorder) Result {
	if rec == nil {
		rec = Discard
	}
	if !tc.hasRun {
		tc.result = tc.execute(ctx)
	}
	rec.Record(tc.result)
	return tc.result
}

func (tc *TestCase) execute(ctx context.Context) (res Result) {
	start := time.Now()
	res = Result{Name: tc.id, Desc: tc.spec.Desc}
	defer func() {
		if r := recover(); r != nil {
			tc.logger.Error("test crashed", "panic", r, "stack", string(debug.Stack()))
			res.Outcome = Errored
			res.Err = fmt.Errorf("%w: %v", ErrCrashed, r)
		}
		tc.hasRun = true
		res.Duration = time.Since(start)
	}()

	if tc.spec.Skip != "" {
		res.Outcome = Skipped
		res.Reason = tc.spec.Skip
		return res
	}

	if err := tc.primePrior(ctx); err != nil {
		res.Outcome = Errored
		res.Err = err
		return res
	}

	attempts, err := tc.runWithPoll(ctx)
	res.Attempts = attempts
	res.Outcome = classify(err, tc.spec.Xfail)
	res.Err = err
	if err != nil {
		tc.logger.Debug("test did not pass", "outcome", res.Outcome.String(), "error", err)
	}
	return res
}

// primePrior runs the unrun part of the prior chain. Results go nowhere;
// only a crash in the chain stops this test.
func (tc *TestCase) primePrior(ctx context.Context) error {
	if !tc.spec.UsePriorTest || tc.prior == nil || tc.prior.hasRun {
		return nil
	}
	tc.logger.Debug("priming prior test", "prior", tc.prior.id)
	res := tc.prior.Run(ctx, Discard)
	if res.Outcome == Errored && errors.Is(res.Err, ErrCrashed) {
		return fmt.Errorf("prior test %s: %w", tc.prior.id, res.Err)
	}
	return nil
}

// attempt sends the request once and checks the response.
func (tc *TestCase) attempt(ctx context.Context) error {
	req, err := tc.buildRequest()
	if err != nil {
		return err
	}
	resp, err := tc.opts.Client.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := tc.capture(resp); err != nil {
		return err
	}
	if err := tc.checkStatus(); err != nil {
		return err
	}
	return tc.opts.Registry.Assert(tc, tc.spec.Assertions)
}
