// Package suite runs the test cases of one document inside its fixtures.
package suite

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getmockd/httpseq/pkg/httpclient"
	"github.com/getmockd/httpseq/pkg/logging"
	"github.com/getmockd/httpseq/pkg/testcase"
)

// FixtureFailureReason is the skip reason of tests whose fixtures failed.
const FixtureFailureReason = "fixture failure"

// Stopper is implemented by recorders that can end a run early. Suite
// checks ShouldStop between tests and calls Stop when its fixtures fail.
type Stopper interface {
	Stop()
	ShouldStop() bool
}

// Suite is the ordered cases of one document and the fixtures they run in.
type Suite struct {
	// Name is the document base name.
	Name     string
	Cases    []*testcase.TestCase
	Fixtures []string
	Arena    *Arena
	// Client is closed when the suite has run.
	Client *httpclient.Client
	Logger *slog.Logger
}

// Run acquires the fixtures, runs every case in order and releases the
// fixtures.
//
// When a fixture asks to skip, every case is recorded as skipped. When a
// fixture fails to start, the first case is recorded as errored, every
// case as skipped and the recorder is told to stop; for a suite with no
// cases the error is returned instead. Errors stopping fixtures are
// returned.
func (s *Suite) Run(ctx context.Context, rec testcase.Recorder) error {
	if rec == nil {
		rec = testcase.Discard
	}
	logger := logging.ForSuite(logging.OrNop(s.Logger), s.Name)
	arena := s.Arena
	if arena == nil {
		arena = NewArena(logger)
	}
	if s.Client != nil {
		defer s.Client.Close()
	}
	stopper, _ := rec.(Stopper)

	logger.Debug("running suite", "cases", len(s.Cases), "fixtures", s.Fixtures)
	err := Nest(ctx, arena, s.Fixtures, func(ctx context.Context) {
		for _, tc := range s.Cases {
			if ctx.Err() != nil || (stopper != nil && stopper.ShouldStop()) {
				return
			}
			tc.Run(ctx, rec)
		}
	})
	if err == nil {
		return nil
	}

	var acquireErr *AcquireError
	if !errors.As(err, &acquireErr) {
		return err
	}

	var skip *SkipError
	if errors.As(err, &skip) {
		logger.Debug("suite skipped by fixture", "fixture", acquireErr.Fixture, "reason", skip.Reason)
		for _, tc := range s.Cases {
			rec.Record(s.skipped(tc, skip.Reason))
		}
		return releaseErrors(err)
	}
	if len(s.Cases) == 0 {
		return err
	}

	logger.Error("fixture failed", "fixture", acquireErr.Fixture, "error", acquireErr.Err)
	first := s.Cases[0]
	rec.Record(testcase.Result{
		Name:    first.ID(),
		Desc:    first.Spec().Desc,
		Outcome: testcase.Errored,
		Err:     acquireErr,
	})
	for _, tc := range s.Cases {
		rec.Record(s.skipped(tc, FixtureFailureReason))
	}
	if stopper != nil {
		stopper.Stop()
	}
	return releaseErrors(err)
}

func (s *Suite) skipped(tc *testcase.TestCase, reason string) testcase.Result {
	return testcase.Result{
		Name:    tc.ID(),
		Desc:    tc.Spec().Desc,
		Outcome: testcase.Skipped,
		Reason:  reason,
	}
}

// releaseErrors drops the acquisition error from a Nest error, keeping
// errors from stopping fixtures.
func releaseErrors(err error) error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return nil
	}
	var rest []error
	for _, e := range joined.Unwrap() {
		var acquireErr *AcquireError
		if !errors.As(e, &acquireErr) {
			rest = append(rest, e)
		}
	}
	return errors.Join(rest...)
}
