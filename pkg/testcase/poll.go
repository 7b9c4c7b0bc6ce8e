package testcase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/getmockd/httpseq/pkg/failure"
	"github.com/getmockd/httpseq/pkg/httpclient"
)

// Poll defaults when a poll mapping omits a value.
const (
	defaultPollCount = 1
	defaultPollDelay = time.Second
)

// runWithPoll runs attempts until one succeeds or the poll count is spent.
// Only assertion failures and refused connections are retried.
func (tc *TestCase) runWithPoll(ctx context.Context) (int, error) {
	count, delay, err := tc.pollPolicy()
	if err != nil {
		return 0, err
	}
	var attempts int
	for {
		attempts++
		err := tc.attempt(ctx)
		if err == nil {
			return attempts, nil
		}
		retryable := failure.IsAssertion(err) || httpclient.IsConnectionRefused(err)
		if !retryable || attempts >= count {
			return attempts, err
		}
		tc.logger.Debug("poll retry", "attempt", attempts, "count", count, "delay", delay, "error", err)
		if err := sleep(ctx, delay); err != nil {
			return attempts, err
		}
	}
}

// pollPolicy resolves poll count and delay. Both may be templates and may
// be strings; count is truncated to an integer, delay is in seconds.
func (tc *TestCase) pollPolicy() (int, time.Duration, error) {
	count, delay := defaultPollCount, defaultPollDelay
	if len(tc.spec.Poll) == 0 {
		return count, delay, nil
	}
	resolved, err := tc.Resolve(tc.spec.Poll)
	if err != nil {
		return 0, 0, err
	}
	poll := resolved.(map[string]any)

	if v, ok := poll["count"]; ok {
		f, err := number(v)
		if err != nil {
			return 0, 0, failure.Formatf("poll count %v is not a number", v)
		}
		count = int(f)
	}
	if v, ok := poll["delay"]; ok {
		f, err := number(v)
		if err != nil {
			return 0, 0, failure.Formatf("poll delay %v is not a number", v)
		}
		delay = time.Duration(f * float64(time.Second))
	}
	if count < 1 {
		count = 1
	}
	if delay < 0 {
		delay = 0
	}
	return count, delay, nil
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	}
	return strconv.ParseFloat(strings.TrimSpace(toString(v)), 64)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
