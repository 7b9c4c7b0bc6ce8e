package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getmockd/httpseq/pkg/config"
	"github.com/getmockd/httpseq/pkg/handler"
	"github.com/getmockd/httpseq/pkg/logging"
	"github.com/getmockd/httpseq/pkg/suite"
	"github.com/getmockd/httpseq/pkg/suitemaker"
	"github.com/getmockd/httpseq/pkg/testcase"
)

// DefaultName names a document read from a reader without a name.
const DefaultName = "input"

// Options configure a run.
type Options struct {
	Target config.Target

	// SSL forces https for every test. An https target implies it.
	SSL bool
	// Verbose is "", "all", "headers" or "body".
	Verbose string
	// Insecure turns off certificate validation for every test.
	Insecure bool
	FailFast bool
	// Quiet discards the report. Verbose traffic is still written.
	Quiet   bool
	Timeout time.Duration

	Registry  *handler.Registry
	Arena     *suite.Arena
	Intercept http.Handler

	// Out receives the report and verbose traffic, Err the list of
	// failing files and document errors. They default to os.Stdout and
	// os.Stderr.
	Out io.Writer
	Err io.Writer

	Logger *slog.Logger
}

// Runner runs documents one suite at a time.
type Runner struct {
	opts   Options
	report io.Writer
	logger *slog.Logger
}

// New creates a runner.
func New(opts Options) *Runner {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Registry == nil {
		opts.Registry = handler.Default()
	}
	report := opts.Out
	if opts.Quiet {
		report = io.Discard
	}
	return &Runner{opts: opts, report: report, logger: logging.OrNop(opts.Logger)}
}

// RunFiles runs each file as its own suite and reports whether every test
// succeeded. With fail-fast it stops after the first failing file. The
// files that failed are listed on the error writer.
func (r *Runner) RunFiles(ctx context.Context, paths []string) (bool, error) {
	success := true
	var failed []string
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if !r.runFile(ctx, path) {
			success = false
			failed = append(failed, path)
			if r.opts.FailFast {
				break
			}
		}
	}

	if len(failed) > 0 {
		fmt.Fprintln(r.opts.Err, "There were failures in the following files:")
		fmt.Fprintln(r.opts.Err, strings.Join(failed, "\n"))
	}
	return success, ctx.Err()
}

// RunReader runs the single document read from rd. Data files are
// resolved against the working directory.
func (r *Runner) RunReader(ctx context.Context, rd io.Reader, name string) (bool, error) {
	if name == "" {
		name = DefaultName
	}
	doc, err := config.ParseDocument(rd)
	if err != nil {
		fmt.Fprintf(r.opts.Err, "%s: %v\n", name, err)
		return false, nil
	}
	return r.runDocument(ctx, doc, name, "."), ctx.Err()
}

func (r *Runner) runFile(ctx context.Context, path string) bool {
	doc, err := config.LoadDocument(path)
	if err != nil {
		fmt.Fprintln(r.opts.Err, err)
		return false
	}
	return r.runDocument(ctx, doc, config.BaseName(path), filepath.Dir(path))
}

func (r *Runner) runDocument(ctx context.Context, doc map[string]any, name, dir string) bool {
	s, err := suitemaker.BuildSuite(name, doc, suitemaker.Options{
		Host:          r.opts.Target.Host,
		Port:          r.opts.Target.Port,
		Prefix:        r.opts.Target.Prefix,
		Intercept:     r.opts.Intercept,
		Registry:      r.opts.Registry,
		Arena:         r.opts.Arena,
		TestDir:       dir,
		Overrides:     r.overrides(),
		Timeout:       r.opts.Timeout,
		VerboseOutput: r.opts.Out,
		Logger:        r.opts.Logger,
	})
	if err != nil {
		fmt.Fprintf(r.opts.Err, "%s: %v\n", name, err)
		return false
	}

	reporter := NewReporter(r.report, r.opts.FailFast)
	start := time.Now()
	runErr := s.Run(ctx, reporter)
	reporter.Summary(time.Since(start))
	if runErr != nil {
		r.logger.Error("suite did not finish cleanly", "suite", name, "error", runErr)
		fmt.Fprintf(r.opts.Err, "%s: %v\n", name, runErr)
		return false
	}
	return reporter.Successful()
}

// overrides are the run-wide options as test keys.
func (r *Runner) overrides() map[string]any {
	overrides := map[string]any{}
	if r.opts.SSL || r.opts.Target.SSL {
		overrides[testcase.KeySSL] = true
	}
	if r.opts.Verbose != "" {
		overrides[testcase.KeyVerbose] = r.opts.Verbose
	}
	if r.opts.Insecure {
		overrides[testcase.KeyCertValidate] = false
	}
	return overrides
}
