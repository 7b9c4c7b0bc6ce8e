package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/httpseq/pkg/cli/internal/flags"
	"github.com/getmockd/httpseq/pkg/cli/internal/output"
	"github.com/getmockd/httpseq/pkg/config"
	"github.com/getmockd/httpseq/pkg/handler"
	"github.com/getmockd/httpseq/pkg/httpclient"
	"github.com/getmockd/httpseq/pkg/logging"
	"github.com/getmockd/httpseq/pkg/runner"
)

var (
	runFailFast         bool
	runQuiet            bool
	runInsecure         bool
	runSSL              bool
	runTimeout          time.Duration
	runResponseHandlers flags.StringSlice
	runVerbose          = flags.Choice{Allowed: []string{httpclient.VerboseAll, httpclient.VerboseHeaders, httpclient.VerboseBody}}
	runLogLevel         string
	runLogFormat        string
)

var runCmd = &cobra.Command{
	Use:   "run [target] [prefix] [-- files...]",
	Short: "Run test documents against a target",
	Long: `Run test documents against a target.

The target is host[:port] or a URL. A URL's path is used as the prefix for
relative test URLs; with host[:port] the prefix may be given separately.
IPv6 hosts are written in brackets.

Files follow --, each runs as its own suite. Globs, including **, are
expanded. Without files one document is read from stdin.`,
	Example: `  httpseq run example.com:9999 < widgets.yaml
  httpseq run http://example.com:9999/mountpoint -- tests/*.yaml
  httpseq run -x -v headers localhost:8080 /api -- tests/**/*.yaml`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	positional, patterns := args, []string(nil)
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		positional, patterns = args[:dash], args[dash:]
	}
	if len(positional) > 2 {
		return ErrTooManyArgs
	}
	var target, prefix string
	if len(positional) > 0 {
		target = positional[0]
	}
	if len(positional) > 1 {
		prefix = positional[1]
	}

	t, err := config.ParseTarget(target, prefix)
	if err != nil {
		return err
	}
	registry, err := handler.Build(runResponseHandlers...)
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(runLogLevel),
		Format: logging.ParseFormat(runLogFormat),
		Output: cmd.ErrOrStderr(),
	})
	httpclient.Version = buildVersion().Version

	r := runner.New(runner.Options{
		Target:   t,
		SSL:      runSSL,
		Verbose:  runVerbose.Value,
		Insecure: runInsecure,
		FailFast: runFailFast,
		Quiet:    runQuiet,
		Timeout:  runTimeout,
		Registry: registry,
		Out:      cmd.OutOrStdout(),
		Err:      cmd.ErrOrStderr(),
		Logger:   logger,
	})

	var ok bool
	if patterns == nil {
		ok, err = r.RunReader(cmd.Context(), cmd.InOrStdin(), runner.DefaultName)
	} else {
		files, derr := config.DiscoverFiles(patterns)
		if derr != nil {
			return derr
		}
		if len(files) == 0 {
			output.Warn(cmd.ErrOrStderr(), "no test files matched %v", patterns)
		}
		ok, err = r.RunFiles(cmd.Context(), files)
	}
	if err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	if !ok {
		return ErrTestsFailed
	}
	return nil
}

func init() {
	f := runCmd.Flags()
	f.BoolVarP(&runFailFast, "failfast", "x", false, "Exit on first failure")
	f.BoolVarP(&runQuiet, "quiet", "q", false, "Produce no test runner output")
	f.VarP(&runVerbose, "verbose", "v", "Turn on verbosity for every test")
	f.BoolVarP(&runInsecure, "insecure", "k", false, "Turn off TLS certificate validation")
	f.BoolVar(&runSSL, "ssl", false, "Use https for every test")
	f.VarP(&runResponseHandlers, "response-handler", "r", "Enable an optional response handler by name (repeatable, see 'httpseq handlers')")
	f.DurationVar(&runTimeout, "timeout", httpclient.DefaultTimeout, "Timeout for each request")
	f.StringVar(&runLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	f.StringVar(&runLogFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.AddCommand(runCmd)
}
