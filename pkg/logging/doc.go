// Package logging provides structured logging configuration for httpseq.
//
// This package wraps log/slog so that the suite builder, the test cases, the
// HTTP client and the runner all log the same way.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatText,
//	})
//
//	log := logging.ForSuite(logger, "widgets")
//	log.Debug("request", "method", "GET", "url", url)
//
// # Integration
//
// Components accept a *slog.Logger through their options. If none is
// provided they use logging.Nop(). Test reports are written to stdout by the
// runner; logs go to stderr so the two never interleave.
package logging
