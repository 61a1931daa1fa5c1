package smoketest

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/ladder/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initializes the global logger writing to stdout and, when
// logFile is set, to that file as well. It returns a close func.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	closeFn := func() error { return nil }
	var out io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return closeFn, fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
		closeFn = file.Close
	}

	if err := logger.Init(logger.WithWriter(out)); err != nil {
		return closeFn, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closeFn, nil
}

// ShowHelp prints usage information for the smoke tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Ladder Smoke Tool
=================

Submits generated task evidence to a running ladder service, waits for the
verdicts and checks ranks and the leaderboard against the expected outcome.

Usage:
  go run ./cmd/smoke [options]

Options:
  -url string         Base URL of the service (default "http://localhost:9080")
  -users int          Number of users (default 200)
  -per-user int       Submissions per user (default 5)
  -invalid-every int  Every n-th submission is malformed (default 7)
  -duplicate-every int Every n-th submission is resent (default 10)
  -top int            Leaderboard entries to fetch (default 50)
  -workers int        Concurrent workers (default CPU cores * 2)
  -timeout duration   HTTP request timeout (default 10s)
  -settle duration    How long to wait for verdicts (default 1m)
  -seed uint          Generator seed (default 1)
  -output string      Save generated submissions to this file
  -log string         Also log to this file
  -verbose            Log every failure
  -help               Show this help message

Examples:
  go run ./cmd/smoke -users 1000 -workers 16
  go run ./cmd/smoke -url http://localhost:8080 -verbose
`)
}
