package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/ladder/internal/smoketest"
)

// Default configuration constants.
const (
	defaultUsers        = 200
	defaultPerUser      = 5
	defaultInvalidEvery = 7
	defaultDuplicate    = 10
	defaultTopN         = 50
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 10 * time.Second
	defaultSettle       = time.Minute
	defaultRunTimeout   = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		users        = flag.Int("users", defaultUsers, "Number of users")
		perUser      = flag.Int("per-user", defaultPerUser, "Submissions per user")
		invalidEvery = flag.Int("invalid-every", defaultInvalidEvery, "Every n-th submission is malformed (0 disables)")
		duplicate    = flag.Int("duplicate-every", defaultDuplicate, "Every n-th submission is resent (0 disables)")
		topN         = flag.Int("top", defaultTopN, "Leaderboard entries to fetch")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle       = flag.Duration("settle", defaultSettle, "How long to wait for verdicts")
		seed         = flag.Uint64("seed", 1, "Generator seed")
		outputFile   = flag.String("output", "", "Save generated submissions to this file")
		logFile      = flag.String("log", "", "Also log to this file")
		verbose      = flag.Bool("verbose", false, "Log every failure")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoketest.ShowHelp()
		return
	}

	closeLog, err := smoketest.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)

	_, err = smoketest.Run(ctx, &smoketest.Config{
		BaseURL:       *baseURL,
		Users:         *users,
		PerUser:       *perUser,
		InvalidEvery:  *invalidEvery,
		DuplicateRate: *duplicate,
		TopN:          *topN,
		Workers:       max(*workers, 1),
		Timeout:       *timeout,
		SettleTimeout: *settle,
		Seed:          *seed,
		OutputFile:    *outputFile,
		Verbose:       *verbose,
	})
	cancel()
	_ = closeLog()

	if err != nil {
		_, _ = os.Stderr.WriteString("Smoke run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
