// Package smoketest drives a running ladder service end to end: it submits
// generated evidence, waits for the verdicts and checks the leaderboard
// against the outcome it expects.
package smoketest

import (
	"time"

	"github.com/okian/ladder/internal/domain/model"
)

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL       string        // Base URL of the service
	Users         int           // Number of distinct users
	PerUser       int           // Submissions generated per user
	InvalidEvery  int           // Every n-th submission is malformed; 0 disables
	DuplicateRate int           // Every n-th submission is resent; 0 disables
	TopN          int           // Leaderboard entries to fetch
	Workers       int           // Concurrent HTTP workers
	Timeout       time.Duration // Per-request timeout
	SettleTimeout time.Duration // How long to wait for all verdicts
	Seed          uint64        // Generator seed
	OutputFile    string        // Where to save generated submissions; empty skips
	Verbose       bool          // Log every failure
}

// planned is a generated submission plus the verdict we expect for it.
type planned struct {
	sub    model.Submission
	accept bool
}

// AckResponse is the body of POST /v1/submissions.
type AckResponse struct {
	Status       string `json:"status"`
	SubmissionID string `json:"submissionId"`
	Duplicate    bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	Generated          int
	Submitted          int
	Accepted           int
	Duplicate          int
	Throttled          int
	Failed             int
	Settled            int
	Unsettled          int
	VerdictMismatches  int
	RanksChecked       int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
