// Package model contains domain models passed between layers.
package model

import (
	"time"

	fv "github.com/okian/ladder/internal/domain/filevalidation"
)

// Submission is a piece of task evidence sent for asynchronous review.
type Submission struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	TaskCode    string     `json:"taskCode"`
	Kind        string     `json:"kind"` // URL, SCREENSHOT or FILE
	URL         string     `json:"url,omitempty"`
	File        *fv.File   `json:"file,omitempty"`
	SubmittedAt time.Time  `json:"submittedAt"`
	PeriodStart *time.Time `json:"periodStart,omitempty"`
	PeriodEnd   *time.Time `json:"periodEnd,omitempty"`
}

// Verdict is the stored outcome of reviewing a submission.
type Verdict struct {
	SubmissionID   string    `json:"submissionId"`
	UserID         string    `json:"userId"`
	TaskCode       string    `json:"taskCode"`
	Accepted       bool      `json:"accepted"`
	Errors         []string  `json:"errors"`
	HoursRemaining *float64  `json:"hoursRemaining,omitempty"`
	ProcessedAt    time.Time `json:"processedAt"`
}

// Entry is one row of the verified-evidence leaderboard.
type Entry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"userId"`
	Verified int    `json:"verified"`
}

// Receipt acknowledges a submission handed to the pipeline.
type Receipt struct {
	SubmissionID string `json:"submissionId"`
	Duplicate    bool   `json:"duplicate"`
}
