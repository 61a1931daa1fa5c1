package evidence

import (
	"sort"
	"time"
)

// SignalKind names a GitHub activity event.
type SignalKind string

// Signal kinds reported by the GitHub activity feed.
const (
	SignalCommitPushed    SignalKind = "COMMIT_PUSHED"
	SignalReadmeUpdated   SignalKind = "README_UPDATED"
	SignalPRMerged        SignalKind = "PR_MERGED"
	SignalIssueOpened     SignalKind = "ISSUE_OPENED"
	SignalReviewSubmitted SignalKind = "REVIEW_SUBMITTED"
	SignalRepoStarred     SignalKind = "REPO_STARRED"
)

// Signal is one activity event.
type Signal struct {
	Kind       SignalKind `json:"kind"`
	Repo       string     `json:"repo,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}

// CommitDays counts distinct UTC calendar days with pushes.
type CommitDays struct {
	DistinctDays int      `json:"distinctDays"`
	CommitDates  []string `json:"commitDates"`
}

// ReadmeUpdate summarises README activity in a period.
type ReadmeUpdate struct {
	Updated     bool       `json:"updated"`
	UpdateCount int        `json:"updateCount"`
	LastUpdate  *time.Time `json:"lastUpdate,omitempty"`
}

const dayLayout = "2006-01-02"

func inPeriod(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// CalculateCommitDays buckets COMMIT_PUSHED signals inside [start, end] by
// UTC date.
func CalculateCommitDays(signals []Signal, start, end time.Time) CommitDays {
	seen := make(map[string]struct{})
	for _, s := range signals {
		if s.Kind != SignalCommitPushed || !inPeriod(s.OccurredAt, start, end) {
			continue
		}
		seen[s.OccurredAt.UTC().Format(dayLayout)] = struct{}{}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return CommitDays{DistinctDays: len(dates), CommitDates: dates}
}

// VerifyReadmeUpdate counts README_UPDATED signals inside [start, end].
// LastUpdate is the first matching signal in input order, which is not
// necessarily the latest.
func VerifyReadmeUpdate(signals []Signal, start, end time.Time) ReadmeUpdate {
	var out ReadmeUpdate
	for _, s := range signals {
		if s.Kind != SignalReadmeUpdated || !inPeriod(s.OccurredAt, start, end) {
			continue
		}
		if out.UpdateCount == 0 {
			at := s.OccurredAt
			out.LastUpdate = &at
		}
		out.UpdateCount++
	}
	out.Updated = out.UpdateCount > 0
	return out
}
