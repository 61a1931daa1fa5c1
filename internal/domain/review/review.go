// Package review turns a queued submission into a verdict by running the
// evidence and task-window checks.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/ladder/internal/domain/evidence"
	"github.com/okian/ladder/internal/domain/model"
)

// Reviewer produces a verdict for a submission.
type Reviewer interface {
	// Review evaluates s, honoring ctx for cancellation.
	Review(ctx context.Context, s model.Submission) (model.Verdict, error)
}

// Option applies a configuration option to the EvidenceReviewer.
type Option func(*EvidenceReviewer)

// WithClock sets the source of ProcessedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *EvidenceReviewer) {
		if now != nil {
			r.now = now
		}
	}
}

// EvidenceReviewer checks evidence against the task table and the weekly
// period. Both checks always run so a verdict lists every failure.
type EvidenceReviewer struct {
	now func() time.Time
}

// NewEvidenceReviewer creates a reviewer.
func NewEvidenceReviewer(opts ...Option) *EvidenceReviewer {
	r := &EvidenceReviewer{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Review implements Reviewer.
func (r *EvidenceReviewer) Review(ctx context.Context, s model.Submission) (model.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return model.Verdict{}, fmt.Errorf("review %s: %w", s.ID, err)
	}

	v := model.Verdict{
		SubmissionID: s.ID,
		UserID:       s.UserID,
		TaskCode:     s.TaskCode,
		Errors:       []string{},
	}

	kind, ok := evidence.ParseKind(s.Kind)
	if !ok {
		v.Errors = append(v.Errors, fmt.Sprintf("Unknown evidence kind: %s", s.Kind))
	} else {
		check := evidence.ValidateEvidenceForTask(s.TaskCode, kind, evidence.Data{URL: s.URL, File: s.File})
		if !check.Valid {
			v.Errors = append(v.Errors, check.Error)
		}
	}

	window := evidence.ValidateTaskTimeWindow(s.TaskCode, s.SubmittedAt, s.PeriodStart, s.PeriodEnd)
	if !window.Valid {
		v.Errors = append(v.Errors, window.Error)
	}
	v.HoursRemaining = window.HoursRemaining

	v.Accepted = len(v.Errors) == 0
	v.ProcessedAt = r.now()
	return v, nil
}
