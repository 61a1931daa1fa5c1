// Package repository stores review verdicts and ranks users by how many of
// their submissions were accepted.
package repository

import (
	"context"

	"github.com/okian/ladder/internal/domain/model"
)

// Store provides read/write access to verdicts and the ranking.
type Store interface {
	// PutVerdict stores v keyed by its submission ID. The first accepted
	// verdict for a submission counts towards the user's verified total.
	PutVerdict(ctx context.Context, v model.Verdict) error

	// Verdict returns the verdict for a submission or ErrNotFound.
	Verdict(ctx context.Context, submissionID string) (model.Verdict, error)

	// Rank returns the user's leaderboard row or ErrNotFound.
	Rank(ctx context.Context, userID string) (model.Entry, error)

	// TopN returns up to n rows ordered by verified count desc, user asc.
	TopN(ctx context.Context, n int) ([]model.Entry, error)

	// Count returns the number of ranked users.
	Count(ctx context.Context) int

	// Verdicts returns the number of stored verdicts.
	Verdicts(ctx context.Context) int
}
