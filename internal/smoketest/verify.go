package smoketest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/logger"
)

// verify compares verdicts, per-user ranks and the leaderboard with the
// outcome the generator planned. Users with an unsettled submission are
// skipped since their counts may still move.
func verify(ctx context.Context, cfg *Config, client *HTTPClient, taken []planned,
	verdicts map[string]model.Verdict, leaderboard []model.Entry, stats *Stats,
) error {
	var problems []error

	unsettled := make(map[string]bool)
	for _, p := range taken {
		v, ok := verdicts[p.sub.ID]
		if !ok {
			unsettled[p.sub.UserID] = true
			continue
		}
		if v.Accepted != p.accept {
			stats.VerdictMismatches++
			problems = append(problems, fmt.Errorf("submission %s: accepted=%t, want %t (%v)",
				p.sub.ID, v.Accepted, p.accept, v.Errors))
		}
	}

	if err := checkLeaderboardOrder(leaderboard); err != nil {
		problems = append(problems, err)
	}

	for userID, want := range expectedVerified(taken) {
		if unsettled[userID] {
			continue
		}
		var entry model.Entry
		status, err := client.getJSON(ctx, "/v1/rank/"+url.PathEscape(userID), &entry)
		stats.RanksChecked++
		switch {
		case want == 0 && status == http.StatusNotFound:
		case err != nil:
			problems = append(problems, fmt.Errorf("rank %s: %w", userID, err))
		case entry.Verified != want:
			problems = append(problems, fmt.Errorf("rank %s: verified=%d, want %d", userID, entry.Verified, want))
		}
	}

	if len(problems) == 0 {
		logger.Get().Info(ctx, "results verified", logger.Int("ranksChecked", stats.RanksChecked))
		return nil
	}
	if cfg.Verbose {
		for _, p := range problems {
			logger.Get().Warn(ctx, "verification problem", logger.Error(p))
		}
	}
	return fmt.Errorf("%w: %w", ErrVerification, errors.Join(problems...))
}

// checkLeaderboardOrder checks descending counts and dense ranks starting
// at one.
func checkLeaderboardOrder(entries []model.Entry) error {
	for i, e := range entries {
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("leaderboard starts at rank %d", e.Rank)
			}
			continue
		}
		prev := entries[i-1]
		switch {
		case e.Verified > prev.Verified:
			return fmt.Errorf("leaderboard not sorted at entry %d", i)
		case e.Verified == prev.Verified && e.Rank != prev.Rank:
			return fmt.Errorf("tied entries %d and %d have different ranks", i-1, i)
		case e.Verified < prev.Verified && e.Rank != prev.Rank+1:
			return fmt.Errorf("rank gap at entry %d", i)
		}
	}
	return nil
}
