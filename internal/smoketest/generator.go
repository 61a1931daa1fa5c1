package smoketest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/logger"
)

// urlTask is a task accepting URL evidence and a URL shape it accepts.
type urlTask struct {
	code   string
	format string // owner, repo, number
}

var urlTasks = []urlTask{
	{code: "GHW_MERGE_1PR", format: "https://github.com/%s/%s/pull/%d"},
	{code: "GHW_OPEN_ISSUE", format: "https://github.com/%s/%s/issues/%d"},
	{code: "GHW_CODE_REVIEW", format: "https://github.com/%s/%s/pull/%d"},
	{code: "GHS_OPEN_SOURCE_PR", format: "https://github.com/%s/%s/pull/%d"},
	{code: "GHS_PROFILE_README", format: "https://github.com/%s/%s#%d"},
}

var repos = []string{"ladder", "atlas", "harbor", "quill", "ember"}

// generate builds the submissions for a run. Malformed ones use evidence
// kinds or hosts the task refuses, so their verdicts are predictable.
func generate(ctx context.Context, cfg *Config, stats *Stats) []planned {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	now := time.Now().UTC()

	total := cfg.Users * cfg.PerUser
	out := make([]planned, 0, total)
	for u := 0; u < cfg.Users; u++ {
		userID := "smoke-" + uuid.NewString()
		for i := 0; i < cfg.PerUser; i++ {
			n := len(out) + 1
			task := urlTasks[rng.IntN(len(urlTasks))]
			owner := fmt.Sprintf("user%d", u)
			repo := repos[rng.IntN(len(repos))]

			p := planned{
				sub: model.Submission{
					ID:          uuid.NewString(),
					UserID:      userID,
					TaskCode:    task.code,
					Kind:        "URL",
					URL:         fmt.Sprintf(task.format, owner, repo, rng.IntN(5000)+1),
					SubmittedAt: now,
				},
				accept: true,
			}
			if cfg.InvalidEvery > 0 && n%cfg.InvalidEvery == 0 {
				p.accept = false
				if rng.IntN(2) == 0 {
					p.sub.URL = fmt.Sprintf("https://gitlab.com/%s/%s/-/merge_requests/%d", owner, repo, n)
					p.sub.TaskCode = "GHW_MERGE_1PR"
				} else {
					p.sub.Kind = "SCREENSHOT"
					p.sub.URL = ""
					p.sub.TaskCode = "GHW_MERGE_1PR"
				}
			}
			out = append(out, p)
		}
	}

	stats.Generated = len(out)
	logger.Get().Info(ctx, "generated submissions",
		logger.Int("users", cfg.Users),
		logger.Int("count", len(out)))
	return out
}

// expectedVerified counts the accepted submissions per user.
func expectedVerified(plan []planned) map[string]int {
	out := make(map[string]int)
	for _, p := range plan {
		if _, ok := out[p.sub.UserID]; !ok {
			out[p.sub.UserID] = 0
		}
		if p.accept {
			out[p.sub.UserID]++
		}
	}
	return out
}
