package badges

import "math"

const full = 100.0

// stepInput is what a tier sees while its category is being evaluated.
type stepInput struct {
	engine *Engine
	snap   Snapshot
	done   []TierResult
}

// complete reports whether an earlier tier reached full progress.
func (in stepInput) complete(t Tier) bool {
	for _, r := range in.done {
		if r.Tier == t {
			return r.Progress >= full
		}
	}
	return false
}

type step struct {
	tier     Tier
	progress func(stepInput) float64
	unlocked func(stepInput) bool
}

type ladder struct {
	available func(Snapshot) bool
	steps     []step
}

// Job application targets per tier.
const (
	jobsSilver  = 1
	jobsGold    = 14
	jobsDiamond = 30
)

// Network targets.
const (
	connectionsSilver  = 25
	connectionsGold    = 50
	connectionsDiamond = 100
	viewsDiamond       = 1000
)

type githubTarget struct{ repos, commits int }

var (
	githubSilver  = githubTarget{repos: 1, commits: 5}
	githubGold    = githubTarget{repos: 3, commits: 50}
	githubDiamond = githubTarget{repos: 5, commits: 100}
)

func always(stepInput) bool { return true }

// ladders is written once at init and never mutated.
var ladders = map[Category]ladder{
	CategoryProfile: {steps: []step{
		{
			tier:     TierBronze,
			progress: func(in stepInput) float64 { return clamp(in.snap.ResumeProgress) },
			unlocked: always,
		},
		{
			tier: TierSilver,
			progress: func(in stepInput) float64 {
				if !in.complete(TierBronze) {
					return 0
				}
				return clamp(in.snap.LinkedInProgress)
			},
			unlocked: func(in stepInput) bool { return in.complete(TierBronze) },
		},
		{
			// Premium gates progress only; gold unlocks without it.
			tier: TierGold,
			progress: func(in stepInput) float64 {
				if !in.complete(TierSilver) || !in.engine.IsPremium(in.snap.Plan) {
					return 0
				}
				return clamp(in.snap.DigitalProfileProgress)
			},
			unlocked: func(in stepInput) bool { return in.complete(TierSilver) },
		},
		{
			// Diamond hangs off silver, not gold.
			tier: TierDiamond,
			progress: func(in stepInput) float64 {
				if !in.complete(TierSilver) || !in.snap.IsIT {
					return 0
				}
				return clamp(in.snap.GitHubProfileProgress)
			},
			unlocked: func(in stepInput) bool { return in.complete(TierSilver) && in.snap.IsIT },
		},
	}},

	// Jobs tiers all read the same counter. Each tier unlocks at the previous
	// tier's target.
	CategoryJobs: {steps: []step{
		{
			tier:     TierSilver,
			progress: func(in stepInput) float64 { return JobsProgress(TierSilver, in.snap.JobApplications) },
			unlocked: always,
		},
		{
			tier:     TierGold,
			progress: func(in stepInput) float64 { return JobsProgress(TierGold, in.snap.JobApplications) },
			unlocked: func(in stepInput) bool { return in.snap.JobApplications >= jobsSilver },
		},
		{
			tier:     TierDiamond,
			progress: func(in stepInput) float64 { return JobsProgress(TierDiamond, in.snap.JobApplications) },
			unlocked: func(in stepInput) bool { return in.snap.JobApplications >= jobsGold },
		},
	}},

	CategoryNetwork: {steps: []step{
		{
			tier:     TierSilver,
			progress: func(in stepInput) float64 { return ratio(in.snap.Connections, connectionsSilver) },
			unlocked: always,
		},
		{
			tier:     TierGold,
			progress: func(in stepInput) float64 { return ratio(in.snap.Connections, connectionsGold) },
			unlocked: func(in stepInput) bool { return in.snap.Connections >= connectionsSilver },
		},
		{
			tier: TierDiamond,
			progress: func(in stepInput) float64 {
				return halves(in.snap.Connections, connectionsDiamond, in.snap.ProfileViews, viewsDiamond)
			},
			unlocked: func(in stepInput) bool { return in.snap.Connections >= connectionsGold },
		},
	}},

	CategoryGitHub: {
		available: func(s Snapshot) bool { return s.IsIT },
		steps: []step{
			{
				tier:     TierSilver,
				progress: func(in stepInput) float64 { return githubProgress(in.snap, githubSilver) },
				unlocked: always,
			},
			{
				tier:     TierGold,
				progress: func(in stepInput) float64 { return githubProgress(in.snap, githubGold) },
				unlocked: func(in stepInput) bool { return in.complete(TierSilver) },
			},
			{
				tier:     TierDiamond,
				progress: func(in stepInput) float64 { return githubProgress(in.snap, githubDiamond) },
				unlocked: func(in stepInput) bool { return in.complete(TierGold) },
			},
		},
	},
}

// JobsProgress returns the progress percentage of a jobs tier for count
// applications. Tiers outside the jobs ladder report zero.
func JobsProgress(t Tier, count int) float64 {
	switch t {
	case TierSilver:
		if count >= jobsSilver {
			return full
		}
		return 0
	case TierGold:
		return ratio(count, jobsGold)
	case TierDiamond:
		return ratio(count, jobsDiamond)
	}
	return 0
}

func githubProgress(s Snapshot, target githubTarget) float64 {
	return halves(s.GitHubRepos, target.repos, s.GitHubCommits, target.commits)
}

// halves scores two metrics at 50 points each. Only the sum is capped, so a
// surplus in one metric can make up for the other.
func halves(a, targetA, b, targetB int) float64 {
	if a >= targetA && b >= targetB {
		return full
	}
	return clamp(float64(a)/float64(targetA)*50 + float64(b)/float64(targetB)*50)
}

func ratio(n, target int) float64 {
	if n >= target {
		return full
	}
	return clamp(float64(n) / float64(target) * 100)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(full, v))
}
