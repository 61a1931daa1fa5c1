package badges_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/okian/ladder/internal/domain/badges"
)

func TestIncompleteResumeGatesProfile(t *testing.T) {
	engine := badges.NewEngine()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("tiers above bronze have no progress while the resume is incomplete", prop.ForAll(
		func(resume, linkedin, digital, github float64, premium, it bool) bool {
			plan := "free"
			if premium {
				plan = "premium"
			}
			res := engine.Category(badges.CategoryProfile, badges.Snapshot{
				ResumeProgress:         resume,
				LinkedInProgress:       linkedin,
				DigitalProfileProgress: digital,
				GitHubProfileProgress:  github,
				Plan:                   plan,
				IsIT:                   it,
			})
			for _, tr := range res.Tiers[1:] {
				if tr.Progress != 0 || tr.Unlocked || tr.Earned {
					return false
				}
			}
			return res.Tiers[0].Unlocked && res.Tiers[0].Progress == resume
		},
		gen.Float64Range(0, 99.999),
		gen.Float64Range(0, 150),
		gen.Float64Range(0, 150),
		gen.Float64Range(0, 150),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestProgressStaysInRange(t *testing.T) {
	engine := badges.NewEngine()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("every tier reports progress in [0, 100] and earned implies unlocked", prop.ForAll(
		func(jobs, conns, views, repos, commits int, it bool) bool {
			p := engine.Evaluate(badges.Snapshot{
				ResumeProgress:   100,
				LinkedInProgress: 100,
				JobApplications:  jobs,
				Connections:      conns,
				ProfileViews:     views,
				GitHubRepos:      repos,
				GitHubCommits:    commits,
				IsIT:             it,
			})
			for _, c := range p.Categories {
				for _, tr := range c.Tiers {
					if tr.Progress < 0 || tr.Progress > 100 || (tr.Earned && !tr.Unlocked) {
						return false
					}
				}
			}
			return true
		},
		gen.IntRange(0, 60),
		gen.IntRange(0, 300),
		gen.IntRange(0, 5000),
		gen.IntRange(0, 20),
		gen.IntRange(0, 400),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
