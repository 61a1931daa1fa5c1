package badges_test

import (
	"testing"

	"github.com/okian/ladder/internal/domain/badges"
	. "github.com/smartystreets/goconvey/convey"
)

func tier(c badges.CategoryResult, t badges.Tier) badges.TierResult {
	r, ok := c.Tier(t)
	So(ok, ShouldBeTrue)
	return r
}

func TestProfileCategory(t *testing.T) {
	Convey("Given a default engine", t, func() {
		engine := badges.NewEngine()

		Convey("When the resume is incomplete", func() {
			res := engine.Category(badges.CategoryProfile, badges.Snapshot{
				ResumeProgress:         80,
				LinkedInProgress:       100,
				DigitalProfileProgress: 100,
				GitHubProfileProgress:  100,
				Plan:                   "premium",
				IsIT:                   true,
			})

			Convey("Then only bronze should carry progress", func() {
				So(tier(res, badges.TierBronze), ShouldResemble, badges.TierResult{Tier: badges.TierBronze, Progress: 80, Unlocked: true})
				So(tier(res, badges.TierSilver).Progress, ShouldEqual, 0)
				So(tier(res, badges.TierSilver).Unlocked, ShouldBeFalse)
				So(tier(res, badges.TierGold).Progress, ShouldEqual, 0)
				So(tier(res, badges.TierGold).Unlocked, ShouldBeFalse)
				So(tier(res, badges.TierDiamond).Unlocked, ShouldBeFalse)
			})
		})

		Convey("When silver is complete on a free plan", func() {
			res := engine.Category(badges.CategoryProfile, badges.Snapshot{
				ResumeProgress:         120,
				LinkedInProgress:       100,
				DigitalProfileProgress: 70,
				GitHubProfileProgress:  40,
				Plan:                   "free",
				IsIT:                   false,
			})

			Convey("Then gold should unlock without accruing progress", func() {
				So(tier(res, badges.TierBronze).Progress, ShouldEqual, 100)
				So(tier(res, badges.TierBronze).Earned, ShouldBeTrue)
				So(tier(res, badges.TierSilver).Earned, ShouldBeTrue)
				gold := tier(res, badges.TierGold)
				So(gold.Unlocked, ShouldBeTrue)
				So(gold.Progress, ShouldEqual, 0)
				So(gold.Earned, ShouldBeFalse)
			})

			Convey("Then diamond should stay locked for non-IT users", func() {
				diamond := tier(res, badges.TierDiamond)
				So(diamond.Unlocked, ShouldBeFalse)
				So(diamond.Progress, ShouldEqual, 0)
			})
		})

		Convey("When silver is complete on a premium IT profile with gold unfinished", func() {
			res := engine.Category(badges.CategoryProfile, badges.Snapshot{
				ResumeProgress:         100,
				LinkedInProgress:       100,
				DigitalProfileProgress: 30,
				GitHubProfileProgress:  60,
				Plan:                   "Enterprise",
				IsIT:                   true,
			})

			Convey("Then diamond should depend on silver, not gold", func() {
				So(tier(res, badges.TierGold).Progress, ShouldEqual, 30)
				diamond := tier(res, badges.TierDiamond)
				So(diamond.Unlocked, ShouldBeTrue)
				So(diamond.Progress, ShouldEqual, 60)
			})
		})
	})

	Convey("Given an engine with custom premium plans", t, func() {
		engine := badges.NewEngine(badges.WithPremiumPlans("Pro"))

		Convey("Then only the configured plans should count, ignoring case", func() {
			So(engine.IsPremium("PRO"), ShouldBeTrue)
			So(engine.IsPremium("premium"), ShouldBeFalse)
			So(engine.IsPremium(""), ShouldBeFalse)
		})
	})
}

func TestJobsCategory(t *testing.T) {
	Convey("Given job application counts", t, func() {
		Convey("Then gold should scale towards 14 applications", func() {
			So(badges.JobsProgress(badges.TierGold, 14), ShouldEqual, 100)
			So(badges.JobsProgress(badges.TierGold, 7), ShouldEqual, 50)
			So(badges.JobsProgress(badges.TierGold, 40), ShouldEqual, 100)
		})

		Convey("Then silver should be all or nothing", func() {
			So(badges.JobsProgress(badges.TierSilver, 0), ShouldEqual, 0)
			So(badges.JobsProgress(badges.TierSilver, 1), ShouldEqual, 100)
		})

		Convey("Then diamond should scale towards 30 and bronze should not exist", func() {
			So(badges.JobsProgress(badges.TierDiamond, 15), ShouldEqual, 50)
			So(badges.JobsProgress(badges.TierBronze, 100), ShouldEqual, 0)
		})

		Convey("When evaluating 14 applications", func() {
			res := badges.NewEngine().Category(badges.CategoryJobs, badges.Snapshot{JobApplications: 14})

			Convey("Then diamond should unlock at the gold target", func() {
				So(res.Tiers, ShouldHaveLength, 3)
				So(tier(res, badges.TierGold).Earned, ShouldBeTrue)
				diamond := tier(res, badges.TierDiamond)
				So(diamond.Unlocked, ShouldBeTrue)
				So(diamond.Progress, ShouldAlmostEqual, 14.0/30*100, 1e-9)
			})
		})

		Convey("When evaluating zero applications", func() {
			res := badges.NewEngine().Category(badges.CategoryJobs, badges.Snapshot{})

			Convey("Then only silver should be unlocked", func() {
				So(tier(res, badges.TierSilver).Unlocked, ShouldBeTrue)
				So(tier(res, badges.TierGold).Unlocked, ShouldBeFalse)
				So(tier(res, badges.TierDiamond).Unlocked, ShouldBeFalse)
			})
		})
	})
}

func TestNetworkCategory(t *testing.T) {
	Convey("Given network metrics", t, func() {
		engine := badges.NewEngine()

		Convey("When connections are 30 with 200 views", func() {
			res := engine.Category(badges.CategoryNetwork, badges.Snapshot{Connections: 30, ProfileViews: 200})

			Convey("Then silver should be complete and gold partial", func() {
				So(tier(res, badges.TierSilver).Progress, ShouldEqual, 100)
				So(tier(res, badges.TierGold).Progress, ShouldEqual, 60)
				So(tier(res, badges.TierGold).Unlocked, ShouldBeTrue)
				So(tier(res, badges.TierDiamond).Unlocked, ShouldBeFalse)
				So(tier(res, badges.TierDiamond).Progress, ShouldEqual, 25)
			})
		})

		Convey("When connections exceed the diamond target but views do not", func() {
			res := engine.Category(badges.CategoryNetwork, badges.Snapshot{Connections: 150, ProfileViews: 400})

			Convey("Then the halves should be summed and capped", func() {
				So(tier(res, badges.TierDiamond).Progress, ShouldEqual, 95)
			})
		})

		Convey("When both diamond targets are met", func() {
			res := engine.Category(badges.CategoryNetwork, badges.Snapshot{Connections: 100, ProfileViews: 1000})

			Convey("Then diamond should be earned", func() {
				So(tier(res, badges.TierDiamond).Earned, ShouldBeTrue)
			})
		})
	})
}

func TestGitHubCategory(t *testing.T) {
	Convey("Given GitHub metrics", t, func() {
		engine := badges.NewEngine()

		Convey("When the user is not in IT", func() {
			res := engine.Category(badges.CategoryGitHub, badges.Snapshot{GitHubRepos: 10, GitHubCommits: 500})

			Convey("Then the whole category should be unavailable", func() {
				So(res.Available, ShouldBeFalse)
				for _, tr := range res.Tiers {
					So(tr.Unlocked, ShouldBeFalse)
					So(tr.Progress, ShouldEqual, 0)
				}
			})
		})

		Convey("When an IT user has 2 repos and 20 commits", func() {
			res := engine.Category(badges.CategoryGitHub, badges.Snapshot{IsIT: true, GitHubRepos: 2, GitHubCommits: 20})

			Convey("Then silver should be earned and gold should be partial", func() {
				So(res.Available, ShouldBeTrue)
				So(tier(res, badges.TierSilver).Earned, ShouldBeTrue)
				gold := tier(res, badges.TierGold)
				So(gold.Unlocked, ShouldBeTrue)
				So(gold.Progress, ShouldAlmostEqual, 2.0/3*50+20.0/50*50, 1e-9)
				So(tier(res, badges.TierDiamond).Unlocked, ShouldBeFalse)
			})
		})

		Convey("When an IT user has no activity", func() {
			res := engine.Category(badges.CategoryGitHub, badges.Snapshot{IsIT: true})

			Convey("Then silver should be unlocked with no progress", func() {
				So(tier(res, badges.TierSilver).Unlocked, ShouldBeTrue)
				So(tier(res, badges.TierSilver).Progress, ShouldEqual, 0)
				So(tier(res, badges.TierGold).Unlocked, ShouldBeFalse)
			})
		})
	})
}

func TestProgressionSummary(t *testing.T) {
	Convey("Given a partially complete user", t, func() {
		p := badges.NewEngine().Evaluate(badges.Snapshot{
			ResumeProgress:   100,
			LinkedInProgress: 40,
			JobApplications:  7,
			Connections:      10,
		})

		Convey("When summarised", func() {
			s := p.Summary()

			Convey("Then non-IT categories should be excluded from the total", func() {
				So(p.Categories, ShouldHaveLength, 4)
				gh, ok := p.Category(badges.CategoryGitHub)
				So(ok, ShouldBeTrue)
				So(gh.Available, ShouldBeFalse)
				So(s.Total, ShouldEqual, 10)
			})

			Convey("Then earned badges and the closest goal should be reported", func() {
				// Profile bronze and jobs silver.
				So(s.Earned, ShouldEqual, 2)
				So(s.Next, ShouldNotBeNil)
				So(s.Next.Category, ShouldEqual, badges.CategoryJobs)
				So(s.Next.Tier, ShouldEqual, badges.TierGold)
				So(s.Next.Progress, ShouldEqual, 50)
			})
		})
	})

	Convey("Given tier and category names", t, func() {
		tr, ok := badges.ParseTier("GOLD")
		So(ok, ShouldBeTrue)
		So(tr, ShouldEqual, badges.TierGold)
		_, ok = badges.ParseCategory("linkedin")
		So(ok, ShouldBeFalse)
		So(badges.NewEngine().Category("linkedin", badges.Snapshot{}).Available, ShouldBeFalse)
	})
}
