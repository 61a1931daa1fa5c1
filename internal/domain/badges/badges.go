// Package badges computes tiered badge progress from a user's metrics.
//
// Each category is an ordered list of tiers. Tiers are evaluated in order and
// every tier sees the results of the tiers before it, which is where the
// gating between tiers is expressed.
package badges

import (
	"strings"

	"golang.org/x/text/cases"
)

// Tier is a badge level.
type Tier string

// Tiers in ascending order.
const (
	TierBronze  Tier = "bronze"
	TierSilver  Tier = "silver"
	TierGold    Tier = "gold"
	TierDiamond Tier = "diamond"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold, TierDiamond:
		return true
	}
	return false
}

// Category groups related badges.
type Category string

// Badge categories in display order.
const (
	CategoryProfile Category = "profile"
	CategoryJobs    Category = "jobs"
	CategoryNetwork Category = "network"
	CategoryGitHub  Category = "github"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryProfile, CategoryJobs, CategoryNetwork, CategoryGitHub}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryProfile, CategoryJobs, CategoryNetwork, CategoryGitHub:
		return true
	}
	return false
}

// ParseTier parses a tier name, ignoring case.
func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// ParseCategory parses a category name, ignoring case.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Snapshot is the read-only metrics input. Progress fields are percentages.
type Snapshot struct {
	ResumeProgress         float64 `json:"resumeProgress"`
	LinkedInProgress       float64 `json:"linkedinProgress"`
	DigitalProfileProgress float64 `json:"digitalProfileProgress"`
	GitHubProfileProgress  float64 `json:"githubProfileProgress"`
	JobApplications        int     `json:"jobApplications"`
	Connections            int     `json:"connections"`
	ProfileViews           int     `json:"profileViews"`
	GitHubRepos            int     `json:"githubRepos"`
	GitHubCommits          int     `json:"githubCommits"`
	Plan                   string  `json:"plan"`
	IsIT                   bool    `json:"isIT"`
}

// TierResult is one tier's computed state. Earned means unlocked and complete.
type TierResult struct {
	Tier     Tier    `json:"tier"`
	Progress float64 `json:"progress"`
	Unlocked bool    `json:"unlocked"`
	Earned   bool    `json:"earned"`
}

// CategoryResult holds a category's tiers in order. Available is false when
// the category does not apply to the user at all.
type CategoryResult struct {
	Category  Category     `json:"category"`
	Available bool         `json:"available"`
	Tiers     []TierResult `json:"tiers"`
}

// Tier returns the result for t, if the category has it.
func (c CategoryResult) Tier(t Tier) (TierResult, bool) {
	for _, r := range c.Tiers {
		if r.Tier == t {
			return r, true
		}
	}
	return TierResult{}, false
}

// Option configures an Engine.
type Option func(*Engine)

// WithPremiumPlans replaces the plan identifiers that count as premium.
func WithPremiumPlans(plans ...string) Option {
	return func(e *Engine) {
		e.premium = make(map[string]struct{}, len(plans))
		for _, p := range plans {
			if p = fold(p); p != "" {
				e.premium[p] = struct{}{}
			}
		}
	}
}

// DefaultPremiumPlans are the plans treated as premium unless overridden.
var DefaultPremiumPlans = []string{"premium", "enterprise"}

// Engine evaluates badge progress. It is immutable after construction and
// safe for concurrent use.
type Engine struct {
	premium map[string]struct{}
}

// NewEngine builds an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	WithPremiumPlans(DefaultPremiumPlans...)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsPremium reports whether plan is one of the premium plans.
func (e *Engine) IsPremium(plan string) bool {
	_, ok := e.premium[fold(plan)]
	return ok
}

// Evaluate computes every category.
func (e *Engine) Evaluate(s Snapshot) Progression {
	p := Progression{Categories: make([]CategoryResult, 0, len(Categories))}
	for _, c := range Categories {
		p.Categories = append(p.Categories, e.Category(c, s))
	}
	return p
}

// Category computes a single category. Unknown categories yield an
// unavailable result with no tiers.
func (e *Engine) Category(c Category, s Snapshot) CategoryResult {
	def, ok := ladders[c]
	if !ok {
		return CategoryResult{Category: c, Tiers: []TierResult{}}
	}
	if def.available != nil && !def.available(s) {
		return CategoryResult{Category: c, Tiers: lockedTiers(def.steps)}
	}

	done := make([]TierResult, 0, len(def.steps))
	for _, st := range def.steps {
		in := stepInput{engine: e, snap: s, done: done}
		r := TierResult{
			Tier:     st.tier,
			Progress: st.progress(in),
			Unlocked: st.unlocked(in),
		}
		r.Earned = r.Unlocked && r.Progress >= full
		done = append(done, r)
	}
	return CategoryResult{Category: c, Available: true, Tiers: done}
}

func lockedTiers(steps []step) []TierResult {
	out := make([]TierResult, len(steps))
	for i, st := range steps {
		out[i] = TierResult{Tier: st.tier}
	}
	return out
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
