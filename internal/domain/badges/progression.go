package badges

// Progression is the full evaluation of a snapshot.
type Progression struct {
	Categories []CategoryResult `json:"categories"`
}

// Goal points at a tier worth working on next.
type Goal struct {
	Category Category `json:"category"`
	Tier     Tier     `json:"tier"`
	Progress float64  `json:"progress"`
}

// Summary counts earned badges across available categories.
type Summary struct {
	Earned int   `json:"earned"`
	Total  int   `json:"total"`
	Next   *Goal `json:"next,omitempty"`
}

// Category returns the result for c.
func (p Progression) Category(c Category) (CategoryResult, bool) {
	for _, r := range p.Categories {
		if r.Category == c {
			return r, true
		}
	}
	return CategoryResult{}, false
}

// Summary reports earned and total tiers, plus the unlocked but unearned tier
// with the most progress. Ties go to the earlier category and tier.
func (p Progression) Summary() Summary {
	var s Summary
	for _, c := range p.Categories {
		if !c.Available {
			continue
		}
		for _, t := range c.Tiers {
			s.Total++
			if t.Earned {
				s.Earned++
				continue
			}
			if !t.Unlocked {
				continue
			}
			if s.Next == nil || t.Progress > s.Next.Progress {
				s.Next = &Goal{Category: c.Category, Tier: t.Tier, Progress: t.Progress}
			}
		}
	}
	return s
}
