package timewindow

import (
	"fmt"
	"time"
)

// ActionType identifies a job-hunting action that can earn a time bonus.
type ActionType string

// Known bonus action types.
const (
	ActionFollowUp       ActionType = "follow_up"
	ActionPerJobFollowUp ActionType = "per_job_follow_up"
	ActionThankYou       ActionType = "thank_you"
)

// Urgency classifies how close a deadline is.
type Urgency string

// Urgency levels, tightest first.
const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// Urgency thresholds (inclusive upper bounds).
const (
	criticalWithin = 2 * time.Hour
	highWithin     = 6 * time.Hour
	mediumWithin   = 24 * time.Hour
)

type bonusRule struct {
	thresholdHours float64
	points         int
}

// bonusRules is written once at init and only read afterwards.
var bonusRules = map[ActionType]bonusRule{
	ActionFollowUp:       {thresholdHours: 36, points: 3},
	ActionPerJobFollowUp: {thresholdHours: 36, points: 2},
	ActionThankYou:       {thresholdHours: 12, points: 2},
}

// Bonus is the outcome of a time-based bonus check.
type Bonus struct {
	Eligible    bool   `json:"eligible"`
	BonusPoints int    `json:"bonusPoints"`
	Reason      string `json:"reason"`
}

// Valid reports whether a is a known action type.
func (a ActionType) Valid() bool {
	_, ok := bonusRules[a]
	return ok
}

// GetTimeBasedBonus grants the action's bonus points when actionTime is no
// more than the action's threshold after baseTime.
func GetTimeBasedBonus(actionType ActionType, baseTime, actionTime time.Time) Bonus {
	rule, ok := bonusRules[actionType]
	if !ok {
		return Bonus{Reason: fmt.Sprintf("Unknown action type: %s", actionType)}
	}

	elapsed := actionTime.Sub(baseTime).Hours()
	if elapsed <= rule.thresholdHours {
		return Bonus{
			Eligible:    true,
			BonusPoints: rule.points,
			Reason: fmt.Sprintf("Completed within %s hours (%.1f hours elapsed)",
				formatHours(rule.thresholdHours), elapsed),
		}
	}
	return Bonus{
		Reason: fmt.Sprintf("Completed after %s hours (%.1f hours elapsed)",
			formatHours(rule.thresholdHours), elapsed),
	}
}

// GetUrgencyLevel maps the time left before a deadline to an urgency tier.
func GetUrgencyLevel(remaining time.Duration) Urgency {
	switch {
	case remaining <= criticalWithin:
		return UrgencyCritical
	case remaining <= highWithin:
		return UrgencyHigh
	case remaining <= mediumWithin:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}
