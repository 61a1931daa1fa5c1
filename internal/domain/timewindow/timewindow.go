// Package timewindow evaluates deadline windows for job-hunting actions and
// derives bonus eligibility and urgency tiers from elapsed time.
//
// Every function is pure: the reference instant is always passed in by the
// caller so results are reproducible.
package timewindow

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Fixed window thresholds in hours.
const (
	FollowUpWindowHours    = 48
	ThankYouWindowHours    = 24
	BonusFollowUpHours     = 36
	businessDayStartHour   = 9
	businessDayEndHour     = 17
	dateTimeLayout         = "Jan 2, 2006 3:04 PM MST"
	expiredRemainingString = "Expired"
)

// Result reports whether an action is inside its allowed window.
//
// TimeRemainingMs is nil for retrospective checks (both instants known),
// zero when the window has expired and positive otherwise.
type Result struct {
	IsValid         bool   `json:"isValid"`
	IsExpired       bool   `json:"isExpired"`
	TimeRemainingMs *int64 `json:"timeRemainingMs,omitempty"`
	Message         string `json:"message"`
}

// Remaining returns the remaining time as a duration, or zero when unknown.
func (r Result) Remaining() time.Duration {
	if r.TimeRemainingMs == nil {
		return 0
	}
	return FromMillis(*r.TimeRemainingMs)
}

// FromHours converts fractional hours to a duration, saturating at the
// bounds of time.Duration.
func FromHours(hours float64) time.Duration {
	return saturate(hours * float64(time.Hour))
}

// FromMillis converts milliseconds to a duration, saturating at the bounds of
// time.Duration.
func FromMillis(ms int64) time.Duration {
	const limit = math.MaxInt64 / int64(time.Millisecond)
	switch {
	case ms > limit:
		return time.Duration(math.MaxInt64)
	case ms < -limit:
		return time.Duration(math.MinInt64)
	}
	return time.Duration(ms) * time.Millisecond
}

func saturate(ns float64) time.Duration {
	switch {
	case ns >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	case ns <= math.MinInt64:
		return time.Duration(math.MinInt64)
	}
	return time.Duration(ns)
}

// ValidateTimeWindow checks whether now is still before actionTime plus
// windowHours. Reaching the deadline exactly counts as expired.
func ValidateTimeWindow(actionTime time.Time, windowHours float64, now time.Time) Result {
	expiry := CalculateDeadline(actionTime, windowHours)
	remainingMs := expiry.Sub(now).Milliseconds()

	if remainingMs <= 0 {
		zero := int64(0)
		return Result{
			IsValid:         false,
			IsExpired:       true,
			TimeRemainingMs: &zero,
			Message: fmt.Sprintf("Time window of %s hours has expired (started %s)",
				formatHours(windowHours), FormatDateTime(actionTime)),
		}
	}

	remaining := FromMillis(remainingMs)
	return Result{
		IsValid:         true,
		IsExpired:       false,
		TimeRemainingMs: &remainingMs,
		Message: fmt.Sprintf("%s remaining (expires %s)",
			FormatTimeRemaining(remaining), FormatDateTime(expiry)),
	}
}

// Validate48HourWindow checks a follow-up against the 48 hour window after an
// application. Without a follow-up instant it reports the live countdown.
func Validate48HourWindow(applicationTime time.Time, followUpTime *time.Time, now time.Time) Result {
	return validateBetween("Follow-up", FollowUpWindowHours, applicationTime, followUpTime, now)
}

// Validate24HourThankYouWindow checks a thank-you note against the 24 hour
// window after an interview. Without a thank-you instant it reports the live
// countdown.
func Validate24HourThankYouWindow(interviewTime time.Time, thankYouTime *time.Time, now time.Time) Result {
	return validateBetween("Thank-you note", ThankYouWindowHours, interviewTime, thankYouTime, now)
}

// Validate36HourBonusWindow checks whether a follow-up landed inside the 36
// hour bonus window.
func Validate36HourBonusWindow(applicationTime, followUpTime time.Time) Result {
	return validateBetween("Follow-up", BonusFollowUpHours, applicationTime, &followUpTime, time.Time{})
}

// validateBetween is the shared retrospective/prospective check. When second
// is nil the window is measured against now.
func validateBetween(label string, thresholdHours float64, first time.Time, second *time.Time, now time.Time) Result {
	if second == nil {
		return ValidateTimeWindow(first, thresholdHours, now)
	}

	elapsed := second.Sub(first).Hours()
	if elapsed <= thresholdHours {
		return Result{
			IsValid:   true,
			IsExpired: false,
			Message: fmt.Sprintf("%s sent within %s hours (%.1f hours elapsed)",
				label, formatHours(thresholdHours), elapsed),
		}
	}
	return Result{
		IsValid:   false,
		IsExpired: true,
		Message: fmt.Sprintf("%s sent after the %s-hour window (%.1f hours elapsed)",
			label, formatHours(thresholdHours), elapsed),
	}
}

// CalculateDeadline returns start shifted by hours. Windows longer than
// time.Duration can hold end roughly 292 years after start.
func CalculateDeadline(start time.Time, hours float64) time.Time {
	return start.Add(FromHours(hours))
}

// FormatTimeRemaining renders a duration as "2d 3h", "5h 30m" or "45m".
func FormatTimeRemaining(d time.Duration) string {
	if d <= 0 {
		return expiredRemainingString
	}
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// FormatDateTime renders an instant in its own location.
func FormatDateTime(t time.Time) string {
	return t.Format(dateTimeLayout)
}

// IsBusinessHours reports whether t falls on a weekday between 09:00 and
// 17:00 (exclusive) in t's location.
func IsBusinessHours(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	hour := t.Hour()
	return hour >= businessDayStartHour && hour < businessDayEndHour
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
