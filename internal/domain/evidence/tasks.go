package evidence

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	fv "github.com/okian/ladder/internal/domain/filevalidation"
)

// Task code prefixes.
const (
	WeeklyPrefix   = "GHW_"
	ShowcasePrefix = "GHS_"
)

// TaskRule lists the evidence kinds a task accepts and, for URL evidence,
// optional patterns the URL should match.
type TaskRule struct {
	RequiredKinds []Kind
	URLPatterns   []*regexp.Regexp
}

// Accepts reports whether k is one of the rule's kinds.
func (r TaskRule) Accepts(k Kind) bool {
	return slices.Contains(r.RequiredKinds, k)
}

func (r TaskRule) matchesURL(raw string) bool {
	for _, re := range r.URLPatterns {
		if re.MatchString(raw) {
			return true
		}
	}
	return false
}

var (
	repoPattern   = regexp.MustCompile(`github\.com/[^/]+/[^/]+`)
	pullPattern   = regexp.MustCompile(`github\.com/[^/]+/[^/]+/pull/\d+`)
	issuePattern  = regexp.MustCompile(`github\.com/[^/]+/[^/]+/issues/\d+`)
	readmePattern = regexp.MustCompile(`(?i)github\.com/[^/]+/[^/]+/(blob|commit|commits)/.+`)
)

// taskRules is keyed by open task codes; unknown codes are permissive.
var taskRules = map[string]TaskRule{
	"GHW_COMMIT_5DAYS": {
		RequiredKinds: []Kind{KindURL, KindScreenshot},
		URLPatterns:   []*regexp.Regexp{repoPattern},
	},
	"GHW_MERGE_1PR": {
		RequiredKinds: []Kind{KindURL},
		URLPatterns:   []*regexp.Regexp{pullPattern},
	},
	"GHW_README_UPDATE": {
		RequiredKinds: []Kind{KindURL, KindFile},
		URLPatterns:   []*regexp.Regexp{readmePattern, repoPattern},
	},
	"GHW_OPEN_ISSUE": {
		RequiredKinds: []Kind{KindURL},
		URLPatterns:   []*regexp.Regexp{issuePattern},
	},
	"GHW_CODE_REVIEW": {
		RequiredKinds: []Kind{KindURL, KindScreenshot},
		URLPatterns:   []*regexp.Regexp{pullPattern},
	},
	"GHW_STAR_REPOS": {
		RequiredKinds: []Kind{KindScreenshot},
	},
	"GHS_PROFILE_README": {
		RequiredKinds: []Kind{KindURL, KindScreenshot},
		URLPatterns:   []*regexp.Regexp{repoPattern},
	},
	"GHS_PINNED_REPOS": {
		RequiredKinds: []Kind{KindScreenshot},
	},
	"GHS_PROJECT_DEPLOY": {
		RequiredKinds: []Kind{KindURL, KindScreenshot},
	},
	"GHS_CONTRIBUTION_GRAPH": {
		RequiredKinds: []Kind{KindScreenshot},
	},
	"GHS_OPEN_SOURCE_PR": {
		RequiredKinds: []Kind{KindURL},
		URLPatterns:   []*regexp.Regexp{pullPattern},
	},
}

// LookupTask returns the rule for a task code.
func LookupTask(code string) (TaskRule, bool) {
	r, ok := taskRules[code]
	return r, ok
}

// TaskCodes returns the known task codes in sorted order.
func TaskCodes() []string {
	codes := make([]string, 0, len(taskRules))
	for c := range taskRules {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// IsWeeklyTask reports whether code names a weekly (time-boxed) task.
func IsWeeklyTask(code string) bool { return strings.HasPrefix(code, WeeklyPrefix) }

// IsShowcaseTask reports whether code names a showcase task.
func IsShowcaseTask(code string) bool { return strings.HasPrefix(code, ShowcasePrefix) }

// ValidateEvidenceForTask checks evidence against the task's rule. Unknown
// task codes always pass.
//
// URL patterns are a fallback: they are only consulted when the URL fails the
// plain GitHub URL check, so a well-formed github.com URL is accepted even if
// it matches none of the patterns.
func ValidateEvidenceForTask(taskCode string, kind Kind, data Data) Check {
	rule, ok := taskRules[taskCode]
	if !ok {
		return pass()
	}
	if !rule.Accepts(kind) {
		return fail(fmt.Sprintf("Evidence type %s is not accepted for this task. Accepted: %s",
			kind, joinKinds(rule.RequiredKinds)))
	}

	switch kind {
	case KindURL:
		if data.URL == "" {
			return pass()
		}
		if ValidateGitHubURL(data.URL).Valid || len(rule.URLPatterns) == 0 {
			return pass()
		}
		if !rule.matchesURL(data.URL) {
			return fail(errPatternMismatch)
		}
	case KindScreenshot, KindFile:
		if data.File == nil {
			return pass()
		}
		set := "document"
		if kind == KindScreenshot {
			set = "screenshot"
		}
		if res := fv.ValidateFile(*data.File, FileRules(set)); !res.IsValid {
			return fail(res.Error)
		}
	}
	return pass()
}

// WindowCheck is the outcome of a task time-window check. HoursRemaining is
// set only for accepted weekly submissions.
type WindowCheck struct {
	Valid          bool     `json:"valid"`
	Error          string   `json:"error,omitempty"`
	HoursRemaining *float64 `json:"hoursRemaining,omitempty"`
}

// ValidateTaskTimeWindow bounds weekly task submissions to their period.
// Showcase tasks and weekly tasks without both bounds always pass.
func ValidateTaskTimeWindow(taskCode string, submittedAt time.Time, periodStart, periodEnd *time.Time) WindowCheck {
	if IsShowcaseTask(taskCode) || !IsWeeklyTask(taskCode) || periodStart == nil || periodEnd == nil {
		return WindowCheck{Valid: true}
	}
	if submittedAt.Before(*periodStart) {
		return WindowCheck{Error: "Submission is before the task period started"}
	}
	if submittedAt.After(*periodEnd) {
		return WindowCheck{Error: "Task period has ended"}
	}
	hours := math.Floor(periodEnd.Sub(submittedAt).Hours())
	return WindowCheck{Valid: true, HoursRemaining: &hours}
}

func joinKinds(kinds []Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}
