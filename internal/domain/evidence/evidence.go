// Package evidence validates GitHub task evidence: URLs, repository names,
// per-task evidence rules and activity signals.
package evidence

import (
	"net/url"
	"regexp"
	"strings"

	fv "github.com/okian/ladder/internal/domain/filevalidation"
)

// Kind is the form a piece of evidence takes.
type Kind string

// Evidence kinds.
const (
	KindURL        Kind = "URL"
	KindScreenshot Kind = "SCREENSHOT"
	KindFile       Kind = "FILE"
)

// Valid reports whether k is a known evidence kind.
func (k Kind) Valid() bool {
	switch k {
	case KindURL, KindScreenshot, KindFile:
		return true
	}
	return false
}

// ParseKind converts s to a Kind, ignoring case.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	return k, k.Valid()
}

// Data is the payload submitted with evidence. Only the field matching the
// evidence kind is inspected.
type Data struct {
	URL  string   `json:"url,omitempty"`
	File *fv.File `json:"file,omitempty"`
}

// Check is a pass/fail outcome with a reason on failure.
type Check struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func pass() Check { return Check{Valid: true} }

func fail(msg string) Check { return Check{Error: msg} }

const (
	githubHost         = "github.com"
	maxOwnerLength     = 39
	maxRepoLength      = 100
	errInvalidURL      = "Invalid URL format"
	errNotGitHubURL    = "URL must be a GitHub URL (github.com)"
	errMissingRepo     = "URL must include the repository owner and name"
	errRepoFormat      = "Repository must be in the format owner/repo"
	errOwnerTooLong    = "Repository owner must be 39 characters or fewer"
	errRepoTooLong     = "Repository name must be 100 characters or fewer"
	errPatternMismatch = "URL doesn't match expected pattern for this task"
)

var repoFullNameRe = regexp.MustCompile(`^([a-zA-Z0-9._-]+)/([a-zA-Z0-9._-]+)$`)

// GitHub file rule-sets. None of them carries a minimum size.
var githubFileRules = map[string]fv.Rules{
	"screenshot": {
		AllowedTypes: []string{fv.MimePNG, fv.MimeJPEG, fv.MimeJPG, fv.MimeGIF, fv.MimeWEBP},
		MaxSize:      10 * fv.MB,
	},
	"markdown": {
		AllowedTypes: []string{fv.MimeMarkdown, fv.MimeXMD, fv.MimePlain},
		MaxSize:      fv.MB,
	},
	"document": {
		AllowedTypes: []string{fv.MimePDF, fv.MimeMarkdown, fv.MimePlain},
		MaxSize:      10 * fv.MB,
	},
}

// FileRules returns the GitHub rule-set by name (screenshot, markdown,
// document). Unknown names get the document rules.
func FileRules(name string) fv.Rules {
	if r, ok := githubFileRules[strings.ToLower(name)]; ok {
		return r.Clone()
	}
	return githubFileRules["document"].Clone()
}

// ValidateGitHubURL accepts absolute URLs on github.com whose path names at
// least an owner and a repository.
func ValidateGitHubURL(raw string) Check {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fail(errInvalidURL)
	}
	if !strings.EqualFold(u.Hostname(), githubHost) {
		return fail(errNotGitHubURL)
	}
	if len(pathSegments(u.Path)) < 2 {
		return fail(errMissingRepo)
	}
	return pass()
}

// ValidateRepoFullName checks an "owner/repo" string against GitHub's naming
// limits.
func ValidateRepoFullName(fullName string) Check {
	m := repoFullNameRe.FindStringSubmatch(fullName)
	if m == nil {
		return fail(errRepoFormat)
	}
	if len(m[1]) > maxOwnerLength {
		return fail(errOwnerTooLong)
	}
	if len(m[2]) > maxRepoLength {
		return fail(errRepoTooLong)
	}
	return pass()
}

func pathSegments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
