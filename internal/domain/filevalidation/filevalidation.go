// Package filevalidation checks uploaded file descriptors against named
// rule-sets. Checks run in a fixed order and the first failure wins.
package filevalidation

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Common MIME types accepted by the built-in rule-sets.
const (
	MimePDF      = "application/pdf"
	MimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimePNG      = "image/png"
	MimeJPEG     = "image/jpeg"
	MimeJPG      = "image/jpg"
	MimeGIF      = "image/gif"
	MimeWEBP     = "image/webp"
	MimeMarkdown = "text/markdown"
	MimeXMD      = "text/x-markdown"
	MimePlain    = "text/plain"
)

const (
	KB int64 = 1024
	MB int64 = 1024 * KB
)

// File describes an uploaded file as reported by the client.
type File struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Rules is a file rule-set. MinSize of zero means no minimum.
type Rules struct {
	AllowedTypes []string `json:"allowedTypes"`
	MaxSize      int64    `json:"maxSize"`
	MinSize      int64    `json:"minSize,omitempty"`
}

// Allows reports whether mimeType is in the allowed list.
func (r Rules) Allows(mimeType string) bool {
	return slices.Contains(r.AllowedTypes, mimeType)
}

// Clone returns a copy that does not share the allowed-types slice.
func (r Rules) Clone() Rules {
	r.AllowedTypes = slices.Clone(r.AllowedTypes)
	return r
}

// Result is the outcome of validating one file.
type Result struct {
	IsValid  bool   `json:"isValid"`
	Error    string `json:"error,omitempty"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

// Rejection pairs an invalid file with its reason.
type Rejection struct {
	File  File   `json:"file"`
	Error string `json:"error"`
}

// Partition splits a batch into accepted and rejected files, each in input order.
type Partition struct {
	Valid   []File      `json:"valid"`
	Invalid []Rejection `json:"invalid"`
}

var (
	resumeRules = Rules{
		AllowedTypes: []string{MimePDF, MimeDOCX},
		MaxSize:      5 * MB,
		MinSize:      KB,
	}
	coverLetterRules = Rules{
		AllowedTypes: []string{MimePDF, MimeDOCX},
		MaxSize:      5 * MB,
		MinSize:      KB,
	}
	screenshotRules = Rules{
		AllowedTypes: []string{MimePNG, MimeJPEG, MimeJPG},
		MaxSize:      10 * MB,
		MinSize:      KB,
	}
	documentRules = Rules{
		AllowedTypes: []string{MimePDF, MimeDOCX, MimePNG, MimeJPEG, MimeJPG},
		MaxSize:      10 * MB,
		MinSize:      KB,
	}
)

// ruleAliases maps folded evidence-type names to their rule-set.
var ruleAliases = map[string]*Rules{
	"resume":       &resumeRules,
	"cv":           &resumeRules,
	"cover_letter": &coverLetterRules,
	"coverletter":  &coverLetterRules,
	"screenshot":   &screenshotRules,
	"image":        &screenshotRules,
}

// extensionLabels names MIME types in user-facing error messages.
var extensionLabels = map[string]string{
	MimePDF:      "PDF",
	MimeDOCX:     "DOCX",
	MimePNG:      "PNG",
	MimeJPEG:     "JPEG",
	MimeJPG:      "JPG",
	MimeGIF:      "GIF",
	MimeWEBP:     "WEBP",
	MimeMarkdown: "MD",
	MimeXMD:      "MD",
	MimePlain:    "TXT",
}

// ValidateFile runs the ordered checks: type, maximum size, minimum size,
// emptiness. Only the first failing check is reported.
func ValidateFile(file File, rules Rules) Result {
	res := Result{FileType: file.MimeType, FileSize: file.Size}

	switch {
	case !rules.Allows(file.MimeType):
		res.Error = "File type not allowed. Supported formats: " + SupportedFormats(rules.AllowedTypes)
	case file.Size > rules.MaxSize:
		res.Error = fmt.Sprintf("File size too large. Maximum allowed: %dMB", roundedUnits(rules.MaxSize, MB))
	case rules.MinSize > 0 && file.Size < rules.MinSize:
		res.Error = fmt.Sprintf("File size too small. Minimum required: %dKB", roundedUnits(rules.MinSize, KB))
	case file.Size == 0:
		res.Error = "File appears to be empty"
	default:
		res.IsValid = true
	}
	return res
}

// ValidateFiles validates every file against the same rules, keeping input order.
func ValidateFiles(files []File, rules Rules) []Result {
	out := make([]Result, 0, len(files))
	for _, f := range files {
		out = append(out, ValidateFile(f, rules))
	}
	return out
}

// GetValidationRules returns the rule-set for an evidence type. Lookup is
// case-insensitive and unknown types get the document rules.
func GetValidationRules(evidenceType string) Rules {
	if r, ok := ruleAliases[foldKey(evidenceType)]; ok {
		return r.Clone()
	}
	return documentRules.Clone()
}

// ValidateEvidenceFiles partitions files by the rules for evidenceType.
func ValidateEvidenceFiles(files []File, evidenceType string) Partition {
	rules := GetValidationRules(evidenceType)
	p := Partition{Valid: []File{}, Invalid: []Rejection{}}
	for _, f := range files {
		res := ValidateFile(f, rules)
		if res.IsValid {
			p.Valid = append(p.Valid, f)
			continue
		}
		p.Invalid = append(p.Invalid, Rejection{File: f, Error: res.Error})
	}
	return p
}

// SupportedFormats renders MIME types as a de-duplicated extension list,
// e.g. "PDF, DOCX".
func SupportedFormats(mimeTypes []string) string {
	labels := make([]string, 0, len(mimeTypes))
	for _, mt := range mimeTypes {
		label := extensionLabel(mt)
		if !slices.Contains(labels, label) {
			labels = append(labels, label)
		}
	}
	return strings.Join(labels, ", ")
}

func extensionLabel(mimeType string) string {
	if l, ok := extensionLabels[mimeType]; ok {
		return l
	}
	if _, sub, ok := strings.Cut(mimeType, "/"); ok && sub != "" {
		return strings.ToUpper(sub)
	}
	return strings.ToUpper(mimeType)
}

// Casers are stateful, so build one per call.
func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func roundedUnits(size, unit int64) int64 {
	return int64(math.Round(float64(size) / float64(unit)))
}
