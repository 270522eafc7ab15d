// Package outputs names and locates the per-job output directories and files.
package outputs

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// MaxTokenLength bounds each label token in a directory name
	MaxTokenLength = 60
	// PlaceholderToken replaces a label that slugs to nothing
	PlaceholderToken = "unknown"

	maxSourceSlugLength = 80
	defaultSourceSlug   = "job"
	defaultUploadStem   = "upload"
	defaultUploadExt    = ".pdf"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	scheme   = regexp.MustCompile(`https?://`)
)

// Exists reports whether anything exists at path
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Slug turns a label into a filesystem-safe token.
// Example: "Acme Corp." -> "acme_corp"
func Slug(label string) string {
	token := nonAlnum.ReplaceAllString(strings.ToLower(label), "_")
	token = strings.Trim(token, "_")
	token = truncate(token, MaxTokenLength)
	if token == "" {
		return PlaceholderToken
	}
	return token
}

// BaseName joins the slugs of two labels, e.g. company and role
func BaseName(label1, label2 string) string {
	return Slug(label1) + "_" + Slug(label2)
}

// Resolve returns baseDir/BaseName(label1, label2), or the first of
// baseName_1, baseName_2, ... for which exists is false.
// The check is not atomic with the caller's directory creation.
func Resolve(baseDir, label1, label2 string, exists func(string) bool) string {
	return Unique(baseDir, BaseName(label1, label2), exists)
}

// Unique returns baseDir/baseName or the first free numbered variant
func Unique(baseDir, baseName string, exists func(string) bool) string {
	if exists == nil {
		exists = Exists
	}

	candidate := filepath.Join(baseDir, baseName)
	for n := 1; exists(candidate); n++ {
		candidate = filepath.Join(baseDir, fmt.Sprintf("%s_%d", baseName, n))
	}
	return candidate
}

// SourceSlug is a short label for a job source, used to tag log lines.
// Example: "https://jobs.example.com/123" -> "jobs-example-com-123"
func SourceSlug(source string) string {
	slug := scheme.ReplaceAllString(strings.ToLower(source), "")
	slug = nonAlnum.ReplaceAllString(slug, "-")
	slug = truncate(strings.Trim(slug, "-"), maxSourceSlugLength)
	if slug == "" {
		return defaultSourceSlug
	}
	return slug
}

// SafeFilename rewrites an untrusted upload filename to a slugged stem
// with the original extension. Missing extensions default to .pdf.
func SafeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" {
		base = ""
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" || ext == "." || !isSafeExt(ext) {
		ext = defaultUploadExt
	}

	slug := nonAlnum.ReplaceAllString(strings.ToLower(stem), "_")
	slug = truncate(strings.Trim(slug, "_"), MaxTokenLength)
	if slug == "" {
		slug = defaultUploadStem
	}
	return slug + strings.ToLower(ext)
}

// Files names the artifacts written for one job
type Files struct {
	Dir  string
	Base string
}

// Path returns Dir/Base + suffix
func (f Files) Path(suffix string) string {
	return filepath.Join(f.Dir, f.Base+suffix)
}

// Artifact suffixes
const (
	SuffixCV          = "_cv.md"
	SuffixCoverLetter = "_cover_letter.md"
	SuffixCVPDF       = "_cv.pdf"
	SuffixCoverPDF    = "_cover_letter.pdf"
	SuffixCandidate   = "_candidate.json"
	SuffixJob         = "_job.json"
	SuffixMapping     = "_mapping.md"
	SuffixCVDraft     = "_cv_draft.md"
	SuffixATSAudit    = "_ats_audit.json"
)

func isSafeExt(ext string) bool {
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return len(ext) <= 10
}

func truncate(s string, n int) string {
	// s is ASCII after slugging
	if len(s) > n {
		return s[:n]
	}
	return s
}
