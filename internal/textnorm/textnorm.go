// Package textnorm implements the small set of string-normalization rules
// shared by domain normalization and memory-summary deduplication.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	nonAlphanumericDomain = regexp.MustCompile(`[^a-z0-9]+`)
	whitespaceRun         = regexp.MustCompile(`\s+`)
	nonSummaryChar        = regexp.MustCompile(`[^a-z0-9 ]+`)
)

// NormalizeDomain normalizes a raw domain string: lowercase,
// hyphens→underscores, collapse runs of non-alphanumeric separators to a
// single underscore. It does not check catalog membership — callers fall
// back to "general" themselves when the result is unknown.
func NormalizeDomain(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = nonAlphanumericDomain.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	return s
}

// NormalizeSummary computes the normalized_summary used for memory
// deduplication: lowercase, collapse whitespace, strip everything outside
// [a-z0-9 ].
func NormalizeSummary(summary string) string {
	s := strings.ToLower(summary)
	s = nonSummaryChar.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
