// Package jsonextract implements a single tolerant JSON-from-LLM-text
// extractor shared by every component that parses a model's JSON answer out
// of free-form text: strip an optional fenced code block, else take the
// substring between the first '{' and the last '}'.
package jsonextract

import (
	"regexp"
	"strings"
)

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// Extract returns the best-effort JSON object substring found in text, or
// the empty string if no plausible candidate exists. It never parses the
// JSON itself — callers own validation into a strongly-typed record.
func Extract(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if m := fencedBlockPattern.FindStringSubmatch(text); m != nil {
		candidate := strings.TrimSpace(m[1])
		if candidate != "" {
			return candidate
		}
	}

	first := strings.IndexByte(text, '{')
	last := strings.LastIndexByte(text, '}')
	if first == -1 || last == -1 || last < first {
		return ""
	}
	return text[first : last+1]
}
