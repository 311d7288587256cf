package extractor

import "strings"

// looksLikeURL applies the accepted heuristic for free-form URL candidates
// (spec Open Question, resolved in SPEC_FULL.md §9): only a string starting
// with http:// or https:// and containing no whitespace is treated as a URL.
// Anything else is left for the caller to discard.
func looksLikeURL(s string) bool {
	if s == "" {
		return false
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	return !strings.ContainsAny(s, " \t\n\r")
}
