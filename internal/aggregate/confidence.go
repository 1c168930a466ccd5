package aggregate

import (
	"strings"
	"unicode"
)

// Confidence scores a secondary response on surface signals of substance.
// The score starts at 0.5 and earns a bonus per predicate: +0.1 for more
// than 50 words, +0.2 for structural punctuation, +0.2 for numeric content.
// Each predicate only ever raises the score; the result is capped at 1.0.
func Confidence(response string) float64 {
	score := 0.5

	if len(strings.Fields(response)) > 50 {
		score += 0.1
	}
	if hasStructure(response) {
		score += 0.2
	}
	if hasDigit(response) {
		score += 0.2
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// hasStructure reports whether the text carries list or section punctuation.
func hasStructure(s string) bool {
	if strings.ContainsAny(s, ":;") {
		return true
	}
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
