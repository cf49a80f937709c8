// Package collection maps human folder labels onto concrete index
// partition names: a pure sanitization function and a pure resolver over a
// live partition list. Neither performs I/O.
package collection

import "regexp"

// Partition name constraints. Names are [a-zA-Z0-9_-], between 3 and 63
// characters, with no leading or trailing underscore.
const (
	minNameLen = 3
	maxNameLen = 63
)

var (
	invalidRunes  = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	repeatedScore = regexp.MustCompile(`_+`)
)

// Sanitize derives the partition name for a folder label. It is total and
// idempotent: any input yields a valid name, and sanitizing a sanitized
// name returns it unchanged, so the same label always resolves to the same
// partition.
func Sanitize(label string) string {
	name := invalidRunes.ReplaceAllString(label, "_")
	name = repeatedScore.ReplaceAllString(name, "_")

	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	name = trimScore(name)
	if len(name) < minNameLen {
		name = trimScore(name + "_col")
	}
	return name
}

func trimScore(s string) string {
	for len(s) > 0 && s[0] == '_' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == '_' {
		s = s[:len(s)-1]
	}
	return s
}
