package labeled

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// DefaultNameSimilarity is the minimum Jaro-Winkler score at which two
// normalized speaker names count as the same person. High enough that a
// different first name over a shared surname is rejected, low enough to
// absorb a single-character transcription typo.
const DefaultNameSimilarity = 0.93

// NormalizeName canonicalizes a speaker name for comparison: a single
// "Last, First" form becomes "First Last", whitespace is collapsed, and the
// result is uppercased. "Aamodt, Wyatt" and "WYATT  AAMODT" both normalize
// to "WYATT AAMODT".
func NormalizeName(name string) string {
	if before, after, found := strings.Cut(name, ","); found && !strings.Contains(after, ",") {
		name = after + " " + before
	}
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// sameSpeaker reports whether two normalized names identify the same
// person: exact equality, or near-identical spelling above the similarity
// threshold.
func sameSpeaker(a, b string, threshold float64) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	return matchr.JaroWinkler(a, b, false) >= threshold
}
