// Package question implements the heuristic interrogative detector shared by
// segment classification, consolidation and the labeled-transcript parser.
//
// Detection is pure and deterministic: word tables go in at construction,
// every call sees the same tables, and nothing is cached across calls. The
// tables are exported so configuration (or a test) can substitute its own
// lists without touching the matching logic.
package question

import "strings"

// Tables holds the word lists that drive interrogative detection.
type Tables struct {
	// Openers are lowercase phrase prefixes that mark a span as a question
	// when the span is short enough (see MaxOpenerWords). Matching is plain
	// prefix matching on the lowercased text.
	Openers []string

	// Contains are lowercase phrases that mark a span as a question wherever
	// they appear. Only the full-transcript pipeline consults this list; the
	// labeled-transcript parser does not.
	Contains []string

	// CoreOpeners is the reduced interrogative set used by the
	// labeled-transcript parser. Entries are one or two words and are
	// matched against the first one or two words of the span, so "whatever"
	// does not match "what".
	CoreOpeners []string

	// MaxOpenerWords caps the opener rules: spans longer than this many
	// words are treated as narrative even when they start with an opener,
	// in both the full and core matching modes. Zero disables the cap.
	MaxOpenerWords int
}

// DefaultTables returns the built-in word tables tuned on hockey interview
// transcripts.
func DefaultTables() Tables {
	return Tables{
		Openers: []string{
			"did you", "what do you", "how do you", "why", "when", "where",
			"are you", "have you", "will you", "tell us", "walk us",
			"does this", "does the", "can you", "could you", "would you",
		},
		Contains: []string{
			"do you feel", "do you think", "what is your", "how do you feel",
		},
		CoreOpeners: []string{
			"what", "how", "when", "where", "who", "why", "which",
			"can you", "could you", "would you", "do you", "did you",
			"does he", "does she", "is it", "are you", "will you",
			"tell us", "can we",
		},
		MaxOpenerWords: 15,
	}
}

// Detector decides whether a text span is an interviewer question.
// It holds normalized copies of its Tables and is safe for concurrent use.
type Detector struct {
	openers        []string
	contains       []string
	core           map[string]struct{}
	maxOpenerWords int
}

// NewDetector builds a Detector from the given tables. Table entries are
// lowercased once here so per-call matching never re-normalizes them.
func NewDetector(t Tables) *Detector {
	d := &Detector{
		openers:        make([]string, 0, len(t.Openers)),
		contains:       make([]string, 0, len(t.Contains)),
		core:           make(map[string]struct{}, len(t.CoreOpeners)),
		maxOpenerWords: t.MaxOpenerWords,
	}
	for _, o := range t.Openers {
		d.openers = append(d.openers, strings.ToLower(o))
	}
	for _, c := range t.Contains {
		d.contains = append(d.contains, strings.ToLower(c))
	}
	for _, c := range t.CoreOpeners {
		d.core[strings.ToLower(c)] = struct{}{}
	}
	return d
}

// IsQuestion reports whether text reads as an interviewer question in the
// full-transcript pipeline. Rules are checked in order: a trailing question
// mark, an interrogative opener on a short span, then the contains phrases.
func (d *Detector) IsQuestion(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	if strings.HasSuffix(t, "?") {
		return true
	}
	if d.matchesOpener(t) {
		return true
	}
	for _, phrase := range d.contains {
		if strings.Contains(t, phrase) {
			return true
		}
	}
	return false
}

// IsCoreQuestion reports whether text reads as a question in the
// labeled-transcript parser context. Only the trailing question mark and the
// core interrogative openers apply; the contains phrases do not. The opener
// length cap holds here too, so a long narrative that happens to start with
// "when" is not discarded as a question.
func (d *Detector) IsCoreQuestion(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	if strings.HasSuffix(t, "?") {
		return true
	}
	words := strings.Fields(t)
	if len(words) == 0 {
		return false
	}
	if d.maxOpenerWords > 0 && len(words) > d.maxOpenerWords {
		return false
	}
	if _, ok := d.core[words[0]]; ok {
		return true
	}
	if len(words) >= 2 {
		if _, ok := d.core[words[0]+" "+words[1]]; ok {
			return true
		}
	}
	return false
}

// matchesOpener applies the opener rule to already-lowercased text.
func (d *Detector) matchesOpener(lower string) bool {
	if d.maxOpenerWords > 0 && len(strings.Fields(lower)) > d.maxOpenerWords {
		return false
	}
	for _, opener := range d.openers {
		if strings.HasPrefix(lower, opener) {
			return true
		}
	}
	return false
}
