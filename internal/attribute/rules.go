package attribute

import (
	"regexp"
	"strings"
)

// Lexicon holds the word tables behind the lexical inclusion rules. The
// tables ship with hockey-interview defaults but are plain data, so deploys
// can swap them for another sport or language without code changes.
type Lexicon struct {
	// ShortAcknowledgements are complete utterances admitted verbatim after
	// lowercasing and trailing-punctuation trimming ("Yeah." matches "yeah").
	ShortAcknowledgements []string

	// FirstPersonMarkers are words compiled into a word-boundary pattern.
	// "me" matches "it meant a lot to me" but not "memento".
	FirstPersonMarkers []string

	// ContinuationPhrases are filler openers compiled into a word-boundary
	// pattern. They admit a fragment only when it carries more than one
	// word, so a bare "um" does not survive on its own.
	ContinuationPhrases []string

	// IntrospectiveTerms are matched as substrings, which also covers
	// inflections ("think" matches "thinking").
	IntrospectiveTerms []string
}

// DefaultLexicon returns the word tables tuned on hockey interview
// transcripts.
func DefaultLexicon() Lexicon {
	return Lexicon{
		ShortAcknowledgements: []string{
			"yeah", "yes", "no", "right", "exactly", "sure",
			"okay", "ok", "um", "uh", "well", "so",
		},
		FirstPersonMarkers: []string{"i", "me", "my", "we", "our"},
		ContinuationPhrases: []string{
			"you know", "um", "uh", "well", "so",
		},
		IntrospectiveTerms: []string{
			"think", "feel", "believe", "experience", "remember",
			"my team", "my game", "my career",
		},
	}
}

// InclusionRules decides whether an unlabeled fragment reads as answer
// speech. The rules are deliberately generous: interview answers are often
// single acknowledgements or trail-offs that no classifier flags, and a
// false positive costs less than a dropped answer.
type InclusionRules struct {
	acks          map[string]struct{}
	firstPerson   *regexp.Regexp
	continuation  *regexp.Regexp
	introspective []string
}

// trailing punctuation stripped before the acknowledgement lookup
const ackTrimSet = ".,!;:"

// NewInclusionRules compiles the lexicon into matchers. Empty tables
// deactivate their rule rather than admitting everything.
func NewInclusionRules(lex Lexicon) *InclusionRules {
	r := &InclusionRules{
		acks:          make(map[string]struct{}, len(lex.ShortAcknowledgements)),
		firstPerson:   wordPattern(lex.FirstPersonMarkers),
		continuation:  wordPattern(lex.ContinuationPhrases),
		introspective: lowerAll(lex.IntrospectiveTerms),
	}
	for _, ack := range lex.ShortAcknowledgements {
		r.acks[strings.ToLower(strings.TrimSpace(ack))] = struct{}{}
	}
	return r
}

// Admit reports whether text qualifies as answer speech under any rule:
// an exact short acknowledgement, a first-person marker, a continuation
// phrase on a multi-word fragment, or an introspective term. Callers are
// expected to have screened out questions first.
func (r *InclusionRules) Admit(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	if _, ok := r.acks[strings.TrimRight(t, ackTrimSet)]; ok {
		return true
	}
	if r.firstPerson != nil && r.firstPerson.MatchString(t) {
		return true
	}
	if r.continuation != nil && len(strings.Fields(t)) > 1 && r.continuation.MatchString(t) {
		return true
	}
	for _, term := range r.introspective {
		if strings.Contains(t, term) {
			return true
		}
	}
	return false
}

// wordPattern builds a case-insensitive word-boundary alternation from the
// entries, or nil when there are none.
func wordPattern(entries []string) *regexp.Regexp {
	if len(entries) == 0 {
		return nil
	}
	quoted := make([]string, len(entries))
	for i, e := range entries {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(strings.TrimSpace(e)))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

func lowerAll(entries []string) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = strings.ToLower(strings.TrimSpace(e))
	}
	return out
}
