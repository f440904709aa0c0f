// Package lexicon profiles attributed speech against named word categories.
// Each category is a set of lowercase words; a document's score for the
// category is the share of its words that fall in the set, as a percentage.
// Scoring is pure and deterministic, so the same speech always yields the
// same profile.
package lexicon

import (
	"regexp"
	"strings"
)

// Words are runs of word characters, the same tokenization the category
// tables assume. "it's" counts as two tokens.
var wordPattern = regexp.MustCompile(`\w+`)

// Analysis is the category profile of one speech document.
type Analysis struct {
	// WordCount is the number of tokens scored.
	WordCount int

	// AvgSentenceLength is WordCount divided by the number of
	// sentence-ending marks, at least one.
	AvgSentenceLength float64

	// Scores maps each category name to the percentage of words that
	// belong to it. Every configured category is present, zero included.
	Scores map[string]float64
}

// Analyzer scores text against a fixed category table. It is safe for
// concurrent use.
type Analyzer struct {
	categories map[string]map[string]struct{}
}

// New builds an [Analyzer] from categories. Words are lowercased once here.
// A nil map uses [DefaultCategories].
func New(categories map[string][]string) *Analyzer {
	if categories == nil {
		categories = DefaultCategories()
	}
	a := &Analyzer{categories: make(map[string]map[string]struct{}, len(categories))}
	for name, words := range categories {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[strings.ToLower(w)] = struct{}{}
		}
		a.categories[name] = set
	}
	return a
}

// Analyze scores text against every category. Empty text yields a zero
// profile with all categories present.
func (a *Analyzer) Analyze(text string) Analysis {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	out := Analysis{
		WordCount: len(words),
		Scores:    make(map[string]float64, len(a.categories)),
	}
	for name := range a.categories {
		out.Scores[name] = 0
	}
	if len(words) == 0 {
		return out
	}

	for name, set := range a.categories {
		count := 0
		for _, w := range words {
			if _, ok := set[w]; ok {
				count++
			}
		}
		out.Scores[name] = float64(count) / float64(len(words)) * 100
	}

	marks := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	if marks < 1 {
		marks = 1
	}
	out.AvgSentenceLength = float64(len(words)) / float64(marks)
	return out
}

// DefaultCategories returns the built-in category tables: a hockey-interview
// subset of the LIWC 2015 dictionary, restricted to single-word entries
// because scoring is per token.
func DefaultCategories() map[string][]string {
	return map[string][]string{
		"first_person_singular": {"i", "me", "my", "myself", "mine"},
		"first_person_plural":   {"we", "us", "our", "ours", "ourselves"},
		"positive_emotion": {
			"happy", "joy", "love", "laugh", "smile", "great", "good",
			"excellent", "awesome", "fantastic", "wonderful", "amazing",
			"proud", "glad", "grateful", "pleased", "thrilled", "enjoy", "fun",
		},
		"negative_emotion": {
			"sad", "angry", "hate", "fear", "worry", "anxiety", "stress",
			"bad", "terrible", "awful", "frustrated", "upset", "disappointed",
			"hurt", "sorry", "unhappy",
		},
		"anxiety": {
			"worried", "anxious", "nervous", "afraid", "fear", "panic",
			"stress", "pressure", "tension", "scared", "concerned",
		},
		"insight": {
			"think", "thought", "know", "understand", "realize", "consider",
			"aware", "mind", "reflect", "thinking",
		},
		"certainty": {
			"always", "never", "definitely", "certain", "sure", "absolutely",
			"certainly", "clearly", "obviously", "positive",
		},
		"doubt": {
			"maybe", "perhaps", "might", "could", "uncertain", "unsure",
			"unclear", "doubt", "guess", "possibly", "probably", "wonder",
		},
		"family": {
			"mother", "father", "mom", "dad", "parent", "parents", "brother",
			"sister", "family", "grandmother", "grandfather",
		},
		"friend": {
			"friend", "friends", "buddy", "buddies", "pal", "pals",
			"teammate", "teammates",
		},
		"achievement": {
			"achieve", "achieved", "achievement", "success", "successful",
			"accomplish", "accomplished", "goal", "goals", "win", "won",
			"winning", "victory", "champion", "championship", "earn", "earned",
		},
		"competition": {
			"compete", "competing", "competition", "competitor", "opponent",
			"rival", "game", "games", "match", "tournament", "playoff",
			"playoffs", "finals", "beat", "battle",
		},
		"training": {
			"practice", "practicing", "practiced", "training", "train",
			"trained", "drill", "drills", "workout", "workouts",
			"conditioning", "preparation", "prepare",
		},
		"team_orientation": {
			"team", "teams", "teammate", "teammates", "together", "united",
			"unity", "collective", "squad",
		},
		"confidence": {
			"confident", "confidence", "believe", "believes", "trust",
			"optimistic", "optimism",
		},
		"pressure": {
			"pressure", "pressures", "stress", "stressed", "tense", "tension",
			"strain", "burden", "challenge", "challenging",
		},
		"gratitude": {
			"thankful", "thanks", "appreciate", "appreciation", "grateful",
			"gratitude", "blessed", "fortunate", "privilege", "privileged",
		},
		"resilience": {
			"recover", "recovery", "resilient", "persevere", "perseverance",
			"overcome", "overcame", "fight", "fighting",
		},
	}
}
