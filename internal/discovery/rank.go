package discovery

import (
	"sort"
	"strings"
	"time"

	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// Term lists applied by [Rank]. All matching is lowercase substring
// containment against the candidate's title, description, or channel.
var (
	aiTerms = []string{
		"ai-generated", "ai generated", "artificial intelligence", "deepfake", "voice clone",
		"voice-clone", "tts", "text-to-speech", "11labs", "not real", "fake interview",
	}
	nonInterviewTerms = []string{
		"highlight", "goal", "goals", "compilation", "mix", "edit", "edits", "shorts",
		"mic'd up", "micd up", "trailer", "teaser", "reaction",
	}
	interviewTerms = []string{
		"interview", "media availability", "press conference", "availability", "scrum",
		"post-game", "post game", "pre-game", "pre game", "q&a", "qa",
	}
	officialChannelHints = []string{
		"nhl", "tsn", "sportsnet", "espn", "cbc", "rogers place", "oilers", "maple leafs",
		"penguins", "blackhawks", "canadiens", "rangers", "bruins", "lightning", "avalanche",
		"red wings", "kings", "ducks", "flames", "canucks", "jets", "wild", "predators",
		"capitals", "devils", "islanders", "sabres", "senators", "sharks", "stars",
	}
	genericPenaltyTerms = []string{
		"top prospects", "meeting", "panel", "roundtable", "mic'd up", "micd up",
		"postgame availability", "availability: ", "media availability: ",
	}
	draftIndicatorTerms = []string{"draft", "combine", "prospect"}
)

// RankOptions tunes [Rank].
type RankOptions struct {
	// Strict requires the player's full name in the video title; candidates
	// without it are dropped instead of penalized.
	Strict bool

	// DraftYear, when non-zero, drops candidates published after that year
	// and boosts the rest.
	DraftYear int

	// DraftCutoff, when non-zero, drops candidates published after the
	// instant and boosts the rest. [DraftCutoff] derives one from a draft
	// year and round.
	DraftCutoff time.Time
}

// Rank scores candidates for playerName and returns the survivors sorted
// best-first. It is a pure function: no candidate passed in is modified, and
// no network or clock is consulted.
//
// A candidate starts at score 1 and is adjusted by name presence, interview
// terms, official-channel hints, AI-generation penalties, non-interview
// penalties, and draft constraints. Candidates scoring below zero are
// discarded; ties sort by publication time, newest first.
func Rank(playerName string, candidates []types.VideoCandidate, opts RankOptions) []types.VideoCandidate {
	nameLower := strings.ToLower(playerName)
	parts := strings.Fields(nameLower)
	var first, last string
	if len(parts) > 0 {
		first, last = parts[0], parts[len(parts)-1]
	}

	ranked := make([]types.VideoCandidate, 0, len(candidates))
	for _, c := range candidates {
		score := 1

		titleLower := strings.ToLower(c.Title)
		channelLower := strings.ToLower(c.Channel)
		descLower := strings.ToLower(c.Description)

		fullNameInTitle := strings.Contains(titleLower, first) && strings.Contains(titleLower, last)
		fullNameAny := fullNameInTitle ||
			(strings.Contains(descLower, first) && strings.Contains(descLower, last))

		if opts.Strict && !fullNameInTitle {
			continue
		}
		if !fullNameAny {
			// Keep only when the channel itself names the player.
			if !strings.Contains(channelLower, first) && !strings.Contains(channelLower, last) {
				continue
			}
		}

		if !containsAny(titleLower, interviewTerms) && !containsAny(descLower, interviewTerms) {
			score -= 2
		}

		if strings.Contains(titleLower, nameLower) || strings.Contains(descLower, nameLower) {
			score += 2
		} else {
			score--
		}

		if containsAny(channelLower, officialChannelHints) {
			score += 2
		}

		if containsAny(titleLower, aiTerms) || containsAny(descLower, aiTerms) {
			score -= 4
		}

		if containsAny(titleLower, nonInterviewTerms) {
			score -= 2
		}

		if containsAny(titleLower, genericPenaltyTerms) {
			score--
		}

		// A title advertising an interview that never names the player is
		// someone else's interview.
		if strings.Contains(titleLower, "interview") && !fullNameInTitle {
			continue
		}

		if opts.DraftYear > 0 && !c.PublishedAt.IsZero() {
			if c.PublishedAt.Year() > opts.DraftYear {
				continue
			}
			score += 2
		}

		if !opts.DraftCutoff.IsZero() && !c.PublishedAt.IsZero() {
			if c.PublishedAt.After(opts.DraftCutoff) {
				continue
			}
			score += 2
		}

		if opts.DraftYear == 0 && opts.DraftCutoff.IsZero() && containsAny(titleLower, draftIndicatorTerms) {
			score++
		}

		c.Score = score
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].PublishedAt.After(ranked[j].PublishedAt)
	})

	kept := ranked[:0]
	for _, c := range ranked {
		if c.Score >= 0 {
			kept = append(kept, c)
		}
	}
	return kept
}

// DraftCutoff returns the publication cutoff for a player drafted in the
// given year and round: June 25 noon UTC of the draft year, shifted one hour
// per round past the first.
func DraftCutoff(year, round int) time.Time {
	if round < 1 {
		round = 1
	}
	return time.Date(year, time.June, 25, 12, 0, 0, 0, time.UTC).
		Add(time.Duration(round-1) * time.Hour)
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
