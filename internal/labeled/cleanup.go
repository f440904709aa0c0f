package labeled

import (
	"regexp"
	"strings"
)

// Transcript pages wrap interview text in event boilerplate: a repeated
// "EVENT NAME:" header on every metadata line, all-uppercase titles, date
// and venue lines, and the score of the game. The pre-pass below drops
// those before any speaker parsing happens.

var (
	dateLinePattern = regexp.MustCompile(`^(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}`)

	// "St. Paul, Minnesota" or "Tampa, Florida" style venue lines.
	venueLinePattern = regexp.MustCompile(`^[A-Z][a-z]+,\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?$`)

	// "Boston College - 4" / "2-1" style score lines.
	scoreLinePattern = regexp.MustCompile(`^(?:[A-Z][a-z\s]+-)?\d+-?(?:[A-Z][a-z\s]+)?$`)

	moderatorPattern = regexp.MustCompile(`^[A-Z\s]+:\s*(?:THE MODERATOR|Q\.|QUESTION)`)

	// "(Inaudible.)", "(Question off microphone)" and similar transcriber
	// asides embedded in speech.
	asidePattern = regexp.MustCompile(`(?i)\((?:Inaudible|Question|Off\s*mic(?:rophone)?)[^)]*\)\.?`)

	// Interviewer questions open with a bare Q marker: "Q.", "Q:", "Q ".
	// The word boundary keeps words that merely start with Q from matching.
	questionMarkerPattern = regexp.MustCompile(`(?i)^q\b`)

	// "DARRYL SYDOR:" style labels, optionally with a stray leading colon
	// left behind by markup stripping.
	speakerLabelPattern = regexp.MustCompile(`^:?([A-Z][A-Z\s.\-']{2,}):\s*(.*)$`)
)

// artifactReplacer removes mojibake left over from badly decoded pages and
// flattens non-breaking spaces.
var artifactReplacer = strings.NewReplacer("Â", "", "â", "", " ", " ")

// DefaultFooterCues returns the lowercase substrings that mark
// transcription-service footer lines.
func DefaultFooterCues() []string {
	return []string{
		"fastscripts",
		"asap sports",
		"end of fastscripts",
	}
}

// DefaultConnectiveWords returns the words whose presence keeps a short
// all-uppercase line from being dropped as a title: they suggest the line
// is shouted speech rather than a heading.
func DefaultConnectiveWords() []string {
	return []string{"the", "and", "or", "but", "for"}
}

func stripArtifacts(s string) string { return artifactReplacer.Replace(s) }

func stripAsides(s string) string { return asidePattern.ReplaceAllString(s, "") }

// cleanMetadata drops event boilerplate from raw transcript lines. A prefix
// before a colon that repeats at least metadataPrefixMin times marks header
// lines, which are dropped when their trailing content is short. Short
// all-uppercase titles, date lines, venue lines, score lines and moderator
// introductions go as well.
func (p *Parser) cleanMetadata(lines []string) []string {
	prefixCounts := make(map[string]int)
	for _, line := range lines {
		before, _, found := strings.Cut(strings.TrimSpace(line), ":")
		if !found {
			continue
		}
		if prefix := strings.TrimSpace(before); len(prefix) > 5 {
			prefixCounts[prefix]++
		}
	}
	dominant, best := "", 0
	for prefix, n := range prefixCounts {
		if n > best || (n == best && prefix < dominant) {
			dominant, best = prefix, n
		}
	}
	if best < p.metadataPrefixMin {
		dominant = ""
	}

	cleaned := make([]string, 0, len(lines))
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if dominant != "" && strings.HasPrefix(line, dominant+":") {
			content := strings.TrimSpace(line[len(dominant)+1:])
			if len(strings.Fields(content)) <= p.metadataContentMax {
				continue
			}
		}
		if p.isUpperTitle(line) {
			continue
		}
		if dateLinePattern.MatchString(line) ||
			venueLinePattern.MatchString(line) ||
			scoreLinePattern.MatchString(line) ||
			moderatorPattern.MatchString(line) {
			continue
		}
		cleaned = append(cleaned, line)
	}
	return cleaned
}

// isUpperTitle reports whether line is a short all-uppercase heading with no
// connective word suggesting sentence content.
func (p *Parser) isUpperTitle(line string) bool {
	if line != strings.ToUpper(line) || line == strings.ToLower(line) {
		return false
	}
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > p.titleWordsMax {
		return false
	}
	for _, w := range words {
		w = strings.Trim(strings.ToLower(w), ".,!;:'\"")
		if _, ok := p.connectives[w]; ok {
			return false
		}
	}
	return true
}

// isFooter reports whether line belongs to the transcription-service footer.
func (p *Parser) isFooter(line string) bool {
	low := strings.ToLower(line)
	for _, cue := range p.footerCues {
		if strings.Contains(low, cue) {
			return true
		}
	}
	return false
}
