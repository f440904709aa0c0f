// Package labeled parses interview transcripts that carry inline
// "SPEAKER NAME:" labels, as published by professional transcription
// services. Speakers are explicit in this format, so no model-based
// attribution is involved: the parser cleans event boilerplate, walks the
// lines with a current-speaker state machine, and keeps the statements of
// the requested speaker while discarding interviewer questions.
package labeled

import (
	"strings"

	"github.com/seonjhang/gAIm-Systems/internal/question"
)

// SpeakerTurn is one emitted line of speech together with the speaker label
// it was attributed to.
type SpeakerTurn struct {
	// Speaker is the label as it appeared in the transcript, for example
	// "DARRYL SYDOR". Empty for standalone lines kept in all-speakers mode.
	Speaker string
	// Text is the cleaned statement line.
	Text string
}

// Cleanup thresholds. A "PREFIX:" line counts as an event header once the
// prefix repeats DefaultMetadataPrefixMin times; header lines are dropped
// when at most DefaultMetadataContentMax words follow the prefix; the
// all-uppercase title rule applies up to DefaultTitleWordsMax words.
const (
	DefaultMetadataPrefixMin  = 3
	DefaultMetadataContentMax = 5
	DefaultTitleWordsMax      = 5
)

// Config carries the tunables for a [Parser]. The zero value is usable:
// every field has a default.
type Config struct {
	// Detector decides which lines are interviewer questions. Nil uses a
	// detector with the default word tables.
	Detector *question.Detector

	// FooterCues are lowercase substrings that mark transcription-service
	// footer lines. Nil uses [DefaultFooterCues].
	FooterCues []string

	// ConnectiveWords keep a short all-uppercase line from being dropped
	// as a title. Nil uses [DefaultConnectiveWords].
	ConnectiveWords []string

	// MetadataPrefixMin is how many times a "PREFIX:" must repeat before
	// it is treated as an event header. Zero means 3.
	MetadataPrefixMin int

	// MetadataContentMax is the largest word count after a header prefix
	// that still drops the line. Zero means 5.
	MetadataContentMax int

	// TitleWordsMax is the largest word count for the all-uppercase title
	// rule. Zero means 5.
	TitleWordsMax int

	// NameSimilarity is the minimum Jaro-Winkler score at which two
	// speaker names are considered the same person. Zero means 0.93.
	NameSimilarity float64
}

// Parser extracts per-speaker statements from labeled transcript text. It is
// stateless across calls and safe for concurrent use.
type Parser struct {
	detector           *question.Detector
	footerCues         []string
	connectives        map[string]struct{}
	metadataPrefixMin  int
	metadataContentMax int
	titleWordsMax      int
	nameSimilarity     float64
}

// New builds a [Parser] from cfg, applying defaults for zero fields.
func New(cfg Config) *Parser {
	p := &Parser{
		detector:           cfg.Detector,
		footerCues:         cfg.FooterCues,
		metadataPrefixMin:  cfg.MetadataPrefixMin,
		metadataContentMax: cfg.MetadataContentMax,
		titleWordsMax:      cfg.TitleWordsMax,
		nameSimilarity:     cfg.NameSimilarity,
	}
	if p.detector == nil {
		p.detector = question.NewDetector(question.DefaultTables())
	}
	if p.footerCues == nil {
		p.footerCues = DefaultFooterCues()
	}
	connectives := cfg.ConnectiveWords
	if connectives == nil {
		connectives = DefaultConnectiveWords()
	}
	p.connectives = make(map[string]struct{}, len(connectives))
	for _, w := range connectives {
		p.connectives[strings.ToLower(w)] = struct{}{}
	}
	if p.metadataPrefixMin <= 0 {
		p.metadataPrefixMin = DefaultMetadataPrefixMin
	}
	if p.metadataContentMax <= 0 {
		p.metadataContentMax = DefaultMetadataContentMax
	}
	if p.titleWordsMax <= 0 {
		p.titleWordsMax = DefaultTitleWordsMax
	}
	if p.nameSimilarity <= 0 {
		p.nameSimilarity = DefaultNameSimilarity
	}
	return p
}

// Parse extracts statements from raw transcript text and returns them joined
// with newlines. With a target name only that speaker's lines are returned;
// with an empty target every speaker is kept and each labeled line is
// prefixed with its speaker. Input that is empty or all boilerplate yields
// the empty string.
func (p *Parser) Parse(raw, targetName string) string {
	turns := p.Turns(raw, targetName)
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		if targetName == "" && turn.Speaker != "" {
			lines = append(lines, turn.Speaker+": "+turn.Text)
			continue
		}
		lines = append(lines, turn.Text)
	}
	return strings.Join(lines, "\n")
}

// Turns extracts statements from raw transcript text as [SpeakerTurn]
// values, one per emitted line. Behavior matches [Parser.Parse].
func (p *Parser) Turns(raw, targetName string) []SpeakerTurn {
	lines := p.cleanMetadata(strings.Split(raw, "\n"))
	target := NormalizeName(targetName)

	var turns []SpeakerTurn
	speaker := ""
	for _, line := range lines {
		line = strings.TrimSpace(stripAsides(line))
		if questionMarkerPattern.MatchString(line) {
			// A question ends the current speaker's turn. Whatever
			// follows without a fresh label is the interviewer.
			speaker = ""
			continue
		}
		line = strings.TrimSpace(stripArtifacts(line))
		if line == "" || p.isFooter(line) {
			continue
		}

		if m := speakerLabelPattern.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			statement := strings.TrimSpace(m[2])
			if target != "" {
				if sameSpeaker(NormalizeName(name), target, p.nameSimilarity) {
					if statement != "" && !p.detector.IsCoreQuestion(statement) {
						turns = append(turns, SpeakerTurn{Speaker: name, Text: statement})
					}
					speaker = name
				} else {
					speaker = ""
				}
				continue
			}
			if statement != "" && !p.detector.IsCoreQuestion(statement) {
				turns = append(turns, SpeakerTurn{Speaker: name, Text: statement})
			}
			speaker = name
			continue
		}

		if speaker != "" {
			if !p.detector.IsCoreQuestion(line) {
				turns = append(turns, SpeakerTurn{Speaker: speaker, Text: line})
			}
			continue
		}
		if target == "" && !p.detector.IsCoreQuestion(line) {
			turns = append(turns, SpeakerTurn{Text: line})
		}
	}
	return turns
}
