// Package types defines the shared types used across all gAIm-Systems packages.
//
// These types form the lingua franca between transcript sources, the
// attribution engine, the archive, and the exporters. They are intentionally
// minimal: each package defines its own domain types, but cross-cutting data
// structures live here to avoid circular imports.
package types

import (
	"strings"
	"time"
)

// TranscriptSegment is a single timestamped unit of transcribed speech.
// Segments are immutable once produced by a transcript source.
type TranscriptSegment struct {
	// Text is the transcribed fragment.
	Text string

	// Start is the fragment's offset from the beginning of the recording,
	// in seconds.
	Start float64

	// Duration is the fragment length in seconds.
	Duration float64

	// GlobalIndex is the fragment's position in source order. It is assigned
	// exactly once by the source and never recomputed; all gap and offset
	// arithmetic downstream uses GlobalIndex, never slice position.
	GlobalIndex int
}

// AttributedSegment is a TranscriptSegment that the attribution engine has
// assigned to the target speaker.
type AttributedSegment struct {
	TranscriptSegment

	// Rescued is true when the segment was included by the consolidator's
	// rescue pass rather than by direct classification.
	Rescued bool
}

// TranscriptDocument is an ordered transcript plus the retrieval metadata a
// source reports alongside it.
type TranscriptDocument struct {
	// VideoID identifies the source recording (e.g. a YouTube video ID).
	VideoID string

	// Title is the recording title as reported by the source.
	Title string

	// URL is the canonical address of the recording.
	URL string

	// Language is the transcript's BCP-47 language code when known.
	Language string

	// Generated indicates machine-generated captions rather than a
	// human-authored track.
	Generated bool

	// Segments holds the transcript in source order. GlobalIndex values are
	// strictly increasing.
	Segments []TranscriptSegment

	// FullText is all segment text joined with single spaces.
	FullText string

	// WordCount is the whitespace-token count of FullText.
	WordCount int

	// RetrievedAt records when the transcript was fetched.
	RetrievedAt time.Time
}

// SpeechDocument is the attribution output for one interview: the target
// speaker's segments with the interviewer removed.
type SpeechDocument struct {
	// PlayerName is the target speaker the attribution ran for.
	PlayerName string

	// VideoID, VideoTitle and VideoURL carry over the source metadata.
	VideoID    string
	VideoTitle string
	VideoURL   string

	// Segments is the final consolidated attribution, sorted ascending by
	// GlobalIndex with no duplicates.
	Segments []AttributedSegment

	// Text is all attributed segment text joined with single spaces.
	Text string

	// WordCount is the whitespace-token count of Text.
	WordCount int

	// OriginalWordCount is the word count of the unfiltered transcript,
	// kept so reduction can be reported.
	OriginalWordCount int

	// Model names the classification model used, empty when the run was
	// heuristic-only.
	Model string

	// ExtractedAt records when the attribution ran.
	ExtractedAt time.Time
}

// VideoCandidate is one discovery result: a video that may be an interview
// with the target speaker.
type VideoCandidate struct {
	// VideoID is the platform video identifier.
	VideoID string

	// Title is the video title.
	Title string

	// Channel is the publishing channel's display name.
	Channel string

	// Description is the video description when fetched; may be empty.
	Description string

	// URL is the canonical watch address.
	URL string

	// PublishedAt is the upload time when the platform reports one.
	PublishedAt time.Time

	// Score is the ranking score assigned by discovery; higher is better.
	Score int
}

// Message represents a single message in an LLM conversation history.
type Message struct {
	// Role is one of "system", "user" or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// ModelCapabilities describes what a classification model supports.
type ModelCapabilities struct {
	// ContextWindow is the maximum token count for input + output.
	ContextWindow int

	// MaxOutputTokens is the maximum tokens the model can generate in one
	// completion.
	MaxOutputTokens int

	// SupportsJSONResponse indicates the model honours a JSON-object
	// response-format constraint.
	SupportsJSONResponse bool
}

// WordCount returns the number of whitespace-separated tokens in s.
// It is the single word-counting rule used everywhere word counts are
// reported, so counts stay comparable across packages.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// JoinSegments concatenates segment text with single spaces, skipping
// fragments that are empty after trimming.
func JoinSegments(segments []AttributedSegment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
