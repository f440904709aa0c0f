package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// speechArtifact mirrors the on-disk attributed-speech JSON schema.
type speechArtifact struct {
	PlayerName        string          `json:"player_name"`
	VideoID           string          `json:"video_id"`
	VideoTitle        string          `json:"video_title"`
	VideoURL          string          `json:"video_url"`
	Segments          []speechSegment `json:"player_speech"`
	Text              string          `json:"player_speech_text"`
	WordCount         int             `json:"word_count"`
	OriginalWordCount int             `json:"original_word_count"`
	SegmentCount      int             `json:"segment_count"`
	Model             string          `json:"model"`
	ExtractedAt       string          `json:"extracted_at"`
}

type speechSegment struct {
	Text          string  `json:"text"`
	Start         float64 `json:"start"`
	Duration      float64 `json:"duration"`
	OriginalIndex int     `json:"original_index"`
	Rescued       bool    `json:"rescued,omitempty"`
}

// SpeechStore reads and writes attributed-speech artifacts in a single
// directory, one "<player>_<videoID>_player_speech.json" file per
// extraction.
type SpeechStore struct {
	dir string
}

// NewSpeechStore returns a SpeechStore over dir. The directory is created
// lazily on the first [SpeechStore.Save].
func NewSpeechStore(dir string) *SpeechStore {
	return &SpeechStore{dir: dir}
}

// Save writes doc as a speech artifact into the store directory and returns
// the path written. Saving the same player and video again overwrites the
// previous artifact.
func (s *SpeechStore) Save(doc *types.SpeechDocument) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("jsonfile: create dir %q: %w", s.dir, err)
	}

	a := speechArtifact{
		PlayerName:        doc.PlayerName,
		VideoID:           doc.VideoID,
		VideoTitle:        doc.VideoTitle,
		VideoURL:          doc.VideoURL,
		Segments:          make([]speechSegment, 0, len(doc.Segments)),
		Text:              doc.Text,
		WordCount:         doc.WordCount,
		OriginalWordCount: doc.OriginalWordCount,
		SegmentCount:      len(doc.Segments),
		Model:             doc.Model,
		ExtractedAt:       doc.ExtractedAt.Format(time.RFC3339),
	}
	for _, seg := range doc.Segments {
		a.Segments = append(a.Segments, speechSegment{
			Text:          seg.Text,
			Start:         seg.Start,
			Duration:      seg.Duration,
			OriginalIndex: seg.GlobalIndex,
			Rescued:       seg.Rescued,
		})
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("jsonfile: encode speech %q: %w", doc.VideoID, err)
	}

	prefix := slug(doc.PlayerName)
	if prefix == "" {
		prefix = doc.VideoID
	}
	path := filepath.Join(s.dir, prefix+"_"+doc.VideoID+"_player_speech.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("jsonfile: write %q: %w", path, err)
	}
	return path, nil
}

// Documents loads every speech artifact in the store directory, in filename
// order. A directory that does not exist yet yields an error; an existing
// directory holding no artifacts yields an empty slice.
func (s *SpeechStore) Documents(ctx context.Context) ([]*types.SpeechDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read dir %q: %w", s.dir, err)
	}
	docs := make([]*types.SpeechDocument, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "_player_speech.json") {
			continue
		}
		doc, err := s.loadSpeech(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// loadSpeech reads and converts one speech artifact file. Like transcript
// loading, missing joined text and word counts are recomputed from the
// segments.
func (s *SpeechStore) loadSpeech(path string) (*types.SpeechDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read %q: %w", path, err)
	}
	var a speechArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("jsonfile: decode %q: %w", path, err)
	}

	doc := &types.SpeechDocument{
		PlayerName:        a.PlayerName,
		VideoID:           a.VideoID,
		VideoTitle:        a.VideoTitle,
		VideoURL:          a.VideoURL,
		Segments:          make([]types.AttributedSegment, 0, len(a.Segments)),
		Text:              a.Text,
		WordCount:         a.WordCount,
		OriginalWordCount: a.OriginalWordCount,
		Model:             a.Model,
		ExtractedAt:       parseTime(a.ExtractedAt),
	}
	for _, seg := range a.Segments {
		doc.Segments = append(doc.Segments, types.AttributedSegment{
			TranscriptSegment: types.TranscriptSegment{
				Text:        seg.Text,
				Start:       seg.Start,
				Duration:    seg.Duration,
				GlobalIndex: seg.OriginalIndex,
			},
			Rescued: seg.Rescued,
		})
	}
	if doc.Text == "" && len(doc.Segments) > 0 {
		doc.Text = types.JoinSegments(doc.Segments)
	}
	if doc.WordCount == 0 && doc.Text != "" {
		doc.WordCount = types.WordCount(doc.Text)
	}
	return doc, nil
}
