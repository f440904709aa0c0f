package jsonfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/seonjhang/gAIm-Systems/pkg/source/jsonfile"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

func TestSpeechStore_SaveAndDocuments(t *testing.T) {
	dir := t.TempDir()
	store := jsonfile.NewSpeechStore(dir)

	want := &types.SpeechDocument{
		PlayerName: "Connor McDavid",
		VideoID:    "abc123",
		VideoTitle: "Post-game availability",
		VideoURL:   "https://www.youtube.com/watch?v=abc123",
		Segments: []types.AttributedSegment{
			{TranscriptSegment: types.TranscriptSegment{Text: "I thought we played well", Start: 10, Duration: 2.1, GlobalIndex: 4}},
			{TranscriptSegment: types.TranscriptSegment{Text: "Yeah.", Start: 14, Duration: 0.6, GlobalIndex: 6}, Rescued: true},
		},
		Text:              "I thought we played well Yeah.",
		WordCount:         6,
		OriginalWordCount: 120,
		Model:             "gpt-4o-mini",
		ExtractedAt:       time.Date(2025, 5, 2, 9, 15, 0, 0, time.UTC),
	}

	path, err := store.Save(want)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if base := filepath.Base(path); base != "Connor_McDavid_abc123_player_speech.json" {
		t.Errorf("filename: got %q", base)
	}

	docs, err := store.Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("Documents: want 1 doc, got %d", len(docs))
	}

	got := docs[0]
	if got.PlayerName != want.PlayerName || got.VideoID != want.VideoID {
		t.Errorf("identity: got %s/%s", got.PlayerName, got.VideoID)
	}
	if got.Text != want.Text || got.WordCount != 6 || got.OriginalWordCount != 120 {
		t.Errorf("text roundtrip: got %q (%d/%d words)", got.Text, got.WordCount, got.OriginalWordCount)
	}
	if got.Model != "gpt-4o-mini" {
		t.Errorf("model: got %q", got.Model)
	}
	if !got.ExtractedAt.Equal(want.ExtractedAt) {
		t.Errorf("ExtractedAt: want %v, got %v", want.ExtractedAt, got.ExtractedAt)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("segments: want 2, got %d", len(got.Segments))
	}
	if got.Segments[0].GlobalIndex != 4 || got.Segments[1].GlobalIndex != 6 {
		t.Errorf("indices: got %d/%d", got.Segments[0].GlobalIndex, got.Segments[1].GlobalIndex)
	}
	if got.Segments[0].Rescued || !got.Segments[1].Rescued {
		t.Errorf("rescued flags: got %v/%v", got.Segments[0].Rescued, got.Segments[1].Rescued)
	}
}

func TestSpeechStore_SaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	store := jsonfile.NewSpeechStore(dir)

	doc := &types.SpeechDocument{
		PlayerName: "Leon Draisaitl",
		VideoID:    "xyz789",
		Segments: []types.AttributedSegment{
			{TranscriptSegment: types.TranscriptSegment{Text: "first pass"}},
		},
		Text:      "first pass",
		WordCount: 2,
	}
	if _, err := store.Save(doc); err != nil {
		t.Fatalf("Save first: %v", err)
	}

	doc.Text = "second pass with more words"
	doc.Segments[0].Text = "second pass with more words"
	doc.WordCount = 5
	if _, err := store.Save(doc); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	docs, err := store.Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("want 1 doc after overwrite, got %d", len(docs))
	}
	if docs[0].Text != "second pass with more words" {
		t.Errorf("text: got %q", docs[0].Text)
	}
}

func TestSpeechStore_RecomputesMissingText(t *testing.T) {
	dir := t.TempDir()
	raw := `{
  "player_name": "Connor McDavid",
  "video_id": "legacy1",
  "player_speech": [
    {"text": "we stuck to", "start": 0, "duration": 1, "original_index": 0},
    {"text": "the plan", "start": 1, "duration": 1, "original_index": 1}
  ]
}`
	path := filepath.Join(dir, "Connor_McDavid_legacy1_player_speech.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	docs, err := jsonfile.NewSpeechStore(dir).Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("want 1 doc, got %d", len(docs))
	}
	if docs[0].Text != "we stuck to the plan" {
		t.Errorf("recomputed text: got %q", docs[0].Text)
	}
	if docs[0].WordCount != 5 {
		t.Errorf("recomputed word count: got %d", docs[0].WordCount)
	}
}

func TestSpeechStore_IgnoresTranscriptArtifacts(t *testing.T) {
	dir := t.TempDir()
	store := jsonfile.NewSpeechStore(dir)

	if _, err := store.Save(&types.SpeechDocument{PlayerName: "A", VideoID: "v1", Text: "hi"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// A transcript artifact in the same directory is not a speech document.
	transcript := filepath.Join(dir, "Title_v2_transcript.json")
	if err := os.WriteFile(transcript, []byte(`{"video_id":"v2"}`), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}

	docs, err := store.Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("want 1 speech doc, got %d", len(docs))
	}
}
