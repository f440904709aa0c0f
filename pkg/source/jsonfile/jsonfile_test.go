package jsonfile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/seonjhang/gAIm-Systems/pkg/source"
	"github.com/seonjhang/gAIm-Systems/pkg/source/jsonfile"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

func TestSource_SaveAndTranscript(t *testing.T) {
	dir := t.TempDir()
	src := jsonfile.New(dir)

	want := &types.TranscriptDocument{
		VideoID:   "dQw4w9WgXcQ",
		Title:     "Post-game interview",
		URL:       "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Language:  "en",
		Generated: true,
		Segments: []types.TranscriptSegment{
			{Text: "it was a good game", Start: 0, Duration: 2.5},
			{Text: "we played hard", Start: 2.5, Duration: 1.8},
		},
		FullText:    "it was a good game we played hard",
		WordCount:   8,
		RetrievedAt: time.Date(2025, 4, 12, 20, 31, 44, 0, time.UTC),
	}

	path, err := src.Save(want)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if base := filepath.Base(path); base != "Post-game_interview_dQw4w9WgXcQ_transcript.json" {
		t.Errorf("artifact filename: got %q", base)
	}

	got, err := src.Transcript(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if got.Title != want.Title {
		t.Errorf("Title: got %q, want %q", got.Title, want.Title)
	}
	if got.URL != want.URL {
		t.Errorf("URL: got %q, want %q", got.URL, want.URL)
	}
	if got.Language != "en" || !got.Generated {
		t.Errorf("metadata: got language %q generated %v", got.Language, got.Generated)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("segments: got %d, want 2", len(got.Segments))
	}
	for i, seg := range got.Segments {
		if seg.GlobalIndex != i {
			t.Errorf("segment %d: GlobalIndex %d", i, seg.GlobalIndex)
		}
	}
	if got.Segments[1].Text != "we played hard" || got.Segments[1].Start != 2.5 {
		t.Errorf("segment 1: got %+v", got.Segments[1])
	}
	if got.WordCount != 8 {
		t.Errorf("WordCount: got %d, want 8", got.WordCount)
	}
	if !got.RetrievedAt.Equal(want.RetrievedAt) {
		t.Errorf("RetrievedAt: got %v, want %v", got.RetrievedAt, want.RetrievedAt)
	}
}

func TestSource_ReadsZonelessTimestamps(t *testing.T) {
	dir := t.TempDir()
	raw := `{
  "video_id": "abc123",
  "video_title": "Draft combine scrum",
  "video_url": "https://www.youtube.com/watch?v=abc123",
  "transcript": [
    {"text": "yeah it was exciting", "start": 1.0, "duration": 2.0}
  ],
  "full_text": "yeah it was exciting",
  "word_count": 4,
  "language": "en",
  "is_generated": false,
  "item_count": 1,
  "extracted_at": "2025-03-01T10:00:00.123456"
}`
	writeArtifact(t, dir, "Draft_combine_scrum_abc123_transcript.json", raw)

	got, err := jsonfile.New(dir).Transcript(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if got.RetrievedAt.IsZero() {
		t.Error("RetrievedAt: zone-less timestamp should parse")
	}
	if got.RetrievedAt.Year() != 2025 || got.RetrievedAt.Month() != 3 {
		t.Errorf("RetrievedAt: got %v", got.RetrievedAt)
	}
}

func TestSource_RecomputesMissingText(t *testing.T) {
	dir := t.TempDir()
	raw := `{
  "video_id": "abc123",
  "video_title": "Media availability",
  "transcript": [
    {"text": "we stuck", "start": 0, "duration": 1},
    {"text": "to the plan", "start": 1, "duration": 1}
  ]
}`
	writeArtifact(t, dir, "Media_availability_abc123_transcript.json", raw)

	got, err := jsonfile.New(dir).Transcript(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if got.FullText != "we stuck to the plan" {
		t.Errorf("FullText: got %q", got.FullText)
	}
	if got.WordCount != 5 {
		t.Errorf("WordCount: got %d, want 5", got.WordCount)
	}
}

func TestSource_NotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := jsonfile.New(dir).Transcript(context.Background(), "missing")
	if !errors.Is(err, source.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestSource_List(t *testing.T) {
	dir := t.TempDir()
	src := jsonfile.New(dir)

	for _, doc := range []*types.TranscriptDocument{
		{VideoID: "aaa111", Title: "First interview"},
		{VideoID: "bbb222", Title: "Second interview"},
	} {
		if _, err := src.Save(doc); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	// Unrelated files are ignored.
	writeArtifact(t, dir, "notes.txt", "not an artifact")

	ids, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("List: got %d ids, want 2: %v", len(ids), ids)
	}
	if ids[0] != "aaa111" || ids[1] != "bbb222" {
		t.Errorf("List: got %v", ids)
	}
}

func TestSource_Documents(t *testing.T) {
	dir := t.TempDir()
	src := jsonfile.New(dir)

	for _, doc := range []*types.TranscriptDocument{
		{VideoID: "aaa111", Title: "First interview", FullText: "one", WordCount: 1},
		{VideoID: "bbb222", Title: "Second interview", FullText: "two words", WordCount: 2},
	} {
		if _, err := src.Save(doc); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	docs, err := src.Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Documents: want 2, got %d", len(docs))
	}
	if docs[0].VideoID != "aaa111" || docs[1].VideoID != "bbb222" {
		t.Errorf("order: got %s, %s", docs[0].VideoID, docs[1].VideoID)
	}
	if docs[1].FullText != "two words" {
		t.Errorf("full text: got %q", docs[1].FullText)
	}
}

func TestSource_SanitizesTitleInFilename(t *testing.T) {
	dir := t.TempDir()
	src := jsonfile.New(dir)

	path, err := src.Save(&types.TranscriptDocument{
		VideoID: "xyz789",
		Title:   "Game 7: heroes/villains",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	base := filepath.Base(path)
	if strings.ContainsAny(base, "/:") {
		t.Errorf("filename not sanitized: %q", base)
	}
	if base != "Game_7__heroes_villains_xyz789_transcript.json" {
		t.Errorf("filename: got %q", base)
	}

	// The sanitized slug must not break lookup by video ID.
	if _, err := src.Transcript(context.Background(), "xyz789"); err != nil {
		t.Errorf("Transcript after sanitized save: %v", err)
	}
}

func writeArtifact(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
