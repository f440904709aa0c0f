// Package jsonfile implements a transcript [source.Source] over saved JSON
// artifacts.
//
// Artifacts follow the collection pipeline's on-disk schema: one
// "<slug>_<videoID>_transcript.json" file per video holding the segment list
// plus retrieval metadata. The same schema is written by [Source.Save], so a
// directory of collected transcripts can be re-read for later attribution
// runs without touching the network. [SpeechStore] handles the sibling
// attributed-speech artifacts the pipeline writes after attribution.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seonjhang/gAIm-Systems/pkg/source"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// artifact mirrors the on-disk transcript JSON schema.
type artifact struct {
	VideoID     string            `json:"video_id"`
	VideoTitle  string            `json:"video_title"`
	VideoURL    string            `json:"video_url"`
	Transcript  []artifactSegment `json:"transcript"`
	FullText    string            `json:"full_text"`
	WordCount   int               `json:"word_count"`
	Language    string            `json:"language"`
	IsGenerated bool              `json:"is_generated"`
	ItemCount   int               `json:"item_count"`
	ExtractedAt string            `json:"extracted_at"`
}

type artifactSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Source reads and writes transcript artifacts in a single directory.
type Source struct {
	dir string
}

// New returns a Source over the given artifact directory. The directory is
// created lazily on the first [Source.Save].
func New(dir string) *Source {
	return &Source{dir: dir}
}

// Transcript loads the artifact for videoID. When several artifacts carry the
// same video ID the lexically first filename wins.
func (s *Source) Transcript(ctx context.Context, videoID string) (*types.TranscriptDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read dir %q: %w", s.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !matchesVideo(entry.Name(), videoID) {
			continue
		}
		return Load(filepath.Join(s.dir, entry.Name()))
	}
	return nil, fmt.Errorf("jsonfile: video %q: %w", videoID, source.ErrNotFound)
}

// List returns the video IDs of every readable artifact in the directory,
// in filename order.
func (s *Source) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read dir %q: %w", s.dir, err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "_transcript.json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("jsonfile: read %q: %w", entry.Name(), err)
		}
		var a struct {
			VideoID string `json:"video_id"`
		}
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("jsonfile: decode %q: %w", entry.Name(), err)
		}
		if a.VideoID != "" {
			ids = append(ids, a.VideoID)
		}
	}
	return ids, nil
}

// Documents loads every transcript artifact in the directory, in filename
// order.
func (s *Source) Documents(ctx context.Context) ([]*types.TranscriptDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read dir %q: %w", s.dir, err)
	}
	docs := make([]*types.TranscriptDocument, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "_transcript.json") {
			continue
		}
		doc, err := Load(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Save writes doc as a transcript artifact into the source directory and
// returns the path written. The filename is derived from the video title
// (spaces to underscores, capped at 50 runes) and the video ID.
func (s *Source) Save(doc *types.TranscriptDocument) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("jsonfile: create dir %q: %w", s.dir, err)
	}

	a := artifact{
		VideoID:     doc.VideoID,
		VideoTitle:  doc.Title,
		VideoURL:    doc.URL,
		Transcript:  make([]artifactSegment, 0, len(doc.Segments)),
		FullText:    doc.FullText,
		WordCount:   doc.WordCount,
		Language:    doc.Language,
		IsGenerated: doc.Generated,
		ItemCount:   len(doc.Segments),
		ExtractedAt: doc.RetrievedAt.Format(time.RFC3339),
	}
	for _, seg := range doc.Segments {
		a.Transcript = append(a.Transcript, artifactSegment{
			Text:     seg.Text,
			Start:    seg.Start,
			Duration: seg.Duration,
		})
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("jsonfile: encode %q: %w", doc.VideoID, err)
	}

	path := filepath.Join(s.dir, fileName(doc.Title, doc.VideoID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("jsonfile: write %q: %w", path, err)
	}
	return path, nil
}

// Load reads and converts one artifact file by path, without going through
// a [Source] directory lookup. Useful when the caller already has the file,
// e.g. attributing a single saved transcript.
func Load(path string) (*types.TranscriptDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read %q: %w", path, err)
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("jsonfile: decode %q: %w", path, err)
	}

	doc := &types.TranscriptDocument{
		VideoID:     a.VideoID,
		Title:       a.VideoTitle,
		URL:         a.VideoURL,
		Language:    a.Language,
		Generated:   a.IsGenerated,
		FullText:    a.FullText,
		WordCount:   a.WordCount,
		RetrievedAt: parseTime(a.ExtractedAt),
		Segments:    make([]types.TranscriptSegment, 0, len(a.Transcript)),
	}
	for i, seg := range a.Transcript {
		doc.Segments = append(doc.Segments, types.TranscriptSegment{
			Text:        seg.Text,
			Start:       seg.Start,
			Duration:    seg.Duration,
			GlobalIndex: i,
		})
	}
	if doc.FullText == "" && len(doc.Segments) > 0 {
		parts := make([]string, 0, len(doc.Segments))
		for _, seg := range doc.Segments {
			parts = append(parts, seg.Text)
		}
		doc.FullText = strings.Join(parts, " ")
	}
	if doc.WordCount == 0 {
		doc.WordCount = types.WordCount(doc.FullText)
	}
	return doc, nil
}

// matchesVideo reports whether name is a transcript artifact for videoID.
// The slug prefix is optional.
func matchesVideo(name, videoID string) bool {
	return strings.HasSuffix(name, "_"+videoID+"_transcript.json") ||
		name == videoID+"_transcript.json"
}

// fileName builds "<slug>_<videoID>_transcript.json". Characters outside
// letters, digits, underscore and hyphen are replaced so a title can never
// escape the artifact directory.
func fileName(title, videoID string) string {
	prefix := videoID
	if title != "" {
		prefix = slug(title)
	}
	return prefix + "_" + videoID + "_transcript.json"
}

// slug maps a free-form name onto filesystem-safe characters, capped at
// 50 runes.
func slug(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if runes := []rune(s); len(runes) > 50 {
		s = string(runes[:50])
	}
	return s
}

// parseTime accepts both RFC 3339 stamps and zone-less ISO stamps as written
// by earlier collectors. Unparseable values yield a zero time.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
