// Package collect orchestrates the per-player interview pipeline: discover
// ranked interviews, load each video's transcript, extract the player's
// speech, and persist the artifacts.
//
// One [Collector.CollectPlayer] run fans out over the top-ranked candidates
// with a bounded worker group. A candidate that fails along the way (no
// transcript on disk, extraction error, archive trouble) degrades to an
// error note on its [InterviewResult] instead of aborting the run; only
// discovery failure and context cancellation end a run early.
package collect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/seonjhang/gAIm-Systems/internal/archive"
	"github.com/seonjhang/gAIm-Systems/internal/attribute"
	"github.com/seonjhang/gAIm-Systems/internal/discovery"
	"github.com/seonjhang/gAIm-Systems/internal/observe"
	"github.com/seonjhang/gAIm-Systems/pkg/provider/embeddings"
	"github.com/seonjhang/gAIm-Systems/pkg/source"
	"github.com/seonjhang/gAIm-Systems/pkg/source/jsonfile"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// Defaults applied by [New] for zero Config fields.
const (
	DefaultDataDir       = "data"
	DefaultTopInterviews = 5
	DefaultWorkerLimit   = 3
)

// Finder discovers ranked interview candidates for a player.
// [discovery.Client] is the production implementation.
type Finder interface {
	TopInterviews(ctx context.Context, playerName string, topN int, opts discovery.RankOptions) ([]types.VideoCandidate, error)
}

// Recorder persists collection output to durable storage.
// [archive.Store] is the production implementation.
type Recorder interface {
	UpsertPlayer(ctx context.Context, name string) error
	RecordInterview(ctx context.Context, iv archive.Interview) (uuid.UUID, error)
	RecordSpeech(ctx context.Context, rec archive.SpeechRecord, embedding []float32) (uuid.UUID, error)
}

var (
	_ Finder   = (*discovery.Client)(nil)
	_ Recorder = (*archive.Store)(nil)
)

// Result is one collection run's summary, saved as the raw collection
// artifact.
type Result struct {
	RunID       uuid.UUID         `json:"run_id"`
	PlayerName  string            `json:"player_name"`
	CollectedAt time.Time         `json:"collected_at"`
	Interviews  []InterviewResult `json:"interviews"`
}

// InterviewResult summarizes one interview's trip through the pipeline.
// A non-empty Error means the interview was discovered but not fully
// collected.
type InterviewResult struct {
	VideoID         string `json:"video_id"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	Channel         string `json:"channel,omitempty"`
	Score           int    `json:"score"`
	WordCount       int    `json:"word_count,omitempty"`
	SpeechWordCount int    `json:"speech_word_count,omitempty"`
	SegmentCount    int    `json:"segment_count,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Config assembles a [Collector]'s collaborators and limits.
type Config struct {
	// Finder discovers ranked interview candidates. Required.
	Finder Finder

	// Source supplies transcripts by video ID. Required.
	Source source.Source

	// Extractor attributes transcript segments to the player. Required.
	Extractor *attribute.Extractor

	// DataDir receives collection artifacts. Zero means [DefaultDataDir].
	DataDir string

	// TopInterviews is how many ranked candidates are collected per player.
	// Zero means [DefaultTopInterviews].
	TopInterviews int

	// WorkerLimit bounds concurrent per-interview workers. Zero means
	// [DefaultWorkerLimit].
	WorkerLimit int

	// Ranking tunes candidate scoring (strictness, draft-year constraints).
	Ranking discovery.RankOptions

	// Recorder optionally persists interviews and speech to the archive.
	// Nil disables recording.
	Recorder Recorder

	// Embedder optionally embeds speech text before recording, enabling
	// similarity search over the archive. Nil records rows without
	// embeddings.
	Embedder embeddings.Provider
}

// Collector runs the collection pipeline for one player at a time. It is
// safe for concurrent use.
type Collector struct {
	finder    Finder
	src       source.Source
	extractor *attribute.Extractor
	speech    *jsonfile.SpeechStore
	dataDir   string
	top       int
	limit     int
	ranking   discovery.RankOptions
	recorder  Recorder
	embedder  embeddings.Provider
}

// New builds a [Collector] from cfg, applying defaults for zero fields.
func New(cfg Config) (*Collector, error) {
	if cfg.Finder == nil {
		return nil, errors.New("collect: Finder is required")
	}
	if cfg.Source == nil {
		return nil, errors.New("collect: Source is required")
	}
	if cfg.Extractor == nil {
		return nil, errors.New("collect: Extractor is required")
	}

	c := &Collector{
		finder:    cfg.Finder,
		src:       cfg.Source,
		extractor: cfg.Extractor,
		dataDir:   cfg.DataDir,
		top:       cfg.TopInterviews,
		limit:     cfg.WorkerLimit,
		ranking:   cfg.Ranking,
		recorder:  cfg.Recorder,
		embedder:  cfg.Embedder,
	}
	if c.dataDir == "" {
		c.dataDir = DefaultDataDir
	}
	if c.top < 1 {
		c.top = DefaultTopInterviews
	}
	if c.limit < 1 {
		c.limit = DefaultWorkerLimit
	}
	c.speech = jsonfile.NewSpeechStore(filepath.Join(c.dataDir, "raw", "player_speech"))
	return c, nil
}

// CollectPlayer discovers and collects interviews for one player, saving a
// speech artifact per successfully attributed transcript. The returned
// Result lists every discovered candidate in rank order, failed ones with
// their error note.
func (c *Collector) CollectPlayer(ctx context.Context, playerName string) (*Result, error) {
	ctx, span := observe.StartSpan(ctx, "collect.player")
	defer span.End()
	log := observe.Logger(ctx)

	res := &Result{
		RunID:       uuid.New(),
		PlayerName:  playerName,
		CollectedAt: time.Now().UTC(),
	}

	candidates, err := c.finder.TopInterviews(ctx, playerName, c.top, c.ranking)
	if err != nil {
		return nil, fmt.Errorf("collect: discover %q: %w", playerName, err)
	}
	log.Info("interviews discovered",
		"player", playerName,
		"run_id", res.RunID,
		"candidates", len(candidates))

	if c.recorder != nil {
		if err := c.recorder.UpsertPlayer(ctx, playerName); err != nil {
			return nil, fmt.Errorf("collect: %w", err)
		}
	}

	res.Interviews = make([]InterviewResult, len(candidates))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.limit)
	for i, cand := range candidates {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			iv, err := c.collectOne(egCtx, playerName, res.RunID, res.CollectedAt, cand)
			if err != nil {
				return err
			}
			res.Interviews[i] = iv
			return nil
		})
	}
	// Per-interview failures are recorded on their InterviewResult; only
	// context cancellation propagates here.
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	return res, nil
}

// collectOne runs the transcript, attribution, artifact and archive steps
// for a single candidate. The returned error is non-nil only when ctx is
// done; every other failure degrades to the InterviewResult's error note.
func (c *Collector) collectOne(ctx context.Context, playerName string, runID uuid.UUID, collectedAt time.Time, cand types.VideoCandidate) (InterviewResult, error) {
	ctx, span := observe.StartSpan(ctx, "collect.interview")
	defer span.End()
	log := observe.Logger(ctx)
	metrics := observe.DefaultMetrics()

	iv := InterviewResult{
		VideoID: cand.VideoID,
		Title:   cand.Title,
		URL:     cand.URL,
		Channel: cand.Channel,
		Score:   cand.Score,
	}

	doc, err := c.src.Transcript(ctx, cand.VideoID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return iv, ctxErr
		}
		iv.Error = err.Error()
		status := "failed"
		if errors.Is(err, source.ErrNotFound) {
			status = "no_transcript"
		}
		metrics.RecordInterview(ctx, status)
		log.Warn("transcript unavailable", "video_id", cand.VideoID, "error", err)
		return iv, nil
	}
	iv.WordCount = doc.WordCount

	speech, err := c.extractor.Extract(ctx, *doc, playerName)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return iv, ctxErr
		}
		iv.Error = err.Error()
		metrics.RecordInterview(ctx, "failed")
		log.Warn("speech extraction failed", "video_id", cand.VideoID, "error", err)
		return iv, nil
	}
	iv.SpeechWordCount = speech.WordCount
	iv.SegmentCount = len(speech.Segments)

	if _, err := c.speech.Save(speech); err != nil {
		iv.Error = err.Error()
		metrics.RecordInterview(ctx, "failed")
		log.Warn("speech artifact save failed", "video_id", cand.VideoID, "error", err)
		return iv, nil
	}

	if c.recorder != nil {
		if err := c.record(ctx, playerName, runID, collectedAt, cand, speech); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return iv, ctxErr
			}
			iv.Error = err.Error()
			metrics.RecordInterview(ctx, "failed")
			log.Warn("archive record failed", "video_id", cand.VideoID, "error", err)
			return iv, nil
		}
	}

	metrics.RecordInterview(ctx, "ok")
	log.Info("interview collected",
		"video_id", cand.VideoID,
		"transcript_words", iv.WordCount,
		"speech_words", iv.SpeechWordCount,
		"segments", iv.SegmentCount)
	return iv, nil
}

// record writes one collected interview and its speech to the archive.
// An embedding failure degrades to an un-embedded row; the speech row is
// written either way.
func (c *Collector) record(ctx context.Context, playerName string, runID uuid.UUID, collectedAt time.Time, cand types.VideoCandidate, speech *types.SpeechDocument) error {
	var embedding []float32
	if c.embedder != nil && speech.Text != "" {
		vec, err := c.embedder.Embed(ctx, speech.Text)
		if err != nil {
			observe.Logger(ctx).Warn("speech embedding failed", "video_id", cand.VideoID, "error", err)
		} else {
			embedding = vec
		}
	}

	interviewID, err := c.recorder.RecordInterview(ctx, archive.Interview{
		PlayerName:  playerName,
		VideoID:     cand.VideoID,
		Title:       cand.Title,
		URL:         cand.URL,
		Channel:     cand.Channel,
		PublishedAt: cand.PublishedAt,
		Score:       cand.Score,
		RunID:       runID,
		CollectedAt: collectedAt,
	})
	if err != nil {
		return err
	}

	_, err = c.recorder.RecordSpeech(ctx, archive.SpeechRecord{
		InterviewID:       interviewID,
		Text:              speech.Text,
		WordCount:         speech.WordCount,
		OriginalWordCount: speech.OriginalWordCount,
		SegmentCount:      len(speech.Segments),
		Model:             speech.Model,
		ExtractedAt:       speech.ExtractedAt,
	}, embedding)
	return err
}

// SaveResult writes the raw collection summary under "<DataDir>/raw" and
// returns the path written. The filename carries the player name and the
// run's collection timestamp.
func (c *Collector) SaveResult(res *Result) (string, error) {
	dir := filepath.Join(c.dataDir, "raw")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("collect: create dir %q: %w", dir, err)
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("collect: encode result: %w", err)
	}

	name := playerSlug(res.PlayerName) + "_" + res.CollectedAt.Format("20060102_150405") + ".json"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("collect: write %q: %w", path, err)
	}
	return path, nil
}

// playerSlug maps a player name onto filesystem-safe characters.
func playerSlug(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if s == "" {
		return "player"
	}
	return s
}
