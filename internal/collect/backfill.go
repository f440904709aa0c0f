package collect

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/seonjhang/gAIm-Systems/internal/archive"
	"github.com/seonjhang/gAIm-Systems/internal/observe"
	"github.com/seonjhang/gAIm-Systems/pkg/provider/embeddings"
	"github.com/seonjhang/gAIm-Systems/pkg/source/jsonfile"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// DefaultEmbedBatch bounds how many texts go into one embedding call during
// a backfill.
const DefaultEmbedBatch = 16

// BackfillRecorder is the archive surface a backfill writes through.
// [archive.Store] is the production implementation.
type BackfillRecorder interface {
	UpsertPlayer(ctx context.Context, name string) error
	EnsureInterview(ctx context.Context, iv archive.Interview) (uuid.UUID, error)
	RecordSpeech(ctx context.Context, rec archive.SpeechRecord, embedding []float32) (uuid.UUID, error)
}

var _ BackfillRecorder = (*archive.Store)(nil)

// BackfillConfig assembles a [Backfiller].
type BackfillConfig struct {
	// DataDir is the artifact directory collection runs wrote to. Zero means
	// [DefaultDataDir].
	DataDir string

	// Recorder receives the archive rows. Required.
	Recorder BackfillRecorder

	// Embedder optionally embeds speech text in batches. Nil records rows
	// without embeddings.
	Embedder embeddings.Provider

	// EmbedBatch bounds how many texts one provider call embeds. Zero means
	// [DefaultEmbedBatch].
	EmbedBatch int
}

// Backfiller replays on-disk speech artifacts into the archive. It serves
// deployments that enable the archive, or switch embedding models, after
// collection runs have already written their artifacts.
type Backfiller struct {
	speech   *jsonfile.SpeechStore
	recorder BackfillRecorder
	embedder embeddings.Provider
	batch    int
}

// NewBackfiller builds a [Backfiller] from cfg, applying defaults for zero
// fields.
func NewBackfiller(cfg BackfillConfig) (*Backfiller, error) {
	if cfg.Recorder == nil {
		return nil, errors.New("collect: Recorder is required")
	}
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	batch := cfg.EmbedBatch
	if batch < 1 {
		batch = DefaultEmbedBatch
	}
	return &Backfiller{
		speech:   jsonfile.NewSpeechStore(filepath.Join(dataDir, "raw", "player_speech")),
		recorder: cfg.Recorder,
		embedder: cfg.Embedder,
		batch:    batch,
	}, nil
}

// BackfillResult summarizes one backfill run.
type BackfillResult struct {
	// Players is how many distinct players were upserted.
	Players int

	// Indexed is how many speech artifacts were recorded.
	Indexed int

	// Embedded is how many of the recorded rows carry an embedding.
	Embedded int
}

// Backfill loads every stored speech artifact, optionally restricted to one
// player (matched case-insensitively), and records an interview and a speech
// row for each. Interview rows the archive already holds keep their collected
// metadata; speech rows are appended as fresh extractions.
//
// Embedding failures degrade the affected batch to un-embedded rows. Archive
// errors abort the run: a backfill is a replay, so re-running it after the
// database recovers is cheap.
func (b *Backfiller) Backfill(ctx context.Context, playerName string) (*BackfillResult, error) {
	ctx, span := observe.StartSpan(ctx, "collect.backfill")
	defer span.End()

	docs, err := b.speech.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect: load speech artifacts: %w", err)
	}
	if playerName != "" {
		kept := docs[:0]
		for _, doc := range docs {
			if strings.EqualFold(doc.PlayerName, playerName) {
				kept = append(kept, doc)
			}
		}
		docs = kept
	}

	res := &BackfillResult{}
	if len(docs) == 0 {
		return res, nil
	}

	vectors := b.embedAll(ctx, docs)

	seen := make(map[string]struct{})
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("collect: backfill: %w", err)
		}
		if _, ok := seen[doc.PlayerName]; !ok {
			if err := b.recorder.UpsertPlayer(ctx, doc.PlayerName); err != nil {
				return nil, fmt.Errorf("collect: %w", err)
			}
			seen[doc.PlayerName] = struct{}{}
			res.Players++
		}

		interviewID, err := b.recorder.EnsureInterview(ctx, archive.Interview{
			PlayerName: doc.PlayerName,
			VideoID:    doc.VideoID,
			Title:      doc.VideoTitle,
			URL:        doc.VideoURL,
		})
		if err != nil {
			return nil, fmt.Errorf("collect: %w", err)
		}

		if _, err := b.recorder.RecordSpeech(ctx, archive.SpeechRecord{
			InterviewID:       interviewID,
			Text:              doc.Text,
			WordCount:         doc.WordCount,
			OriginalWordCount: doc.OriginalWordCount,
			SegmentCount:      len(doc.Segments),
			Model:             doc.Model,
			ExtractedAt:       doc.ExtractedAt,
		}, vectors[i]); err != nil {
			return nil, fmt.Errorf("collect: %w", err)
		}
		res.Indexed++
		if vectors[i] != nil {
			res.Embedded++
		}
	}

	observe.Logger(ctx).Info("backfill complete",
		"players", res.Players,
		"indexed", res.Indexed,
		"embedded", res.Embedded)
	return res, nil
}

// embedAll batch-embeds every document's text. The returned slice aligns
// with docs; entries stay nil for empty texts and failed batches.
func (b *Backfiller) embedAll(ctx context.Context, docs []*types.SpeechDocument) [][]float32 {
	vectors := make([][]float32, len(docs))
	if b.embedder == nil {
		return vectors
	}
	log := observe.Logger(ctx)
	log.Info("embedding speech artifacts",
		"model", b.embedder.ModelID(),
		"dimensions", b.embedder.Dimensions(),
		"documents", len(docs))

	for start := 0; start < len(docs); start += b.batch {
		end := start + b.batch
		if end > len(docs) {
			end = len(docs)
		}

		texts := make([]string, 0, end-start)
		positions := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			if docs[i].Text == "" {
				continue
			}
			texts = append(texts, docs[i].Text)
			positions = append(positions, i)
		}
		if len(texts) == 0 {
			continue
		}

		vecs, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			log.Warn("batch embedding failed, rows will be recorded without embeddings",
				"batch_start", start, "texts", len(texts), "error", err)
			continue
		}
		for j, pos := range positions {
			if j >= len(vecs) {
				break
			}
			vectors[pos] = vecs[j]
		}
	}
	return vectors
}
