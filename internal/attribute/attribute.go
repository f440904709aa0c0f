// Package attribute implements the speaker attribution engine: deciding
// which transcript segments were spoken by one target player, excluding
// interviewer questions, and merging the survivors into coherent runs.
//
// The pipeline has two stages. A [Classifier] splits long transcripts into
// overlapping windows and asks an [llm.Provider] which segments belong to
// the target speaker, degrading per window to lexical heuristics when the
// provider is absent or failing. A [Consolidator] then groups the
// attributed segments by index adjacency and rescues short reactive
// utterances ("Yeah.") near each group that per-segment classification
// misses. [Extractor] composes the two stages into document-level
// extraction.
//
// Everything here is deterministic apart from the provider call itself:
// window boundaries are a pure function of the segment count, and the
// question detector and inclusion rules are plain word-table lookups, so
// pipeline behavior is reproducible in tests with a mock provider.
package attribute

import (
	"context"
	"time"

	"github.com/seonjhang/gAIm-Systems/internal/observe"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// Extractor runs the full attribution pipeline over one transcript
// document: classification, consolidation, and assembly of the final
// [types.SpeechDocument].
type Extractor struct {
	classifier   *Classifier
	consolidator *Consolidator
	modelLabel   string
}

// ExtractorOption configures an [Extractor].
type ExtractorOption func(*Extractor)

// WithModelLabel sets the model name recorded on extracted documents.
// Leave it empty for heuristic-only runs.
func WithModelLabel(label string) ExtractorOption {
	return func(e *Extractor) { e.modelLabel = label }
}

// NewExtractor builds an Extractor from a classifier and a consolidator.
// Nil stages are replaced with defaults, which makes a provider-less,
// heuristic-only extractor a one-liner.
func NewExtractor(classifier *Classifier, consolidator *Consolidator, opts ...ExtractorOption) *Extractor {
	e := &Extractor{classifier: classifier, consolidator: consolidator}
	if e.classifier == nil {
		e.classifier = NewClassifier()
	}
	if e.consolidator == nil {
		e.consolidator = NewConsolidator()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract attributes doc's segments to targetName and returns the speech
// document with joined text and word counts. An empty transcript yields a
// document with zero counts and no error. Errors surface only for malformed
// input or caller cancellation; provider trouble degrades inside the
// classifier instead.
func (e *Extractor) Extract(ctx context.Context, doc types.TranscriptDocument, targetName string) (*types.SpeechDocument, error) {
	ctx, span := observe.StartSpan(ctx, "attribute.extract")
	defer span.End()

	out := &types.SpeechDocument{
		PlayerName:        targetName,
		VideoID:           doc.VideoID,
		VideoTitle:        doc.Title,
		VideoURL:          doc.URL,
		OriginalWordCount: doc.WordCount,
		Model:             e.modelLabel,
		ExtractedAt:       time.Now().UTC(),
	}
	if len(doc.Segments) == 0 {
		return out, nil
	}

	res, err := e.classifier.Classify(ctx, doc.Segments, targetName)
	if err != nil {
		return nil, err
	}

	out.Segments = e.consolidator.Consolidate(ctx, res.Attributed, doc.Segments)
	out.Text = types.JoinSegments(out.Segments)
	out.WordCount = types.WordCount(out.Text)

	observe.Logger(ctx).Info("speech extracted",
		"player", targetName,
		"video_id", doc.VideoID,
		"segments", len(out.Segments),
		"word_count", out.WordCount,
		"original_word_count", out.OriginalWordCount)
	return out, nil
}
