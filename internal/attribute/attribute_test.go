package attribute_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/seonjhang/gAIm-Systems/internal/attribute"
	"github.com/seonjhang/gAIm-Systems/internal/question"
	"github.com/seonjhang/gAIm-Systems/pkg/provider/llm"
	"github.com/seonjhang/gAIm-Systems/pkg/provider/llm/mock"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

func transcriptDoc(segments []types.TranscriptSegment) types.TranscriptDocument {
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	full := strings.Join(texts, " ")
	return types.TranscriptDocument{
		VideoID:   "dQw4w9WgXcQ",
		Title:     "Post-game availability",
		URL:       "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Language:  "en",
		Segments:  segments,
		FullText:  full,
		WordCount: types.WordCount(full),
	}
}

func TestExtractor_EndToEnd(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse:  &llm.CompletionResponse{Content: `{"indices": [1, 3]}`},
		ModelCapabilities: types.ModelCapabilities{SupportsJSONResponse: true},
	}
	ex := attribute.NewExtractor(
		attribute.NewClassifier(attribute.WithProvider(p)),
		attribute.NewConsolidator(),
		attribute.WithModelLabel("gpt-4o-mini"),
	)

	doc := transcriptDoc(interviewSegments())
	got, err := ex.Extract(context.Background(), doc, "Connor Example")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if got.PlayerName != "Connor Example" {
		t.Errorf("player name = %q", got.PlayerName)
	}
	if got.VideoID != doc.VideoID || got.VideoTitle != doc.Title || got.VideoURL != doc.URL {
		t.Errorf("source metadata not carried over: %+v", got)
	}
	if got.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", got.Model)
	}

	wantText := "Yeah, I mean it's been a dream. It was amazing, my family was there."
	if got.Text != wantText {
		t.Errorf("text = %q, want %q", got.Text, wantText)
	}
	if want := types.WordCount(wantText); got.WordCount != want {
		t.Errorf("word count = %d, want %d", got.WordCount, want)
	}
	if got.OriginalWordCount != doc.WordCount {
		t.Errorf("original word count = %d, want %d", got.OriginalWordCount, doc.WordCount)
	}
	if got.ExtractedAt.IsZero() {
		t.Error("extraction timestamp not set")
	}
}

func TestExtractor_EmptyTranscript(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{}
	ex := attribute.NewExtractor(
		attribute.NewClassifier(attribute.WithProvider(p)),
		nil,
		attribute.WithModelLabel("gpt-4o-mini"),
	)

	got, err := ex.Extract(context.Background(), types.TranscriptDocument{VideoID: "empty01", WordCount: 0}, "Connor Example")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got.Segments) != 0 || got.Text != "" || got.WordCount != 0 {
		t.Errorf("empty transcript produced %d segments, text %q, count %d",
			len(got.Segments), got.Text, got.WordCount)
	}
	if got.PlayerName != "Connor Example" || got.VideoID != "empty01" {
		t.Errorf("metadata missing on empty result: %+v", got)
	}
	if len(p.CompleteCalls) != 0 {
		t.Errorf("provider called %d times for an empty transcript, want 0", len(p.CompleteCalls))
	}
}

func TestExtractor_InputShapeErrorPropagates(t *testing.T) {
	t.Parallel()

	ex := attribute.NewExtractor(nil, nil)
	segs := interviewSegments()
	segs[3].GlobalIndex = 0

	_, err := ex.Extract(context.Background(), transcriptDoc(segs), "Connor Example")
	var aerr *attribute.Error
	if !errors.As(err, &aerr) {
		t.Fatalf("Extract error = %v, want *attribute.Error", err)
	}
	if aerr.Kind != attribute.KindInputShape {
		t.Errorf("error kind = %v, want %v", aerr.Kind, attribute.KindInputShape)
	}
}

// Even when the model over-attributes aggressively, the output must stay
// strictly ascending, duplicate-free, and free of questions.
func TestExtractor_OutputInvariants(t *testing.T) {
	t.Parallel()

	segs := makeSegments(250)
	// Sprinkle in questions and rescuable answers.
	for i := 0; i < len(segs); i += 10 {
		segs[i].Text = "What do you take away from tonight?"
	}
	for i := 5; i < len(segs); i += 10 {
		segs[i].Text = "I thought we played our structure."
	}

	// The provider claims every local index in every window, questions
	// included.
	p := &mock.Provider{}
	p.CompleteFunc = func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		lines := strings.Count(req.Messages[0].Content, "[Local:")
		indices := make([]string, lines)
		for i := range indices {
			indices[i] = strconv.Itoa(i)
		}
		content := `{"indices": [` + strings.Join(indices, ", ") + `]}`
		return &llm.CompletionResponse{Content: content}, nil
	}

	ex := attribute.NewExtractor(attribute.NewClassifier(attribute.WithProvider(p)), nil)
	got, err := ex.Extract(context.Background(), transcriptDoc(segs), "Connor Example")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got.Segments) == 0 {
		t.Fatal("no segments attributed")
	}

	detector := question.NewDetector(question.DefaultTables())
	last := -1
	for _, seg := range got.Segments {
		if seg.GlobalIndex <= last {
			t.Fatalf("global index %d after %d: output not strictly ascending", seg.GlobalIndex, last)
		}
		last = seg.GlobalIndex
		if detector.IsQuestion(seg.Text) {
			t.Errorf("question leaked into output: %q", seg.Text)
		}
	}
}
