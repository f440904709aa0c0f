package attribute_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/seonjhang/gAIm-Systems/internal/attribute"
	"github.com/seonjhang/gAIm-Systems/pkg/provider/llm"
	"github.com/seonjhang/gAIm-Systems/pkg/provider/llm/mock"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// makeSegments builds n contiguous neutral segments that neither the
// question detector nor the inclusion rules react to.
func makeSegments(n int) []types.TranscriptSegment {
	segs := make([]types.TranscriptSegment, n)
	for i := range segs {
		segs[i] = types.TranscriptSegment{
			Text:        fmt.Sprintf("segment %d text", i),
			Start:       float64(i) * 4,
			Duration:    4,
			GlobalIndex: i,
		}
	}
	return segs
}

// interviewSegments is a miniature interview: two questions, two answers.
func interviewSegments() []types.TranscriptSegment {
	texts := []string{
		"Did you expect this?",
		"Yeah, I mean it's been a dream.",
		"Tell us about your draft day.",
		"It was amazing, my family was there.",
	}
	segs := make([]types.TranscriptSegment, len(texts))
	for i, text := range texts {
		segs[i] = types.TranscriptSegment{Text: text, Start: float64(i) * 5, Duration: 5, GlobalIndex: i}
	}
	return segs
}

func globals(attributed []types.AttributedSegment) []int {
	out := make([]int, len(attributed))
	for i, seg := range attributed {
		out[i] = seg.GlobalIndex
	}
	return out
}

func TestClassifier_SingleWindowCall(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse:  &llm.CompletionResponse{Content: `{"indices": [1, 3]}`},
		ModelCapabilities: types.ModelCapabilities{SupportsJSONResponse: true},
	}
	cl := attribute.NewClassifier(attribute.WithProvider(p))

	res, err := cl.Classify(context.Background(), interviewSegments(), "Connor Example")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got, want := globals(res.Attributed), []int{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("attributed globals = %v, want %v", got, want)
	}
	if len(res.Windows) != 1 {
		t.Fatalf("got %d window outcomes, want 1", len(res.Windows))
	}
	if res.Windows[0].Kind != attribute.KindNone {
		t.Errorf("window kind = %v, want %v", res.Windows[0].Kind, attribute.KindNone)
	}
	if got, want := res.Windows[0].Span, (attribute.Span{Start: 0, End: 4}); got != want {
		t.Errorf("window span = %v, want %v", got, want)
	}

	if len(p.CompleteCalls) != 1 {
		t.Fatalf("got %d provider calls, want 1", len(p.CompleteCalls))
	}
	req := p.CompleteCalls[0]
	if !strings.Contains(req.SystemPrompt, "Connor Example") {
		t.Error("system prompt does not name the target speaker")
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Fatalf("messages = %+v, want one user message", req.Messages)
	}
	for _, line := range []string{"[0] Did you expect this?", "[3] It was amazing, my family was there."} {
		if !strings.Contains(req.Messages[0].Content, line) {
			t.Errorf("user prompt missing %q", line)
		}
	}
	if req.Temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", req.Temperature)
	}
	if req.MaxTokens != 0 {
		t.Errorf("max tokens = %d, want 0 (provider default)", req.MaxTokens)
	}
	if !req.JSONResponse {
		t.Error("JSONResponse = false for a JSON-capable model, want true")
	}
}

func TestClassifier_JSONResponseFollowsCapabilities(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse:  &llm.CompletionResponse{Content: `{"indices": []}`},
		ModelCapabilities: types.ModelCapabilities{SupportsJSONResponse: false},
	}
	cl := attribute.NewClassifier(attribute.WithProvider(p))

	if _, err := cl.Classify(context.Background(), interviewSegments(), "Connor Example"); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if p.CompleteCalls[0].JSONResponse {
		t.Error("JSONResponse = true for a model without JSON support, want false")
	}
}

func TestClassifier_EmptyInput(t *testing.T) {
	t.Parallel()

	cl := attribute.NewClassifier()
	res, err := cl.Classify(context.Background(), nil, "Connor Example")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(res.Attributed) != 0 || len(res.Windows) != 0 {
		t.Errorf("got %d attributed, %d windows for empty input, want 0, 0",
			len(res.Attributed), len(res.Windows))
	}
}

func TestClassifier_EmptyTargetName(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{}
	cl := attribute.NewClassifier(attribute.WithProvider(p))

	_, err := cl.Classify(context.Background(), interviewSegments(), "   ")
	var aerr *attribute.Error
	if !errors.As(err, &aerr) {
		t.Fatalf("Classify error = %v, want *attribute.Error", err)
	}
	if aerr.Kind != attribute.KindInputShape {
		t.Errorf("error kind = %v, want %v", aerr.Kind, attribute.KindInputShape)
	}
	if len(p.CompleteCalls) != 0 {
		t.Errorf("provider called %d times on invalid input, want 0", len(p.CompleteCalls))
	}
}

func TestClassifier_NonAscendingGlobalIndex(t *testing.T) {
	t.Parallel()

	segs := interviewSegments()
	segs[2].GlobalIndex = segs[1].GlobalIndex

	cl := attribute.NewClassifier()
	_, err := cl.Classify(context.Background(), segs, "Connor Example")
	var aerr *attribute.Error
	if !errors.As(err, &aerr) {
		t.Fatalf("Classify error = %v, want *attribute.Error", err)
	}
	if aerr.Kind != attribute.KindInputShape {
		t.Errorf("error kind = %v, want %v", aerr.Kind, attribute.KindInputShape)
	}
}

// A failing provider degrades the window to heuristics: answers with
// first-person markers survive, questions never do.
func TestClassifier_HeuristicFallbackOnProviderError(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteErr: errors.New("rate limited")}
	cl := attribute.NewClassifier(attribute.WithProvider(p))

	res, err := cl.Classify(context.Background(), interviewSegments(), "Connor Example")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got, want := globals(res.Attributed), []int{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("attributed globals = %v, want %v", got, want)
	}
	if res.Windows[0].Kind != attribute.KindClassificationUnavailable {
		t.Errorf("window kind = %v, want %v", res.Windows[0].Kind, attribute.KindClassificationUnavailable)
	}
}

func TestClassifier_HeuristicWithoutProvider(t *testing.T) {
	t.Parallel()

	cl := attribute.NewClassifier()
	res, err := cl.Classify(context.Background(), interviewSegments(), "Connor Example")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got, want := globals(res.Attributed), []int{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("attributed globals = %v, want %v", got, want)
	}
	if res.Windows[0].Kind != attribute.KindClassificationUnavailable {
		t.Errorf("window kind = %v, want %v", res.Windows[0].Kind, attribute.KindClassificationUnavailable)
	}
}

// An unparseable reply yields an empty set for the window, not heuristics
// and not an error.
func TestClassifier_MalformedResponse(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "I cannot help with that."},
	}
	cl := attribute.NewClassifier(attribute.WithProvider(p))

	res, err := cl.Classify(context.Background(), interviewSegments(), "Connor Example")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(res.Attributed) != 0 {
		t.Errorf("attributed = %v, want none", globals(res.Attributed))
	}
	if res.Windows[0].Kind != attribute.KindMalformedResponse {
		t.Errorf("window kind = %v, want %v", res.Windows[0].Kind, attribute.KindMalformedResponse)
	}
}

func TestClassifier_OutOfRangeIndicesDropped(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: `{"indices": [0, 7, -1, 3]}`},
	}
	cl := attribute.NewClassifier(attribute.WithProvider(p))

	res, err := cl.Classify(context.Background(), interviewSegments(), "Connor Example")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got, want := globals(res.Attributed), []int{0, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("attributed globals = %v, want %v", got, want)
	}
}

func TestClassifier_WindowedTranscript(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponses: []*llm.CompletionResponse{
			{Content: `{"indices": [75]}`}, // global 75
			{Content: `{"indices": [5]}`},  // global 70+5 = 75 again
			{Content: `{"indices": []}`},
			{Content: `{"indices": [30]}`}, // global 210+30 = 240
		},
	}
	cl := attribute.NewClassifier(attribute.WithProvider(p))

	res, err := cl.Classify(context.Background(), makeSegments(250), "Connor Example")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	wantSpans := []attribute.Span{
		{Start: 0, End: 80},
		{Start: 70, End: 150},
		{Start: 140, End: 220},
		{Start: 210, End: 250},
	}
	if len(res.Windows) != len(wantSpans) {
		t.Fatalf("got %d windows, want %d", len(res.Windows), len(wantSpans))
	}
	for i, w := range res.Windows {
		if w.Span != wantSpans[i] {
			t.Errorf("window %d span = %v, want %v", i, w.Span, wantSpans[i])
		}
		if w.Kind != attribute.KindNone {
			t.Errorf("window %d kind = %v, want %v", i, w.Kind, attribute.KindNone)
		}
	}

	// The overlap duplicate must appear exactly once.
	if got, want := globals(res.Attributed), []int{75, 240}; !reflect.DeepEqual(got, want) {
		t.Errorf("attributed globals = %v, want %v", got, want)
	}

	if len(p.CompleteCalls) != 4 {
		t.Fatalf("got %d provider calls, want 4", len(p.CompleteCalls))
	}
	first := p.CompleteCalls[0].Messages[0].Content
	if strings.Contains(first, "Preceding context") {
		t.Error("first window carries lookback context, want none")
	}
	if !strings.Contains(first, "[Local:0 Global:0]") {
		t.Error("first window prompt missing local/global numbering")
	}
	second := p.CompleteCalls[1].Messages[0].Content
	if !strings.Contains(second, "Preceding context (do not classify):") {
		t.Error("second window prompt missing lookback context")
	}
	for _, line := range []string{"[65] segment 65 text", "[69] segment 69 text", "[Local:0 Global:70]"} {
		if !strings.Contains(second, line) {
			t.Errorf("second window prompt missing %q", line)
		}
	}
	last := p.CompleteCalls[3].Messages[0].Content
	if !strings.Contains(last, "[Local:39 Global:249]") {
		t.Error("last window prompt missing its final segment")
	}
}

func TestClassifier_MixedWindowOutcomes(t *testing.T) {
	t.Parallel()

	call := 0
	p := &mock.Provider{}
	p.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		call++
		switch call {
		case 2:
			return nil, errors.New("backend unavailable")
		case 3:
			return &llm.CompletionResponse{Content: "no structured output"}, nil
		default:
			return &llm.CompletionResponse{Content: `{"indices": [0]}`}, nil
		}
	}
	cl := attribute.NewClassifier(attribute.WithProvider(p))

	res, err := cl.Classify(context.Background(), makeSegments(250), "Connor Example")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	wantKinds := []attribute.Kind{
		attribute.KindNone,
		attribute.KindClassificationUnavailable,
		attribute.KindMalformedResponse,
		attribute.KindNone,
	}
	if len(res.Windows) != len(wantKinds) {
		t.Fatalf("got %d windows, want %d", len(res.Windows), len(wantKinds))
	}
	for i, w := range res.Windows {
		if w.Kind != wantKinds[i] {
			t.Errorf("window %d kind = %v, want %v", i, w.Kind, wantKinds[i])
		}
	}

	// Neutral texts admit nothing heuristically, so only the two model
	// windows contribute.
	if got, want := globals(res.Attributed), []int{0, 210}; !reflect.DeepEqual(got, want) {
		t.Errorf("attributed globals = %v, want %v", got, want)
	}
}

func TestClassifier_CancellationAborts(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	p := &mock.Provider{}
	p.CompleteFunc = func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
		cancel()
		return nil, context.Canceled
	}
	cl := attribute.NewClassifier(attribute.WithProvider(p))

	_, err := cl.Classify(ctx, makeSegments(250), "Connor Example")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Classify error = %v, want context.Canceled", err)
	}
	if len(p.CompleteCalls) != 1 {
		t.Errorf("provider called %d times after cancellation, want 1", len(p.CompleteCalls))
	}
}

// An expired per-call deadline is a provider failure, not a caller
// cancellation: the window degrades and the transcript completes.
func TestClassifier_PerCallTimeoutDegrades(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{}
	p.CompleteFunc = func(ctx context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	cl := attribute.NewClassifier(
		attribute.WithProvider(p),
		attribute.WithRequestTimeout(5*time.Millisecond),
	)

	res, err := cl.Classify(context.Background(), interviewSegments(), "Connor Example")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got, want := globals(res.Attributed), []int{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("attributed globals = %v, want %v", got, want)
	}
	if res.Windows[0].Kind != attribute.KindClassificationUnavailable {
		t.Errorf("window kind = %v, want %v", res.Windows[0].Kind, attribute.KindClassificationUnavailable)
	}
}

// A prompt that cannot fit the model's context window resolves
// heuristically without spending a provider call.
func TestClassifier_OversizedPromptSkipsProvider(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		TokenCount:        9_000,
		ModelCapabilities: types.ModelCapabilities{ContextWindow: 8_192, SupportsJSONResponse: true},
	}
	cl := attribute.NewClassifier(attribute.WithProvider(p))

	res, err := cl.Classify(context.Background(), interviewSegments(), "Connor Example")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(p.CompleteCalls) != 0 {
		t.Errorf("provider called %d times for an oversized prompt, want 0", len(p.CompleteCalls))
	}
	if len(p.CountTokensCalls) != 1 {
		t.Errorf("CountTokens called %d times, want 1", len(p.CountTokensCalls))
	}
	if got, want := globals(res.Attributed), []int{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("attributed globals = %v, want %v", got, want)
	}
	if res.Windows[0].Kind != attribute.KindClassificationUnavailable {
		t.Errorf("window kind = %v, want %v", res.Windows[0].Kind, attribute.KindClassificationUnavailable)
	}
}

// A broken token counter must not block dispatch: the size check is advisory
// and the window still goes to the provider.
func TestClassifier_TokenCountErrorStillDispatches(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CountTokensErr:    errors.New("tokenizer offline"),
		CompleteResponse:  &llm.CompletionResponse{Content: `{"indices": [1, 3]}`},
		ModelCapabilities: types.ModelCapabilities{ContextWindow: 8_192, SupportsJSONResponse: true},
	}
	cl := attribute.NewClassifier(attribute.WithProvider(p))

	res, err := cl.Classify(context.Background(), interviewSegments(), "Connor Example")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(p.CompleteCalls) != 1 {
		t.Fatalf("got %d provider calls, want 1", len(p.CompleteCalls))
	}
	if res.Windows[0].Kind != attribute.KindNone {
		t.Errorf("window kind = %v, want %v", res.Windows[0].Kind, attribute.KindNone)
	}
	if got, want := globals(res.Attributed), []int{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("attributed globals = %v, want %v", got, want)
	}
}

// A completion budget above the model's output cap is clamped to the cap
// before dispatch.
func TestClassifier_MaxTokensClampedToModelCap(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse:  &llm.CompletionResponse{Content: `{"indices": [1]}`},
		ModelCapabilities: types.ModelCapabilities{MaxOutputTokens: 16_384, SupportsJSONResponse: true},
	}
	cl := attribute.NewClassifier(attribute.WithProvider(p), attribute.WithMaxTokens(50_000))

	if _, err := cl.Classify(context.Background(), interviewSegments(), "Connor Example"); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got := p.CompleteCalls[0].MaxTokens; got != 16_384 {
		t.Errorf("request max tokens = %d, want the model cap 16384", got)
	}
}

// Identical input must produce identical requests, so a failed transcript
// can be retried without drift.
func TestClassifier_DeterministicPrompts(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: `{"indices": [1]}`},
	}
	cl := attribute.NewClassifier(attribute.WithProvider(p))

	for i := 0; i < 2; i++ {
		if _, err := cl.Classify(context.Background(), interviewSegments(), "Connor Example"); err != nil {
			t.Fatalf("Classify run %d: %v", i, err)
		}
	}
	if len(p.CompleteCalls) != 2 {
		t.Fatalf("got %d provider calls, want 2", len(p.CompleteCalls))
	}
	if !reflect.DeepEqual(p.CompleteCalls[0], p.CompleteCalls[1]) {
		t.Error("repeated classification produced different requests")
	}
}

func TestClassifier_CustomWindowConfig(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: `{"indices": []}`},
	}
	cl := attribute.NewClassifier(
		attribute.WithProvider(p),
		attribute.WithSingleWindowLimit(10),
		attribute.WithWindowSize(8),
		attribute.WithOverlap(2),
	)

	res, err := cl.Classify(context.Background(), makeSegments(20), "Connor Example")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	wantSpans := []attribute.Span{{Start: 0, End: 8}, {Start: 6, End: 14}, {Start: 12, End: 20}}
	if len(res.Windows) != len(wantSpans) {
		t.Fatalf("got %d windows, want %d", len(res.Windows), len(wantSpans))
	}
	for i, w := range res.Windows {
		if w.Span != wantSpans[i] {
			t.Errorf("window %d span = %v, want %v", i, w.Span, wantSpans[i])
		}
	}
}
