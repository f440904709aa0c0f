package attribute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/seonjhang/gAIm-Systems/internal/observe"
	"github.com/seonjhang/gAIm-Systems/internal/question"
	"github.com/seonjhang/gAIm-Systems/pkg/provider/llm"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// Classifier defaults, chosen so a full window prompt stays well inside the
// context limits of every supported model.
const (
	DefaultWindowSize        = 80
	DefaultOverlap           = 10
	DefaultSingleWindowLimit = 200
	DefaultContextSegments   = 5
	DefaultTemperature       = 0.2
	DefaultRequestTimeout    = 60 * time.Second
)

// WindowOutcome records how one classification window was resolved:
// [KindNone] for a usable provider response, [KindClassificationUnavailable]
// when the window degraded to heuristics, [KindMalformedResponse] when the
// response yielded no indices.
type WindowOutcome struct {
	Span Span
	Kind Kind
}

// Result is the classifier output for one transcript.
type Result struct {
	// Attributed holds the segments assigned to the target speaker, sorted
	// ascending by GlobalIndex and deduplicated across overlapping windows
	// (first occurrence wins).
	Attributed []types.AttributedSegment

	// Windows records per-window outcomes in processing order.
	Windows []WindowOutcome
}

// Classifier assigns transcript segments to a target speaker by querying an
// [llm.Provider] over overlapping windows, degrading per window to lexical
// heuristics when the provider is absent or failing.
//
// A Classifier holds no mutable state across calls, so one instance may
// serve concurrent transcripts. Windows within a single transcript are
// always classified sequentially.
type Classifier struct {
	provider       llm.Provider
	providerName   string
	detector       *question.Detector
	rules          *InclusionRules
	windowSize     int
	overlap        int
	singleLimit    int
	contextCount   int
	temperature    float64
	maxTokens      int
	requestTimeout time.Duration
}

// ── options ──

// ClassifierOption configures a [Classifier].
type ClassifierOption func(*Classifier)

// WithProvider sets the classification provider. Without one every window
// resolves heuristically.
func WithProvider(p llm.Provider) ClassifierOption {
	return func(c *Classifier) { c.provider = p }
}

// WithProviderName sets the provider label used on metrics.
func WithProviderName(name string) ClassifierOption {
	return func(c *Classifier) {
		if name != "" {
			c.providerName = name
		}
	}
}

// WithDetector substitutes the question detector.
func WithDetector(d *question.Detector) ClassifierOption {
	return func(c *Classifier) {
		if d != nil {
			c.detector = d
		}
	}
}

// WithRules substitutes the lexical inclusion rules used by the heuristic
// fallback.
func WithRules(r *InclusionRules) ClassifierOption {
	return func(c *Classifier) {
		if r != nil {
			c.rules = r
		}
	}
}

// WithWindowSize sets the window size in segments.
func WithWindowSize(n int) ClassifierOption {
	return func(c *Classifier) {
		if n > 0 {
			c.windowSize = n
		}
	}
}

// WithOverlap sets how many segments consecutive windows share.
func WithOverlap(n int) ClassifierOption {
	return func(c *Classifier) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// WithSingleWindowLimit sets the segment count up to which the whole
// transcript is classified in one call.
func WithSingleWindowLimit(n int) ClassifierOption {
	return func(c *Classifier) {
		if n > 0 {
			c.singleLimit = n
		}
	}
}

// WithContextSegments sets how many preceding segments non-first windows
// receive as read-only context.
func WithContextSegments(n int) ClassifierOption {
	return func(c *Classifier) {
		if n >= 0 {
			c.contextCount = n
		}
	}
}

// WithTemperature sets the sampling temperature for classification calls.
func WithTemperature(t float64) ClassifierOption {
	return func(c *Classifier) { c.temperature = t }
}

// WithMaxTokens caps the completion length. Zero leaves the provider
// default in place.
func WithMaxTokens(n int) ClassifierOption {
	return func(c *Classifier) {
		if n >= 0 {
			c.maxTokens = n
		}
	}
}

// WithRequestTimeout sets the per-call deadline applied to each window
// classification. An expired call degrades that window to heuristics; it
// does not abort the transcript.
func WithRequestTimeout(d time.Duration) ClassifierOption {
	return func(c *Classifier) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// NewClassifier builds a Classifier with hockey-interview defaults for
// anything the options leave unset.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		providerName:   "external",
		detector:       question.NewDetector(question.DefaultTables()),
		rules:          NewInclusionRules(DefaultLexicon()),
		windowSize:     DefaultWindowSize,
		overlap:        DefaultOverlap,
		singleLimit:    DefaultSingleWindowLimit,
		contextCount:   DefaultContextSegments,
		temperature:    DefaultTemperature,
		requestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.windowSize {
		c.overlap = c.windowSize - 1
	}
	return c
}

// ── classification ──

// Classify assigns segments to targetName. Short transcripts go through a
// single call over the full sequence; longer ones are partitioned into
// overlapping windows classified sequentially, with results remapped to
// global indices and deduplicated across the overlap regions.
//
// Provider failures and unparseable replies degrade the affected window
// only. The one hard failure is malformed input: an empty target name or a
// segment sequence whose GlobalIndex values are not strictly increasing
// returns an [*Error] of [KindInputShape]. An empty segment sequence is not
// an error and yields an empty Result.
func (c *Classifier) Classify(ctx context.Context, segments []types.TranscriptSegment, targetName string) (*Result, error) {
	if strings.TrimSpace(targetName) == "" {
		return nil, &Error{Kind: KindInputShape, Op: "classify", Err: errors.New("empty target name")}
	}
	if len(segments) == 0 {
		return &Result{}, nil
	}
	for i := 1; i < len(segments); i++ {
		if segments[i].GlobalIndex <= segments[i-1].GlobalIndex {
			return nil, &Error{
				Kind: KindInputShape,
				Op:   "classify",
				Err: fmt.Errorf("global index %d at position %d does not ascend past %d",
					segments[i].GlobalIndex, i, segments[i-1].GlobalIndex),
			}
		}
	}

	spans := []Span{{Start: 0, End: len(segments)}}
	if len(segments) > c.singleLimit {
		var err error
		spans, err = Windows(len(segments), c.windowSize, c.overlap)
		if err != nil {
			return nil, fmt.Errorf("attribute: classify: %w", err)
		}
	}

	met := observe.DefaultMetrics()
	res := &Result{Windows: make([]WindowOutcome, 0, len(spans))}
	seen := make(map[int]struct{})

	for _, span := range spans {
		picked, kind, err := c.classifyWindow(ctx, segments, span, targetName, len(spans) > 1)
		if err != nil {
			return nil, err
		}
		res.Windows = append(res.Windows, WindowOutcome{Span: span, Kind: kind})
		met.RecordWindowOutcome(ctx, outcomeLabel(kind))

		source := "model"
		if kind == KindClassificationUnavailable {
			source = "heuristic"
		}
		added := 0
		for _, seg := range picked {
			if _, dup := seen[seg.GlobalIndex]; dup {
				continue
			}
			seen[seg.GlobalIndex] = struct{}{}
			res.Attributed = append(res.Attributed, types.AttributedSegment{TranscriptSegment: seg})
			added++
		}
		met.RecordAttributedSegments(ctx, source, added)
	}

	sort.Slice(res.Attributed, func(i, j int) bool {
		return res.Attributed[i].GlobalIndex < res.Attributed[j].GlobalIndex
	})
	observe.Logger(ctx).Debug("classification complete",
		"target", targetName,
		"segments", len(segments),
		"windows", len(spans),
		"attributed", len(res.Attributed))
	return res, nil
}

// classifyWindow resolves one window. The returned error is non-nil only
// when the caller's context ended; every provider-side failure resolves to a
// degraded outcome instead.
func (c *Classifier) classifyWindow(ctx context.Context, segments []types.TranscriptSegment, span Span, targetName string, windowed bool) ([]types.TranscriptSegment, Kind, error) {
	window := segments[span.Start:span.End]
	if c.provider == nil {
		return c.heuristicPass(window), KindClassificationUnavailable, nil
	}

	system, user := c.buildPrompts(segments, span, targetName, windowed)
	msgs := []types.Message{{Role: "user", Content: user}}

	// A prompt that cannot fit the model's context would only burn a doomed
	// request; resolve such windows heuristically up front.
	caps := c.provider.Capabilities()
	if caps.ContextWindow > 0 {
		est, err := c.provider.CountTokens(append([]types.Message{{Role: "system", Content: system}}, msgs...))
		if err == nil && est > caps.ContextWindow {
			observe.Logger(ctx).Warn("window prompt exceeds model context window, using heuristics",
				"window_start", span.Start, "window_end", span.End,
				"estimated_tokens", est, "context_window", caps.ContextWindow)
			return c.heuristicPass(window), KindClassificationUnavailable, nil
		}
	}

	// Some backends reject completion budgets above the model's output cap;
	// clamp instead of failing the window.
	maxTokens := c.maxTokens
	if caps.MaxOutputTokens > 0 && maxTokens > caps.MaxOutputTokens {
		maxTokens = caps.MaxOutputTokens
	}

	req := llm.CompletionRequest{
		Messages:     msgs,
		SystemPrompt: system,
		Temperature:  c.temperature,
		MaxTokens:    maxTokens,
		JSONResponse: caps.SupportsJSONResponse,
	}

	cctx := ctx
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	met := observe.DefaultMetrics()
	start := time.Now()
	resp, err := c.provider.Complete(cctx, req)
	met.ClassificationDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		// A dead parent context means the caller gave up; only then does
		// the failure propagate instead of degrading.
		if ctx.Err() != nil {
			return nil, KindNone, fmt.Errorf("attribute: classify window [%d,%d): %w", span.Start, span.End, ctx.Err())
		}
		met.RecordProviderRequest(ctx, c.providerName, "llm", "error")
		met.RecordProviderError(ctx, c.providerName, "llm")
		observe.Logger(ctx).Warn("window classification unavailable, falling back to heuristics",
			"window_start", span.Start, "window_end", span.End, "error", err)
		return c.heuristicPass(window), KindClassificationUnavailable, nil
	}
	met.RecordProviderRequest(ctx, c.providerName, "llm", "ok")

	var content string
	if resp != nil {
		content = resp.Content
	}
	indices, ok := parseIndices(content)
	if !ok {
		observe.Logger(ctx).Warn("malformed classification response, no indices for window",
			"window_start", span.Start, "window_end", span.End, "content", truncate(content, 200))
		return nil, KindMalformedResponse, nil
	}

	picked := make([]types.TranscriptSegment, 0, len(indices))
	dropped := 0
	for _, local := range indices {
		if local < 0 || local >= len(window) {
			dropped++
			continue
		}
		picked = append(picked, window[local])
	}
	if dropped > 0 {
		observe.Logger(ctx).Debug("dropped out-of-range classification indices",
			"window_start", span.Start, "window_end", span.End, "dropped", dropped)
	}
	return picked, KindNone, nil
}

// heuristicPass attributes segments without the provider: everything that
// is neither empty nor a question and reads as answer speech under the
// inclusion rules.
func (c *Classifier) heuristicPass(window []types.TranscriptSegment) []types.TranscriptSegment {
	var picked []types.TranscriptSegment
	for _, seg := range window {
		text := strings.TrimSpace(seg.Text)
		if text == "" || c.detector.IsQuestion(text) {
			continue
		}
		if c.rules.Admit(text) {
			picked = append(picked, seg)
		}
	}
	return picked
}

// outcomeLabel maps a window kind to its metric label.
func outcomeLabel(k Kind) string {
	switch k {
	case KindClassificationUnavailable:
		return "heuristic"
	case KindMalformedResponse:
		return "malformed"
	default:
		return "model"
	}
}

// ── prompt construction ──

const classifySystemHeader = `You are an expert at analyzing interview transcripts to identify when a specific person is speaking.

Your task: identify which numbered segments are spoken by %s, the player being interviewed.

Exclude interviewer speech: questions ending with "?", questions opening with phrases like "Did you", "What do you" or "How do you", and prompts like "Tell us about..." or "Walk us through...".

Include ALL of the player's speech: first-person statements, short answers like "Yeah" or "Right", and fragments that continue a previous answer. When in doubt, include the segment.`

const classifyExample = `Example:
[0] Did you expect to be drafted so early?
[1] Honestly, no.
[2] I mean, you dream about it, but when it happens it feels surreal.
[3] What about your family?
[4] They were all there, my mom was crying.
Correct answer: {"indices": [1, 2, 4]}`

// buildPrompts renders the system and user prompts for one window. Short
// transcripts use the single-call form with a worked example; windowed
// transcripts label each line with both its local and global index and
// prepend read-only lookback context for every window after the first.
// Either way the model is asked for local indices, which the caller
// resolves by position within the window.
func (c *Classifier) buildPrompts(segments []types.TranscriptSegment, span Span, targetName string, windowed bool) (system, user string) {
	window := segments[span.Start:span.End]
	header := fmt.Sprintf(classifySystemHeader, targetName)

	var b strings.Builder
	if !windowed {
		system = header + "\n\n" + classifyExample + "\n\nRespond with a JSON object of the form {\"indices\": [<segment numbers>]}."

		fmt.Fprintf(&b, "Transcript of an interview with %s:\n\n", targetName)
		for i, seg := range window {
			fmt.Fprintf(&b, "[%d] %s\n", i, seg.Text)
		}
		fmt.Fprintf(&b, "\nReturn the indices of every segment spoken by %s as JSON: {\"indices\": [...]}", targetName)
		return system, b.String()
	}

	system = header + "\n\nRespond with a JSON object listing LOCAL indices: {\"indices\": [<local segment numbers>]}."

	if span.Start > 0 && c.contextCount > 0 {
		from := span.Start - c.contextCount
		if from < 0 {
			from = 0
		}
		b.WriteString("Preceding context (do not classify):\n")
		for _, seg := range segments[from:span.Start] {
			fmt.Fprintf(&b, "[%d] %s\n", seg.GlobalIndex, seg.Text)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Segments to classify, from an interview with %s:\n\n", targetName)
	for i, seg := range window {
		fmt.Fprintf(&b, "[Local:%d Global:%d] %s\n", i, seg.GlobalIndex, seg.Text)
	}
	fmt.Fprintf(&b, "\nReturn the LOCAL indices of every segment spoken by %s as JSON: {\"indices\": [...]}", targetName)
	return system, b.String()
}

// ── response parsing ──

// index-bearing fragments rescued from otherwise unparseable replies
var (
	indexObjectPattern = regexp.MustCompile(`\{"indices"\s*:\s*\[[\d,\s]+\]\}`)
	indexArrayPattern  = regexp.MustCompile(`\[[\d,\s]+\]`)
)

// parseIndices defensively extracts local indices from a classification
// reply. It accepts, in order: a JSON object carrying "indices" (or the
// "segments"/"player_segments" spellings some models substitute), a bare
// JSON array, an indices object embedded in surrounding prose, and a bare
// bracketed number list. ok is false only when nothing index-shaped can be
// recovered; a well-formed reply without indices is a valid empty set.
func parseIndices(content string) (indices []int, ok bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, false
	}

	if v, err := decodeJSON(content); err == nil {
		switch t := v.(type) {
		case map[string]any:
			for _, key := range []string{"indices", "segments", "player_segments"} {
				if list, isList := t[key].([]any); isList {
					return intSlice(list), true
				}
			}
			return nil, true
		case []any:
			return intSlice(t), true
		default:
			return nil, true
		}
	}

	if m := indexObjectPattern.FindString(content); m != "" {
		if v, err := decodeJSON(m); err == nil {
			if obj, isObj := v.(map[string]any); isObj {
				if list, isList := obj["indices"].([]any); isList {
					return intSlice(list), true
				}
			}
		}
	}
	if m := indexArrayPattern.FindString(content); m != "" {
		if v, err := decodeJSON(m); err == nil {
			if list, isList := v.([]any); isList {
				return intSlice(list), true
			}
		}
	}
	return nil, false
}

// decodeJSON decodes the first JSON value in s, preserving numbers so
// integral indices can be told apart from fractions.
func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// intSlice keeps the integral numbers in list, skipping anything else.
func intSlice(list []any) []int {
	out := make([]int, 0, len(list))
	for _, item := range list {
		num, isNum := item.(json.Number)
		if !isNum {
			continue
		}
		n, err := num.Int64()
		if err != nil {
			continue
		}
		out = append(out, int(n))
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
