package attribute_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/seonjhang/gAIm-Systems/internal/attribute"
	"github.com/seonjhang/gAIm-Systems/internal/question"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// pressRoomSegments is a post-game scrum: questions around index 5, the
// answer run the rescue pass should recover at 6 and 7, and neutral
// narration everywhere else.
func pressRoomSegments() []types.TranscriptSegment {
	texts := []string{
		"The first period was rough for both teams.",
		"How do you rate the power play tonight?",
		"The building was full an hour before warmups.",
		"What did the coach say after the second period?",
		"Did you think the penalty changed the game?",
		"It was a special night for the whole group.",
		"Yeah.",
		"it really meant a lot to me.",
		"The fans stayed long after the final horn.",
		"Both goalies traded save after save in overtime.",
		"The road trip continues on Thursday night.",
		"Television ratings climbed again this season.",
		"The team flies out tomorrow.",
	}
	segs := make([]types.TranscriptSegment, len(texts))
	for i, text := range texts {
		segs[i] = types.TranscriptSegment{Text: text, Start: float64(i) * 5, Duration: 5, GlobalIndex: i}
	}
	return segs
}

func attributedAt(all []types.TranscriptSegment, indices ...int) []types.AttributedSegment {
	out := make([]types.AttributedSegment, 0, len(indices))
	for _, idx := range indices {
		out = append(out, types.AttributedSegment{TranscriptSegment: all[idx]})
	}
	return out
}

func TestConsolidator_RescuesNearbyAnswers(t *testing.T) {
	t.Parallel()

	all := pressRoomSegments()
	c := attribute.NewConsolidator()

	got := c.Consolidate(context.Background(), attributedAt(all, 5), all)

	if want := []int{5, 6, 7}; !reflect.DeepEqual(globals(got), want) {
		t.Fatalf("consolidated globals = %v, want %v", globals(got), want)
	}
	if got[0].Rescued {
		t.Error("segment 5 marked rescued, want directly attributed")
	}
	for _, seg := range got[1:] {
		if !seg.Rescued {
			t.Errorf("segment %d not marked rescued", seg.GlobalIndex)
		}
	}
}

// Questions never survive consolidation: not as attributed input, not as
// rescue candidates.
func TestConsolidator_DropsQuestions(t *testing.T) {
	t.Parallel()

	all := pressRoomSegments()
	c := attribute.NewConsolidator()
	detector := question.NewDetector(question.DefaultTables())

	// Index 4 is a question the classifier wrongly attributed; index 3 and
	// 4 are questions inside the rescue range.
	got := c.Consolidate(context.Background(), attributedAt(all, 4, 5), all)

	if want := []int{5, 6, 7}; !reflect.DeepEqual(globals(got), want) {
		t.Fatalf("consolidated globals = %v, want %v", globals(got), want)
	}
	for _, seg := range got {
		if detector.IsQuestion(seg.Text) {
			t.Errorf("question leaked into output: %q", seg.Text)
		}
	}
}

func TestConsolidator_AdjacencyGroupsBoundRescue(t *testing.T) {
	t.Parallel()

	all := makeSegments(25)
	all[12].Text = "I knew we had more to give."
	all[20].Text = "My legs felt heavy out there."

	c := attribute.NewConsolidator()
	got := c.Consolidate(context.Background(), attributedAt(all, 1, 3, 9), all)

	// Groups {1,3} and {9}: index 12 sits inside the second group's reach
	// (9+5), index 20 is beyond every group.
	if want := []int{1, 3, 9, 12}; !reflect.DeepEqual(globals(got), want) {
		t.Errorf("consolidated globals = %v, want %v", globals(got), want)
	}
}

func TestConsolidator_WiderAdjacencyMergesGroups(t *testing.T) {
	t.Parallel()

	all := makeSegments(25)
	all[10].Text = "I knew we had more to give."

	// Separate groups {1} and {15} reach [..6] and [13..], leaving index 10
	// out of range.
	narrow := attribute.NewConsolidator()
	got := narrow.Consolidate(context.Background(), attributedAt(all, 1, 15), all)
	if want := []int{1, 15}; !reflect.DeepEqual(globals(got), want) {
		t.Fatalf("consolidated globals = %v, want %v with default adjacency", globals(got), want)
	}

	// A wide threshold merges them into {1..15}, whose interior covers 10.
	wide := attribute.NewConsolidator(attribute.WithAdjacencyThreshold(14))
	got = wide.Consolidate(context.Background(), attributedAt(all, 1, 15), all)
	if want := []int{1, 10, 15}; !reflect.DeepEqual(globals(got), want) {
		t.Errorf("consolidated globals = %v, want %v with merged groups", globals(got), want)
	}
}

func TestConsolidator_RescueBoundsConfigurable(t *testing.T) {
	t.Parallel()

	all := pressRoomSegments()
	c := attribute.NewConsolidator(attribute.WithRescueBounds(0, 0))

	got := c.Consolidate(context.Background(), attributedAt(all, 5), all)
	if want := []int{5}; !reflect.DeepEqual(globals(got), want) {
		t.Errorf("consolidated globals = %v, want %v with zero rescue reach", globals(got), want)
	}
}

func TestConsolidator_EmptyInput(t *testing.T) {
	t.Parallel()

	c := attribute.NewConsolidator()
	if got := c.Consolidate(context.Background(), nil, pressRoomSegments()); len(got) != 0 {
		t.Errorf("Consolidate(nil) = %v, want empty", globals(got))
	}
}

func TestConsolidator_InputNotMutated(t *testing.T) {
	t.Parallel()

	all := makeSegments(10)
	attributed := attributedAt(all, 7, 2)

	c := attribute.NewConsolidator()
	got := c.Consolidate(context.Background(), attributed, all)

	if attributed[0].GlobalIndex != 7 || attributed[1].GlobalIndex != 2 {
		t.Errorf("input reordered to %v", globals(attributed))
	}
	if want := []int{2, 7}; !reflect.DeepEqual(globals(got), want) {
		t.Errorf("consolidated globals = %v, want %v", globals(got), want)
	}
}

func TestConsolidator_DeduplicatesInput(t *testing.T) {
	t.Parallel()

	all := makeSegments(10)
	c := attribute.NewConsolidator()

	got := c.Consolidate(context.Background(), attributedAt(all, 4, 4), all)
	if want := []int{4}; !reflect.DeepEqual(globals(got), want) {
		t.Errorf("consolidated globals = %v, want %v", globals(got), want)
	}
}

// A result that rescues nothing new is a fixed point: consolidating it
// again returns it unchanged.
func TestConsolidator_FixedPointIdempotence(t *testing.T) {
	t.Parallel()

	texts := []string{
		"Did you see the first goal?",
		"What do you make of the crowd tonight?",
		"I worked hard for this chance.",
		"It means everything to me.",
		"How do you keep the energy up?",
		"Will you change the lineup tomorrow?",
		"Where does the team go from here?",
		"Can you walk us through the winner?",
	}
	all := make([]types.TranscriptSegment, len(texts))
	for i, text := range texts {
		all[i] = types.TranscriptSegment{Text: text, GlobalIndex: i}
	}

	c := attribute.NewConsolidator()
	once := c.Consolidate(context.Background(), attributedAt(all, 2, 3), all)
	if want := []int{2, 3}; !reflect.DeepEqual(globals(once), want) {
		t.Fatalf("consolidated globals = %v, want %v", globals(once), want)
	}

	twice := c.Consolidate(context.Background(), once, all)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("reconsolidation changed a fixed point: %v then %v", globals(once), globals(twice))
	}
}
