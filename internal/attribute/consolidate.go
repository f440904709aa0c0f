package attribute

import (
	"context"
	"sort"

	"github.com/seonjhang/gAIm-Systems/internal/observe"
	"github.com/seonjhang/gAIm-Systems/internal/question"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// Consolidator defaults. The asymmetric rescue reach is empirically tuned:
// answers trail further behind an attributed run than they lead it.
const (
	DefaultAdjacencyThreshold = 3
	DefaultRescueBefore       = 2
	DefaultRescueAfter        = 5
)

// Consolidator merges attributed segments into coherent answer runs and
// rescues short reactive utterances the per-segment classifier misses.
// Per-segment classification systematically undercounts fragments like
// "Yeah." that carry no lexical signal on their own; index adjacency to an
// attributed run is a cheap proxy for "still answering the same question".
//
// A Consolidator is stateless across calls and safe for concurrent use.
type Consolidator struct {
	detector     *question.Detector
	rules        *InclusionRules
	adjacency    int
	rescueBefore int
	rescueAfter  int
}

// ConsolidatorOption configures a [Consolidator].
type ConsolidatorOption func(*Consolidator)

// WithAdjacencyThreshold sets the largest global-index gap across which two
// attributed segments still join the same group.
func WithAdjacencyThreshold(n int) ConsolidatorOption {
	return func(c *Consolidator) {
		if n >= 0 {
			c.adjacency = n
		}
	}
}

// WithRescueBounds sets how far the rescue pass reaches before a group's
// first index and after its last.
func WithRescueBounds(before, after int) ConsolidatorOption {
	return func(c *Consolidator) {
		if before >= 0 {
			c.rescueBefore = before
		}
		if after >= 0 {
			c.rescueAfter = after
		}
	}
}

// WithConsolidatorDetector substitutes the question detector.
func WithConsolidatorDetector(d *question.Detector) ConsolidatorOption {
	return func(c *Consolidator) {
		if d != nil {
			c.detector = d
		}
	}
}

// WithConsolidatorRules substitutes the lexical inclusion rules used by the
// rescue pass.
func WithConsolidatorRules(r *InclusionRules) ConsolidatorOption {
	return func(c *Consolidator) {
		if r != nil {
			c.rules = r
		}
	}
}

// NewConsolidator builds a Consolidator with defaults for anything the
// options leave unset.
func NewConsolidator(opts ...ConsolidatorOption) *Consolidator {
	c := &Consolidator{
		detector:     question.NewDetector(question.DefaultTables()),
		rules:        NewInclusionRules(DefaultLexicon()),
		adjacency:    DefaultAdjacencyThreshold,
		rescueBefore: DefaultRescueBefore,
		rescueAfter:  DefaultRescueAfter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// group is one run of attributed segments with intra-group gaps no larger
// than the adjacency threshold. Bounds are global indices.
type group struct {
	start   int
	end     int
	members []types.AttributedSegment
}

// Consolidate sorts attributed by global index, sweeps it into adjacent
// groups with questions dropped, then rescues unattributed neighbors around
// each group that read as answer speech. all supplies the neighbor text;
// indices absent from it are skipped. The result is sorted ascending by
// GlobalIndex with no duplicates and no questions, so running Consolidate
// over its own output changes nothing.
//
// Neither input slice is mutated. ctx is used for logging and metrics only.
func (c *Consolidator) Consolidate(ctx context.Context, attributed []types.AttributedSegment, all []types.TranscriptSegment) []types.AttributedSegment {
	if len(attributed) == 0 {
		return nil
	}

	sorted := make([]types.AttributedSegment, len(attributed))
	copy(sorted, attributed)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].GlobalIndex < sorted[j].GlobalIndex
	})

	byGlobal := make(map[int]types.TranscriptSegment, len(all))
	for _, seg := range all {
		byGlobal[seg.GlobalIndex] = seg
	}

	taken := make(map[int]struct{}, len(sorted))
	for _, seg := range sorted {
		taken[seg.GlobalIndex] = struct{}{}
	}

	groups := c.sweep(sorted)

	// --- rescue pass ---
	var rescued []types.AttributedSegment
	for _, g := range groups {
		for idx := g.start - c.rescueBefore; idx <= g.end+c.rescueAfter; idx++ {
			if _, done := taken[idx]; done {
				continue
			}
			seg, present := byGlobal[idx]
			if !present {
				continue
			}
			if c.detector.IsQuestion(seg.Text) || !c.rules.Admit(seg.Text) {
				continue
			}
			taken[idx] = struct{}{}
			rescued = append(rescued, types.AttributedSegment{TranscriptSegment: seg, Rescued: true})
		}
	}

	merged := make([]types.AttributedSegment, 0, len(sorted)+len(rescued))
	for _, g := range groups {
		merged = append(merged, g.members...)
	}
	merged = append(merged, rescued...)
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].GlobalIndex < merged[j].GlobalIndex
	})

	out := merged[:0]
	lastIndex := -1
	for _, seg := range merged {
		if len(out) > 0 && seg.GlobalIndex == lastIndex {
			continue
		}
		out = append(out, seg)
		lastIndex = seg.GlobalIndex
	}

	if len(rescued) > 0 {
		observe.DefaultMetrics().RecordAttributedSegments(ctx, "rescue", len(rescued))
	}
	observe.Logger(ctx).Debug("consolidation complete",
		"input", len(attributed),
		"groups", len(groups),
		"rescued", len(rescued),
		"output", len(out))
	return out
}

// sweep partitions sorted attributed segments into adjacent groups. A
// question never joins a group: it is dropped and closes the current run,
// so the next fragment starts a fresh group regardless of its gap to the
// question.
func (c *Consolidator) sweep(sorted []types.AttributedSegment) []group {
	var groups []group
	open := false
	for _, seg := range sorted {
		if c.detector.IsQuestion(seg.Text) {
			open = false
			continue
		}
		if open {
			last := &groups[len(groups)-1]
			if seg.GlobalIndex-last.end <= c.adjacency {
				last.members = append(last.members, seg)
				last.end = seg.GlobalIndex
				continue
			}
		}
		groups = append(groups, group{
			start:   seg.GlobalIndex,
			end:     seg.GlobalIndex,
			members: []types.AttributedSegment{seg},
		})
		open = true
	}
	return groups
}
