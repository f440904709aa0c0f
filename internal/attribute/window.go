package attribute

import "fmt"

// Span is a half-open [Start, End) range of positions in a segment sequence.
type Span struct {
	Start int
	End   int
}

// Len returns the number of positions the span covers.
func (s Span) Len() int { return s.End - s.Start }

// Windows computes the classification window spans for a sequence of total
// segments: windows of size positions advancing by size-overlap, with the
// last window clipped to the sequence end. It is a pure function of its
// arguments, so window boundaries can be recomputed for any transcript
// without rebuilding pipeline state.
//
// Every position in [0, total) is covered by at least one span, and
// consecutive spans share exactly overlap positions except possibly the
// last, which may share more when clipping shortens it.
//
// A non-positive total yields nil. size must be positive and overlap must
// satisfy 0 <= overlap < size.
func Windows(total, size, overlap int) ([]Span, error) {
	if size <= 0 {
		return nil, fmt.Errorf("attribute: window size %d is not positive", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("attribute: overlap %d outside [0, %d)", overlap, size)
	}
	if total <= 0 {
		return nil, nil
	}

	stride := size - overlap
	var spans []Span
	for start := 0; ; start += stride {
		end := start + size
		if end > total {
			end = total
		}
		spans = append(spans, Span{Start: start, End: end})
		if end == total {
			return spans, nil
		}
	}
}
