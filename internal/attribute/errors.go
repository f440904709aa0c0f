package attribute

import "fmt"

// Kind names the condition classes the attribution pipeline distinguishes.
// Almost all of them degrade instead of failing: only [KindInputShape] is
// ever returned to the caller as a hard error.
type Kind int

const (
	// KindNone marks a window resolved from a usable provider response.
	KindNone Kind = iota

	// KindClassificationUnavailable marks a window whose provider call
	// errored or that had no provider at all. The window degrades to the
	// local heuristics; the transcript continues.
	KindClassificationUnavailable

	// KindMalformedResponse marks a window whose provider response could not
	// be parsed even defensively. The window contributes an empty index set;
	// the transcript continues.
	KindMalformedResponse

	// KindEmptyInput names the empty-transcript condition. It is never an
	// error: callers receive an empty result with zero counts.
	KindEmptyInput

	// KindInvalidIndex names an out-of-bounds index in a provider response.
	// Such indices are dropped silently (debug-logged at most).
	KindInvalidIndex

	// KindInputShape marks input that is not a valid ordered sequence, such
	// as non-ascending global indices or an empty target name. This is the
	// only condition that fails fast to the caller.
	KindInputShape
)

// String returns the snake_case tag for k, suitable for logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindClassificationUnavailable:
		return "classification_unavailable"
	case KindMalformedResponse:
		return "malformed_response"
	case KindEmptyInput:
		return "empty_input"
	case KindInvalidIndex:
		return "invalid_index"
	case KindInputShape:
		return "input_shape"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a pipeline failure tagged with the condition class it represents,
// so tests and callers can assert on the kind rather than on message text.
type Error struct {
	// Kind is the condition class.
	Kind Kind

	// Op is the operation that failed, e.g. "classify".
	Op string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("attribute: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("attribute: %s: %s", e.Op, e.Kind)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }
