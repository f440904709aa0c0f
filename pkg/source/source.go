// Package source defines where interview transcripts come from.
//
// A [Source] resolves a video ID to an ordered [types.TranscriptDocument];
// the attribution engine never cares whether the transcript was fetched from
// a caption API, read from a saved artifact, or synthesized in a test.
// Implementations live in subpackages (jsonfile, mock).
//
// Every implementation must be safe for concurrent use.
package source

import (
	"context"
	"errors"

	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// ErrNotFound is returned when a source has no transcript for the requested
// video ID.
var ErrNotFound = errors.New("source: transcript not found")

// Source supplies transcripts for attribution.
type Source interface {
	// Transcript returns the transcript document for videoID.
	// Segment GlobalIndex values are 0..n−1 in source order.
	// Returns an error wrapping [ErrNotFound] when the source has no
	// transcript for videoID.
	Transcript(ctx context.Context, videoID string) (*types.TranscriptDocument, error)
}

// Lister is implemented by sources that can enumerate the video IDs they
// hold. Returns an empty (non-nil) slice when the source is empty.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}
