// Package mock provides an in-memory test double for [source.Source].
//
// The mock records every method call for assertion in tests and exposes
// exported fields that control what it returns. It is safe for concurrent
// use via an internal [sync.Mutex].
//
// Typical usage:
//
//	src := &mock.Source{}
//	src.Documents = map[string]*types.TranscriptDocument{
//	    "abc123": {VideoID: "abc123", Title: "Post-game"},
//	}
//
//	// inject src into the system under test …
//
//	if got := src.CallCount("Transcript"); got != 1 {
//	    t.Errorf("expected 1 Transcript call, got %d", got)
//	}
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/seonjhang/gAIm-Systems/pkg/source"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// Call records the name and arguments of a single method invocation.
type Call struct {
	// Method is the name of the interface method that was called.
	Method string

	// Args holds the non-context arguments passed to the method, in order.
	Args []any
}

// Source is a configurable test double for [source.Source] and
// [source.Lister].
type Source struct {
	mu sync.Mutex

	// calls records every method invocation in order.
	calls []Call

	// Documents maps video IDs to the documents [Source.Transcript] returns.
	// IDs not present yield an error wrapping [source.ErrNotFound].
	Documents map[string]*types.TranscriptDocument

	// TranscriptErr is returned by [Source.Transcript] when non-nil,
	// before Documents is consulted.
	TranscriptErr error

	// ListErr is returned by [Source.List] when non-nil.
	ListErr error
}

var _ source.Source = (*Source)(nil)
var _ source.Lister = (*Source)(nil)

// Transcript returns the configured document for videoID.
func (m *Source) Transcript(_ context.Context, videoID string) (*types.TranscriptDocument, error) {
	m.record("Transcript", videoID)
	if m.TranscriptErr != nil {
		return nil, m.TranscriptErr
	}
	doc, ok := m.Documents[videoID]
	if !ok {
		return nil, fmt.Errorf("mock: video %q: %w", videoID, source.ErrNotFound)
	}
	return doc, nil
}

// List returns the configured document IDs in sorted order.
func (m *Source) List(_ context.Context) ([]string, error) {
	m.record("List")
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	ids := make([]string, 0, len(m.Documents))
	for id := range m.Documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Calls returns a copy of all recorded method invocations.
func (m *Source) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times the named method was invoked.
func (m *Source) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (m *Source) record(method string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: method, Args: args})
}
