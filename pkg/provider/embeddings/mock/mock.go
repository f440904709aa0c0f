// Package mock provides a call-recording test double for the
// embeddings.Provider interface.
//
// Configure canned vectors up front and inspect the recorded texts after:
//
//	p := &mock.Provider{EmbedResult: []float32{0.1, 0.2}}
//	vec, _ := p.Embed(ctx, "We played our game")
//	// p.EmbedCalls[0] == "We played our game"
package mock

import (
	"context"
	"sync"

	"github.com/seonjhang/gAIm-Systems/pkg/provider/embeddings"
)

var _ embeddings.Provider = (*Provider)(nil)

// Provider implements embeddings.Provider with canned responses. The zero
// value answers every call with nil vectors. Safe for concurrent use; the
// response fields must be set before the first call.
type Provider struct {
	mu sync.Mutex

	// EmbedResult is returned by every Embed call.
	EmbedResult []float32

	// EmbedErr makes Embed fail.
	EmbedErr error

	// EmbedBatchResult is returned by every EmbedBatch call. When nil,
	// EmbedBatch returns one nil vector per input text.
	EmbedBatchResult [][]float32

	// EmbedBatchErr makes EmbedBatch fail.
	EmbedBatchErr error

	// DimensionsValue is returned by Dimensions.
	DimensionsValue int

	// ModelIDValue is returned by ModelID.
	ModelIDValue string

	// EmbedCalls records the text of every Embed call in order.
	EmbedCalls []string

	// EmbedBatchCalls records the texts of every EmbedBatch call in order.
	EmbedBatchCalls [][]string
}

// Embed records text and returns EmbedResult, EmbedErr.
func (p *Provider) Embed(_ context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EmbedCalls = append(p.EmbedCalls, text)
	return p.EmbedResult, p.EmbedErr
}

// EmbedBatch records a copy of texts and returns EmbedBatchResult,
// EmbedBatchErr.
func (p *Provider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EmbedBatchCalls = append(p.EmbedBatchCalls, append([]string(nil), texts...))
	if p.EmbedBatchErr != nil {
		return nil, p.EmbedBatchErr
	}
	if p.EmbedBatchResult != nil {
		return p.EmbedBatchResult, nil
	}
	return make([][]float32, len(texts)), nil
}

// Dimensions returns DimensionsValue.
func (p *Provider) Dimensions() int {
	return p.DimensionsValue
}

// ModelID returns ModelIDValue.
func (p *Provider) ModelID() string {
	return p.ModelIDValue
}
