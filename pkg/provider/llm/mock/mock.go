// Package mock provides a test double for the llm.Provider interface.
//
// Provider feeds controlled completions to the attribution engine and
// records what it was asked, so tests can assert on the requests without a
// live backend:
//
//	p := &mock.Provider{
//	    CompleteResponse: &llm.CompletionResponse{Content: `{"indices": [1, 3]}`},
//	}
//	... run the classifier ...
//	if p.CompleteCalls[0].JSONResponse { ... }
//
// The zero value answers every call with zero values and nil errors. Safe
// for concurrent use; the response fields must be set before the first call.
package mock

import (
	"context"
	"sync"

	"github.com/seonjhang/gAIm-Systems/pkg/provider/llm"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// Provider is a configurable llm.Provider.
type Provider struct {
	mu sync.Mutex

	// CompleteFunc, when set, fully handles Complete calls. It takes
	// precedence over CompleteResponses and CompleteResponse.
	CompleteFunc func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)

	// CompleteResponses is a queue consumed one response per Complete call,
	// for tests that drive several windows through one provider. When the
	// queue is exhausted Complete falls back to CompleteResponse.
	CompleteResponses []*llm.CompletionResponse

	// CompleteResponse and CompleteErr are what Complete returns once
	// CompleteFunc and the queue are out of the picture.
	CompleteResponse *llm.CompletionResponse
	CompleteErr      error

	// TokenCount and CountTokensErr are what CountTokens returns.
	TokenCount     int
	CountTokensErr error

	// ModelCapabilities is returned by Capabilities. The zero value reports
	// no context window, which disables the pre-dispatch size check.
	ModelCapabilities types.ModelCapabilities

	// CompleteCalls records the request of every Complete call in order.
	CompleteCalls []llm.CompletionRequest

	// CountTokensCalls records the messages of every CountTokens call.
	CountTokensCalls [][]types.Message
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.CompleteCalls = append(p.CompleteCalls, req)
	fn := p.CompleteFunc
	resp, err := p.CompleteResponse, p.CompleteErr
	if fn == nil && len(p.CompleteResponses) > 0 {
		resp = p.CompleteResponses[0]
		p.CompleteResponses = p.CompleteResponses[1:]
	}
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return resp, err
}

// CountTokens implements llm.Provider.
func (p *Provider) CountTokens(messages []types.Message) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CountTokensCalls = append(p.CountTokensCalls, append([]types.Message(nil), messages...))
	return p.TokenCount, p.CountTokensErr
}

// Capabilities implements llm.Provider.
func (p *Provider) Capabilities() types.ModelCapabilities {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ModelCapabilities
}

var _ llm.Provider = (*Provider)(nil)
