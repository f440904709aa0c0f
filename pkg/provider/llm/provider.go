// Package llm defines the provider abstraction for the external
// classification capability.
//
// The attribution engine never talks to a model vendor directly: it builds a
// [CompletionRequest], hands it to a [Provider], and parses the reply itself.
// Concrete implementations live in subpackages (anyllm, openai) plus a mock
// for tests. A provider failure is never fatal to a transcript, the engine
// degrades the affected window to heuristics, so implementations should
// return errors rather than retry internally.
package llm

import (
	"context"

	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// Provider is the interface all LLM classification providers implement.
//
// Implementations must be safe for concurrent use: the collection pipeline
// runs one worker per transcript against a shared provider.
type Provider interface {
	// Complete performs a single blocking completion and returns the full
	// response. The call must respect ctx cancellation and any per-call
	// deadline the caller set; there is no retry contract.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// CountTokens estimates the token count of the given messages for this
	// provider's model. Used to keep window prompts inside the context limit.
	CountTokens(messages []types.Message) (int, error)

	// Capabilities returns the capabilities of the underlying model.
	Capabilities() types.ModelCapabilities
}

// CompletionRequest is a request for an LLM completion.
type CompletionRequest struct {
	// Messages is the conversation history, oldest first.
	Messages []types.Message

	// SystemPrompt is prepended as a system message when non-empty.
	SystemPrompt string

	// Temperature controls sampling randomness (0.0–2.0). Zero means the
	// provider default.
	Temperature float64

	// MaxTokens caps the completion length. Zero means the provider default.
	MaxTokens int

	// JSONResponse asks the provider to constrain output to a JSON object.
	// Providers whose model cannot honour it ignore the flag; the caller's
	// reply parsing must not depend on it.
	JSONResponse bool
}

// CompletionResponse is the full result of a completion call.
type CompletionResponse struct {
	// Content is the generated text.
	Content string

	// Usage reports token consumption for the call.
	Usage Usage
}

// Usage holds token accounting information returned by the LLM backend.
// Counts are in the model's native token unit and may differ between
// providers for the same textual content.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input messages
	// and system prompt.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens. Some providers return
	// it directly rather than computing it from the parts.
	TotalTokens int
}
