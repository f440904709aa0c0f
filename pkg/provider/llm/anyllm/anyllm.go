// Package anyllm adapts github.com/mozilla-ai/any-llm-go to the llm.Provider
// interface.
//
// One wrapper covers every chat backend the configuration can name besides
// the native openai client: anthropic, gemini, deepseek, mistral and groq in
// the cloud, ollama, llamacpp and llamafile locally. any-llm exposes no
// portable response-format parameter, so CompletionRequest.JSONResponse is
// ignored here and prompts built for this provider spell the format out.
package anyllm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/llamacpp"
	"github.com/mozilla-ai/any-llm-go/providers/llamafile"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/seonjhang/gAIm-Systems/pkg/provider/llm"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// backendNames lists every provider name New accepts.
var backendNames = []string{
	"anthropic", "deepseek", "gemini", "groq", "llamacpp",
	"llamafile", "mistral", "ollama", "openai",
}

// Provider bridges one any-llm backend to llm.Provider.
type Provider struct {
	backend anyllmlib.Provider
	model   string
}

// New builds a Provider for the named backend and model. Credentials come
// from opts (anyllmlib.WithAPIKey, anyllmlib.WithBaseURL) or, when absent,
// from the backend's usual environment variable, OPENAI_API_KEY and
// ANTHROPIC_API_KEY style.
func New(providerName, model string, opts ...anyllmlib.Option) (*Provider, error) {
	if providerName == "" {
		return nil, fmt.Errorf("anyllm: providerName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := newBackend(strings.ToLower(providerName), opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: %q: %w", providerName, err)
	}
	return &Provider{backend: backend, model: model}, nil
}

func newBackend(name string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch name {
	case "anthropic":
		return anthropic.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "groq":
		return groq.New(opts...)
	case "llamacpp":
		return llamacpp.New(opts...)
	case "llamafile":
		return llamafile.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "openai":
		return anyllmoai.New(opts...)
	default:
		return nil, errors.New("unknown provider, supported: " + strings.Join(backendNames, ", "))
	}
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	resp, err := p.backend.Completion(ctx, p.params(req))
	if err != nil {
		return nil, fmt.Errorf("anyllm: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("anyllm: empty choices in response")
	}

	out := &llm.CompletionResponse{Content: resp.Choices[0].Message.ContentString()}
	if resp.Usage != nil {
		out.Usage = llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out, nil
}

// CountTokens implements llm.Provider with the same four characters per
// token estimate the native openai client uses. Vendors tokenize
// differently, but the pre-dispatch context check only needs a coarse
// number.
func (p *Provider) CountTokens(messages []types.Message) (int, error) {
	const (
		charsPerToken  = 4
		perMessageCost = 4
	)

	total := 0
	for _, m := range messages {
		total += (len(m.Content) + charsPerToken - 1) / charsPerToken
		total += perMessageCost
	}
	return total, nil
}

// Capabilities implements llm.Provider.
func (p *Provider) Capabilities() types.ModelCapabilities {
	return capsFor(p.model)
}

// params converts req for the any-llm API. The system prompt, when present,
// leads the message list; JSONResponse has no portable equivalent and is
// dropped.
func (p *Provider) params(req llm.CompletionRequest) anyllmlib.CompletionParams {
	msgs := make([]anyllmlib.Message, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, anyllmlib.Message{Role: anyllmlib.RoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, anyllmlib.Message{Role: m.Role, Content: m.Content})
	}

	params := anyllmlib.CompletionParams{Model: p.model, Messages: msgs}
	if req.Temperature != 0 {
		t := req.Temperature
		params.Temperature = &t
	}
	if req.MaxTokens > 0 {
		n := req.MaxTokens
		params.MaxTokens = &n
	}
	return params
}

type capsRule struct {
	match func(string) bool
	caps  types.ModelCapabilities
}

func prefix(s string) func(string) bool {
	return func(model string) bool { return strings.HasPrefix(model, s) }
}

func contains(s string) func(string) bool {
	return func(model string) bool { return strings.Contains(model, s) }
}

// capsRules holds published limits for the model families this wrapper gets
// pointed at in practice. First match wins, so the more specific rule sits
// above its family: gpt-4o-mini above gpt-4o, o1-mini above o1.
// SupportsJSONResponse describes the model itself; this wrapper cannot
// forward the constraint either way, so the flag only informs callers.
var capsRules = []capsRule{
	{prefix("gpt-4o-mini"), types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 16_384, SupportsJSONResponse: true}},
	{prefix("gpt-4o"), types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 16_384, SupportsJSONResponse: true}},
	{prefix("gpt-4-turbo"), types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 4_096, SupportsJSONResponse: true}},
	{prefix("gpt-4"), types.ModelCapabilities{ContextWindow: 8_192, MaxOutputTokens: 4_096}},
	{prefix("gpt-3.5-turbo"), types.ModelCapabilities{ContextWindow: 16_385, MaxOutputTokens: 4_096, SupportsJSONResponse: true}},
	{prefix("o1-mini"), types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 65_536}},
	{prefix("o1"), types.ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 100_000}},
	{prefix("o3"), types.ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 100_000}},
	{prefix("claude"), types.ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 8_192}},
	{contains("gemini-1.5-pro"), types.ModelCapabilities{ContextWindow: 2_097_152, MaxOutputTokens: 8_192}},
	{prefix("gemini"), types.ModelCapabilities{ContextWindow: 1_048_576, MaxOutputTokens: 8_192}},
}

// defaultCaps is reported for model names no rule matches.
var defaultCaps = types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 4_096}

func capsFor(model string) types.ModelCapabilities {
	lower := strings.ToLower(model)
	for _, rule := range capsRules {
		if rule.match(lower) {
			return rule.caps
		}
	}
	return defaultCaps
}
