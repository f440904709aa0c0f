// Package openai provides an llm.Provider backed by the OpenAI chat
// completions API.
//
// This is the native client for the GPT family. It exists alongside the
// generic any-llm provider because attribution leans on the JSON
// response-format constraint, which this SDK exposes directly.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/seonjhang/gAIm-Systems/pkg/provider/llm"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// Provider calls the OpenAI API with a fixed model per instance.
type Provider struct {
	client oai.Client
	model  string
}

type settings struct {
	baseURL      string
	organization string
	timeout      time.Duration
}

// Option adjusts optional provider behaviour.
type Option func(*settings)

// WithBaseURL points the client at an OpenAI-compatible endpoint instead of
// the default API host.
func WithBaseURL(url string) Option {
	return func(s *settings) {
		s.baseURL = url
	}
}

// WithOrganization sets the OpenAI organization ID on every request.
func WithOrganization(org string) Option {
	return func(s *settings) {
		s.organization = org
	}
}

// WithTimeout bounds each HTTP request. Window classification applies its
// own per-call deadline on top of this.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// New builds a Provider for the given credentials and chat model. There is
// no default model; the caller names one.
func New(apiKey, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return &Provider{client: oai.NewClient(s.clientOptions(apiKey)...), model: model}, nil
}

func (s settings) clientOptions(apiKey string) []option.RequestOption {
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if s.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(s.baseURL))
	}
	if s.organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(s.organization))
	}
	if s.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: s.timeout}))
	}
	return reqOpts
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	params, err := p.params(req)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices in response")
	}

	return &llm.CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// CountTokens implements llm.Provider with the rough GPT-series rule of
// four characters per token plus a small per-message overhead. The count
// feeds the pre-dispatch context check, which only needs the right order
// of magnitude.
//
// TODO: switch to tiktoken-go if the context check ever needs per-model
// accuracy.
func (p *Provider) CountTokens(messages []types.Message) (int, error) {
	const (
		charsPerToken  = 4
		perMessageCost = 4 // role marker and separators
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

// capsTable maps model-name prefixes to published limits. Order matters:
// the most specific prefix comes first, so gpt-4o-mini is checked before
// gpt-4o and o1-mini before o1.
var capsTable = []struct {
	prefix string
	caps   types.ModelCapabilities
}{
	{"gpt-4o-mini", types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 16_384, SupportsJSONResponse: true}},
	{"gpt-4o", types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 16_384, SupportsJSONResponse: true}},
	{"gpt-4-turbo", types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 4_096, SupportsJSONResponse: true}},
	{"gpt-4", types.ModelCapabilities{ContextWindow: 8_192, MaxOutputTokens: 4_096, SupportsJSONResponse: true}},
	{"gpt-3.5-turbo", types.ModelCapabilities{ContextWindow: 16_385, MaxOutputTokens: 4_096, SupportsJSONResponse: true}},
	// o1-mini does not accept a response_format constraint.
	{"o1-mini", types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 65_536}},
	{"o1", types.ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 100_000, SupportsJSONResponse: true}},
	{"o3", types.ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 100_000, SupportsJSONResponse: true}},
}

// defaultCaps is assumed for models the table does not name, such as
// fine-tunes or models newer than this list.
var defaultCaps = types.ModelCapabilities{
	ContextWindow:        128_000,
	MaxOutputTokens:      4_096,
	SupportsJSONResponse: true,
}

func capsFor(model string) types.ModelCapabilities {
	lower := strings.ToLower(model)
	for _, entry := range capsTable {
		if strings.HasPrefix(lower, entry.prefix) {
			return entry.caps
		}
	}
	return defaultCaps
}

// params translates a CompletionRequest into SDK params. The system prompt,
// when present, always leads the message list.
func (p *Provider) params(req llm.CompletionRequest) (oai.ChatCompletionNewParams, error) {
	msgs := make([]oai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, oai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			msgs = append(msgs, oai.SystemMessage(m.Content))
		case "user":
			msgs = append(msgs, oai.UserMessage(m.Content))
		case "assistant":
			msgs = append(msgs, oai.AssistantMessage(m.Content))
		default:
			return oai.ChatCompletionNewParams{}, fmt.Errorf("openai: unknown message role %q", m.Role)
		}
	}

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: msgs,
	}
	if req.Temperature != 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}
	if req.JSONResponse {
		params.ResponseFormat = oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params, nil
}
