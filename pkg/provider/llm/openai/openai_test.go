package openai

import (
	"testing"

	"github.com/seonjhang/gAIm-Systems/pkg/provider/llm"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

func TestCapsFor(t *testing.T) {
	mini := types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 16_384, SupportsJSONResponse: true}

	tests := []struct {
		model string
		want  types.ModelCapabilities
	}{
		{"gpt-4o-mini", mini},
		{"gpt-4o-mini-2024-07-18", mini},
		{"GPT-4O-MINI", mini},
		{"gpt-4o", types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 16_384, SupportsJSONResponse: true}},
		{"gpt-4-turbo", types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 4_096, SupportsJSONResponse: true}},
		{"gpt-4", types.ModelCapabilities{ContextWindow: 8_192, MaxOutputTokens: 4_096, SupportsJSONResponse: true}},
		{"gpt-3.5-turbo", types.ModelCapabilities{ContextWindow: 16_385, MaxOutputTokens: 4_096, SupportsJSONResponse: true}},
		{"o1-mini", types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 65_536}},
		{"o1", types.ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 100_000, SupportsJSONResponse: true}},
		{"o3-mini", types.ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 100_000, SupportsJSONResponse: true}},
		{"some-future-model", defaultCaps},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := capsFor(tt.model); got != tt.want {
				t.Errorf("capsFor(%q) = %+v, want %+v", tt.model, got, tt.want)
			}
		})
	}
}

func TestCapabilitiesUsesModel(t *testing.T) {
	p := &Provider{model: "o1-mini"}
	if caps := p.Capabilities(); caps.SupportsJSONResponse {
		t.Error("o1-mini must not report JSON response support")
	}
}

func TestCountTokens(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}

	tests := []struct {
		name     string
		messages []types.Message
		want     int
	}{
		{"empty content still costs the role overhead", []types.Message{{Role: "user"}}, 4},
		{"four characters make one token", []types.Message{{Role: "user", Content: "abcd"}}, 5},
		{"partial chunks round up", []types.Message{{Role: "user", Content: "abcde"}}, 6},
		{
			"messages accumulate",
			[]types.Message{
				{Role: "system", Content: "You label interview transcripts."},
				{Role: "user", Content: "Who scored the overtime winner?"},
			},
			24,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.CountTokens(tt.messages)
			if err != nil {
				t.Fatalf("CountTokens: %v", err)
			}
			if got != tt.want {
				t.Errorf("CountTokens = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParamsSystemPromptLeads(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}
	params, err := p.params(llm.CompletionRequest{
		SystemPrompt: "You attribute interview speech.",
		Messages:     []types.Message{{Role: "user", Content: "Label these lines."}},
		Temperature:  0.2,
		MaxTokens:    500,
	})
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if string(params.Model) != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", params.Model)
	}
	if len(params.Messages) != 2 {
		t.Fatalf("got %d messages, want system + user", len(params.Messages))
	}
	if params.Messages[0].OfSystem == nil {
		t.Error("first message should carry the system prompt")
	}
	if params.Messages[1].OfUser == nil {
		t.Error("second message should be the user turn")
	}
	if !params.Temperature.Valid() || params.Temperature.Value != 0.2 {
		t.Errorf("temperature = %v, want 0.2", params.Temperature)
	}
	if !params.MaxCompletionTokens.Valid() || params.MaxCompletionTokens.Value != 500 {
		t.Errorf("max completion tokens = %v, want 500", params.MaxCompletionTokens)
	}
}

func TestParamsConvertsEveryRole(t *testing.T) {
	p := &Provider{model: "gpt-4o"}
	params, err := p.params(llm.CompletionRequest{
		Messages: []types.Message{
			{Role: "system", Content: "Stay terse."},
			{Role: "user", Content: "Who is speaking here?"},
			{Role: "assistant", Content: "The interviewer."},
		},
	})
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if params.Messages[0].OfSystem == nil {
		t.Error("expected a system message at position 0")
	}
	if params.Messages[1].OfUser == nil {
		t.Error("expected a user message at position 1")
	}
	if params.Messages[2].OfAssistant == nil {
		t.Error("expected an assistant message at position 2")
	}
}

func TestParamsRejectsUnknownRole(t *testing.T) {
	p := &Provider{model: "gpt-4o"}
	_, err := p.params(llm.CompletionRequest{
		Messages: []types.Message{{Role: "tool", Content: "result"}},
	})
	if err == nil {
		t.Fatal("expected an error for an unknown role")
	}
}

func TestParamsJSONResponseFormat(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}

	params, err := p.params(llm.CompletionRequest{
		Messages:     []types.Message{{Role: "user", Content: "classify"}},
		JSONResponse: true,
	})
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if params.ResponseFormat.OfJSONObject == nil {
		t.Error("JSONResponse should request the json_object response format")
	}

	params, err = p.params(llm.CompletionRequest{
		Messages: []types.Message{{Role: "user", Content: "classify"}},
	})
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if params.ResponseFormat.OfJSONObject != nil {
		t.Error("plain requests must not force a response format")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New("", "gpt-4o"); err == nil {
		t.Error("expected an error for an empty API key")
	}
	if _, err := New("sk-test", ""); err == nil {
		t.Error("expected an error for an empty model")
	}
}

func TestNewAcceptsOptions(t *testing.T) {
	p, err := New("sk-test", "gpt-4o",
		WithBaseURL("https://proxy.internal/v1"),
		WithOrganization("org-123"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.model != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", p.model)
	}
}
