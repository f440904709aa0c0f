package main

import (
	"fmt"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/seonjhang/gAIm-Systems/internal/config"
	"github.com/seonjhang/gAIm-Systems/pkg/provider/embeddings"
	ollamaembed "github.com/seonjhang/gAIm-Systems/pkg/provider/embeddings/ollama"
	oaembed "github.com/seonjhang/gAIm-Systems/pkg/provider/embeddings/openai"
	"github.com/seonjhang/gAIm-Systems/pkg/provider/llm"
	"github.com/seonjhang/gAIm-Systems/pkg/provider/llm/anyllm"
	oallm "github.com/seonjhang/gAIm-Systems/pkg/provider/llm/openai"
)

// registerBuiltinProviders wires the provider factories that ship with
// gaimsys into reg. Each factory receives a [config.ProviderEntry] and
// constructs the provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// openai uses the native client: classification relies on its JSON
	// response-format constraint.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []oallm.Option
		if entry.BaseURL != "" {
			opts = append(opts, oallm.WithBaseURL(entry.BaseURL))
		}
		if org := optString(entry.Options, "organization"); org != "" {
			opts = append(opts, oallm.WithOrganization(org))
		}
		return oallm.New(entry.APIKey, entry.Model, opts...)
	})

	// The remaining hosted vendors share one pattern: optional APIKey plus
	// optional BaseURL, routed through any-llm.
	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an
	// API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	reg.RegisterEmbeddings("openai", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		var opts []oaembed.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaembed.WithBaseURL(entry.BaseURL))
		}
		if org := optString(entry.Options, "organization"); org != "" {
			opts = append(opts, oaembed.WithOrganization(org))
		}
		return oaembed.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterEmbeddings("ollama", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		var opts []ollamaembed.Option
		// A width the table does not know would otherwise cost a probe
		// request on the first Dimensions call.
		if dims := optInt(entry.Options, "dimensions"); dims > 0 {
			opts = append(opts, ollamaembed.WithDimensions(dims))
		}
		return ollamaembed.New(entry.BaseURL, entry.Model, opts...)
	})
}

// checkEmbeddingDimensions catches a model/schema mismatch before any rows
// are written: a vector whose width differs from the archive's column would
// fail on insert, after the interview row was already committed. Dimensions
// can legitimately report 0 (a local model not yet probed), in which case the
// mismatch surfaces on insert instead.
func checkEmbeddingDimensions(cfg *config.Config, p embeddings.Provider) error {
	if p == nil || cfg.Archive.EmbeddingDimensions <= 0 {
		return nil
	}
	if dims := p.Dimensions(); dims > 0 && dims != cfg.Archive.EmbeddingDimensions {
		return fmt.Errorf("embeddings model %s produces %d-dimensional vectors, archive.embedding_dimensions is %d",
			p.ModelID(), dims, cfg.Archive.EmbeddingDimensions)
	}
	return nil
}

// optString extracts a string value from a provider Options map. Returns ""
// if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	s, _ := opts[key].(string)
	return s
}

// optInt extracts an integer from a provider Options map, tolerating the
// numeric types YAML decoding produces. Returns 0 when absent.
func optInt(opts map[string]any, key string) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
