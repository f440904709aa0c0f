// Package ollama provides an embeddings provider backed by a local Ollama
// server.
//
// Ollama serves local embedding models (nomic-embed-text, mxbai-embed-large,
// all-minilm) over a small JSON API. There is no official Go SDK, so this
// client speaks the /api/embed endpoint directly over net/http.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/seonjhang/gAIm-Systems/pkg/provider/embeddings"
)

// DefaultBaseURL is where a default Ollama install listens.
const DefaultBaseURL = "http://localhost:11434"

var _ embeddings.Provider = (*Provider)(nil)

// Provider implements embeddings.Provider against an Ollama server.
//
// The vector width comes from, in order: the [WithDimensions] option, the
// built-in width table for recognised model names, and finally one probe
// request issued on the first Dimensions call and cached. While the width is
// unknown, Dimensions reports 0.
type Provider struct {
	baseURL string
	model   string
	client  *http.Client

	// width is written at construction or inside probeOnce, never both.
	width     int
	probeOnce sync.Once
}

// settings collects the optional knobs Options set.
type settings struct {
	timeout time.Duration
	width   int
}

// Option adjusts optional client behaviour.
type Option func(*settings)

// WithTimeout sets a per-request HTTP timeout. Zero or negative means no
// timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithDimensions pre-sets the vector width, skipping both the width table
// and the probe request an unknown model would otherwise trigger.
func WithDimensions(width int) Option {
	return func(s *settings) {
		s.width = width
	}
}

// New builds a Provider for the Ollama server at baseURL, empty meaning
// [DefaultBaseURL]. The model name is required; Ollama has no default model.
func New(baseURL, model string, opts ...Option) (*Provider, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama embeddings: model must not be empty")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	client := &http.Client{}
	if s.timeout > 0 {
		client.Timeout = s.timeout
	}
	width := s.width
	if width == 0 {
		width = widthFor(model)
	}
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
		width:   width,
	}, nil
}

// Embed implements embeddings.Provider. Text goes to the model verbatim; any
// prefix the model expects ("query: " for nomic-embed-text retrieval) is the
// caller's to apply.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings: embed: %w", err)
	}
	return vecs[0], nil
}

// EmbedBatch implements embeddings.Provider. Ollama returns vectors in input
// order; a response of the wrong length is an error, not truncated.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := p.embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings: embed batch: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("ollama embeddings: got %d embeddings for %d texts", len(vecs), len(texts))
	}
	return vecs, nil
}

// Dimensions implements embeddings.Provider. For models the width table does
// not name, it embeds one probe text against the live server and caches the
// measured width. A failed probe is not retried; Dimensions stays 0.
func (p *Provider) Dimensions() int {
	p.probeOnce.Do(func() {
		if p.width != 0 {
			return
		}
		if vecs, err := p.embed(context.Background(), []string{"width probe"}); err == nil {
			p.width = len(vecs[0])
		}
	})
	return p.width
}

// ModelID implements embeddings.Provider.
func (p *Provider) ModelID() string {
	return p.model
}

// apiRequest is the /api/embed request body.
type apiRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// apiResponse is the subset of the /api/embed response the provider reads.
type apiResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// embed posts texts to /api/embed and returns the raw vectors. A nil error
// implies at least one vector.
func (p *Provider) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(apiRequest{Model: p.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, errorSnippet(resp.Body))
	}
	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings in response")
	}
	return out.Embeddings, nil
}

// errorSnippet reads a short prefix of an error body for the status message.
func errorSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	if s := strings.TrimSpace(string(b)); s != "" {
		return s
	}
	return "no body"
}

// modelWidths maps model-name fragments to their vector width. Models not
// named here are probed on the first Dimensions call.
var modelWidths = []struct {
	fragment string
	width    int
}{
	{"nomic-embed-text", 768},
	{"mxbai-embed-large", 1024},
	{"all-minilm", 384},
}

func widthFor(model string) int {
	lower := strings.ToLower(model)
	for _, mw := range modelWidths {
		if strings.Contains(lower, mw.fragment) {
			return mw.width
		}
	}
	return 0
}
