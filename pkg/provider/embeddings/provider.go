// Package embeddings defines the provider abstraction for text embedding.
//
// The archive stores one vector per attributed speech document and answers
// "find answers like this one" with a cosine search over them. Everything
// vector-shaped goes through [Provider]: collect embeds each document as it
// records it, the index backfill embeds saved artifacts in batches, and the
// similar query embeds its query text. Concrete implementations live in
// subpackages (openai, ollama) plus a mock for tests.
package embeddings

import "context"

// Provider turns text into fixed-width float32 vectors.
//
// Every vector one Provider instance returns has the same width, reported by
// Dimensions. Vectors from different instances are only comparable when both
// wrap the same model; the archive enforces one width per database, so a
// model switch means re-embedding through the index backfill.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Embed returns the vector for a single text. Text goes to the model
	// verbatim; any model-specific prefixing ("query: " and the like) is the
	// caller's to apply.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text from a single backend call,
	// aligned with texts by index. It fails as a whole: no partial results
	// alongside an error.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions reports the vector width this provider produces, or 0 when
	// the width is not yet known (a local model that has not been probed).
	Dimensions() int

	// ModelID names the underlying model for logs and configuration checks.
	ModelID() string
}
