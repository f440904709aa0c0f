package archive

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlPlayers = `
CREATE TABLE IF NOT EXISTS players (
    name        TEXT         PRIMARY KEY,
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

const ddlInterviews = `
CREATE TABLE IF NOT EXISTS interviews (
    id            UUID         PRIMARY KEY,
    player_name   TEXT         NOT NULL REFERENCES players (name) ON DELETE CASCADE,
    video_id      TEXT         NOT NULL,
    title         TEXT         NOT NULL DEFAULT '',
    url           TEXT         NOT NULL DEFAULT '',
    channel       TEXT         NOT NULL DEFAULT '',
    published_at  TIMESTAMPTZ,
    score         INTEGER      NOT NULL DEFAULT 0,
    run_id        UUID,
    collected_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
    UNIQUE (player_name, video_id)
);

CREATE INDEX IF NOT EXISTS idx_interviews_player
    ON interviews (player_name, collected_at DESC);

CREATE INDEX IF NOT EXISTS idx_interviews_run_id
    ON interviews (run_id);
`

// ddlSpeechDocuments returns the speech DDL with the embedding dimension
// substituted. The vector dimension is baked into the column type at schema
// creation time.
func ddlSpeechDocuments(embeddingDimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS speech_documents (
    id                   UUID         PRIMARY KEY,
    interview_id         UUID         NOT NULL REFERENCES interviews (id) ON DELETE CASCADE,
    text                 TEXT         NOT NULL,
    word_count           INTEGER      NOT NULL DEFAULT 0,
    original_word_count  INTEGER      NOT NULL DEFAULT 0,
    segment_count        INTEGER      NOT NULL DEFAULT 0,
    model                TEXT         NOT NULL DEFAULT '',
    embedding            vector(%d),
    extracted_at         TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_speech_documents_interview
    ON speech_documents (interview_id);

CREATE INDEX IF NOT EXISTS idx_speech_documents_embedding
    ON speech_documents USING hnsw (embedding vector_cosine_ops);
`, embeddingDimensions)
}

// Migrate creates or ensures all required database tables and extensions exist.
// It is idempotent (CREATE TABLE IF NOT EXISTS / CREATE INDEX IF NOT EXISTS) and
// safe to call on every application start.
//
// embeddingDimensions must match the vector model configured for your deployment
// (e.g., 1536 for OpenAI text-embedding-3-small, 768 for nomic-embed-text).
// Changing this value after the first migration requires a manual schema update.
func Migrate(ctx context.Context, pool *pgxpool.Pool, embeddingDimensions int) error {
	statements := []string{
		ddlPlayers,
		ddlInterviews,
		ddlSpeechDocuments(embeddingDimensions),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("archive migrate: %w", err)
		}
	}
	return nil
}
