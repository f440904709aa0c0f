// Package archive persists collected interviews and attributed speech in
// PostgreSQL.
//
// The schema is three tables: players, interviews, and speech_documents,
// with an optional pgvector embedding column on speech_documents backing
// "find answers like this one" cosine searches. [Migrate] installs the
// pgvector extension and all tables idempotently on every start.
//
// Usage:
//
//	store, err := archive.NewStore(ctx, dsn, 1536)
//	if err != nil { … }
//	defer store.Close()
//
//	_ = store.UpsertPlayer(ctx, "Connor McDavid")
//	id, _ := store.RecordInterview(ctx, interview)
//	_, _ = store.RecordSpeech(ctx, speech, embedding)
//
// All operations are safe for concurrent use.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

// Interview is one collected interview row.
type Interview struct {
	// ID is the row's primary key. Zero on input means RecordInterview
	// assigns one.
	ID uuid.UUID

	// PlayerName is the target speaker the interview was collected for.
	PlayerName string

	// VideoID is the platform video identifier. (PlayerName, VideoID) is
	// unique; re-recording the same video updates the existing row.
	VideoID string

	// Title, URL and Channel carry the discovery metadata.
	Title   string
	URL     string
	Channel string

	// PublishedAt is the upload time when known; zero stores NULL.
	PublishedAt time.Time

	// Score is the discovery ranking score at collection time.
	Score int

	// RunID groups interviews collected in the same pipeline run; zero
	// stores NULL.
	RunID uuid.UUID

	// CollectedAt is when the interview was recorded.
	CollectedAt time.Time
}

// SpeechRecord is one attributed-speech row.
type SpeechRecord struct {
	// ID is the row's primary key. Zero on input means RecordSpeech
	// assigns one.
	ID uuid.UUID

	// InterviewID references the interview the speech was extracted from.
	InterviewID uuid.UUID

	// Text is the consolidated attributed speech.
	Text string

	// WordCount counts Text's whitespace tokens; OriginalWordCount is the
	// unfiltered transcript's count, kept so reduction can be reported.
	WordCount         int
	OriginalWordCount int

	// SegmentCount is how many transcript segments the speech consolidates.
	SegmentCount int

	// Model names the classification model, empty for heuristic-only runs.
	Model string

	// ExtractedAt is when the attribution ran.
	ExtractedAt time.Time
}

// SimilarSpeech is one cosine-search hit: a speech row joined with its
// interview context and the vector distance to the query.
type SimilarSpeech struct {
	SpeechRecord

	// PlayerName and VideoTitle come from the joined interview row.
	PlayerName string
	VideoTitle string

	// Distance is the cosine distance to the query embedding; lower is
	// more similar.
	Distance float64
}

// Store is the PostgreSQL-backed archive. All methods are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the PostgreSQL database at dsn, registers pgvector
// types on every connection, and runs [Migrate].
//
// embeddingDimensions must match the embedding provider configured for the
// deployment (e.g., 1536 for OpenAI text-embedding-3-small). Changing it
// after the first migration requires a manual schema change.
func NewStore(ctx context.Context, dsn string, embeddingDimensions int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: parse dsn: %w", err)
	}

	// Register pgvector types on every new connection so the embedding
	// column can be scanned into and inserted from pgvector.Vector values.
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("archive: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive: ping: %w", err)
	}

	if err := Migrate(ctx, pool, embeddingDimensions); err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies the archive is still reachable. Readiness probes on long
// collection runs call this.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
