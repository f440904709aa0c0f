package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"
)

// UpsertPlayer ensures a player row exists. Recording the same name twice is
// a no-op.
func (s *Store) UpsertPlayer(ctx context.Context, name string) error {
	const q = `
		INSERT INTO players (name)
		VALUES ($1)
		ON CONFLICT (name) DO NOTHING`

	if _, err := s.pool.Exec(ctx, q, name); err != nil {
		return fmt.Errorf("archive: upsert player: %w", err)
	}
	return nil
}

// RecordInterview upserts one interview keyed on (player_name, video_id) and
// returns the row's ID. Re-recording a video the archive already holds for
// that player refreshes the metadata but keeps the original ID, so speech
// rows referencing it stay attached.
//
// A zero iv.ID is assigned a fresh UUID; zero iv.PublishedAt, iv.RunID and
// iv.CollectedAt store NULL, NULL and now() respectively. The player row must
// exist; call [Store.UpsertPlayer] first.
func (s *Store) RecordInterview(ctx context.Context, iv Interview) (uuid.UUID, error) {
	if iv.ID == uuid.Nil {
		iv.ID = uuid.New()
	}

	const q = `
		INSERT INTO interviews
		    (id, player_name, video_id, title, url, channel, published_at, score, run_id, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()))
		ON CONFLICT (player_name, video_id) DO UPDATE SET
		    title        = EXCLUDED.title,
		    url          = EXCLUDED.url,
		    channel      = EXCLUDED.channel,
		    published_at = EXCLUDED.published_at,
		    score        = EXCLUDED.score,
		    run_id       = EXCLUDED.run_id,
		    collected_at = EXCLUDED.collected_at
		RETURNING id`

	var id uuid.UUID
	err := s.pool.QueryRow(ctx, q,
		iv.ID,
		iv.PlayerName,
		iv.VideoID,
		iv.Title,
		iv.URL,
		iv.Channel,
		nullableTime(iv.PublishedAt),
		iv.Score,
		nullableUUID(iv.RunID),
		nullableTime(iv.CollectedAt),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("archive: record interview: %w", err)
	}
	return id, nil
}

// EnsureInterview returns the ID of the (player_name, video_id) interview
// row, inserting iv only when no such row exists. Unlike
// [Store.RecordInterview] it never rewrites an existing row, so replaying
// artifacts cannot clobber the metadata a collection run recorded.
func (s *Store) EnsureInterview(ctx context.Context, iv Interview) (uuid.UUID, error) {
	if iv.ID == uuid.Nil {
		iv.ID = uuid.New()
	}

	// The self-assignment on conflict is what makes RETURNING yield the
	// surviving row's ID; DO NOTHING would return no row at all.
	const q = `
		INSERT INTO interviews
		    (id, player_name, video_id, title, url, channel, published_at, score, run_id, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()))
		ON CONFLICT (player_name, video_id) DO UPDATE SET video_id = EXCLUDED.video_id
		RETURNING id`

	var id uuid.UUID
	err := s.pool.QueryRow(ctx, q,
		iv.ID,
		iv.PlayerName,
		iv.VideoID,
		iv.Title,
		iv.URL,
		iv.Channel,
		nullableTime(iv.PublishedAt),
		iv.Score,
		nullableUUID(iv.RunID),
		nullableTime(iv.CollectedAt),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("archive: ensure interview: %w", err)
	}
	return id, nil
}

// RecordSpeech inserts one attributed-speech row and returns its ID. A nil
// embedding stores NULL; such rows are invisible to [Store.SimilarSpeech].
//
// Rows are append-only: re-running attribution on the same interview adds a
// new row rather than replacing the old one, so ExtractedAt distinguishes
// runs.
func (s *Store) RecordSpeech(ctx context.Context, rec SpeechRecord, embedding []float32) (uuid.UUID, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	var vec any
	if embedding != nil {
		vec = pgvector.NewVector(embedding)
	}

	const q = `
		INSERT INTO speech_documents
		    (id, interview_id, text, word_count, original_word_count, segment_count, model, embedding, extracted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()))`

	_, err := s.pool.Exec(ctx, q,
		rec.ID,
		rec.InterviewID,
		rec.Text,
		rec.WordCount,
		rec.OriginalWordCount,
		rec.SegmentCount,
		rec.Model,
		vec,
		nullableTime(rec.ExtractedAt),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("archive: record speech: %w", err)
	}
	return rec.ID, nil
}

// SimilarSpeech finds the topK speech rows whose embeddings are closest
// (cosine distance) to the supplied query embedding, optionally filtered to
// one player. An empty playerName searches across all players.
//
// Results are ordered by ascending cosine distance (most similar first).
// Rows without an embedding are never returned.
func (s *Store) SimilarSpeech(ctx context.Context, embedding []float32, topK int, playerName string) ([]SimilarSpeech, error) {
	queryVec := pgvector.NewVector(embedding)

	args := []any{queryVec} // $1 = query vector
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conditions := []string{"sd.embedding IS NOT NULL"}
	if playerName != "" {
		conditions = append(conditions, "iv.player_name = "+next(playerName))
	}
	whereClause := "WHERE " + strings.Join(conditions, "\n  AND ")

	args = append(args, topK)
	limitArg := fmt.Sprintf("$%d", len(args))

	q := fmt.Sprintf(`
		SELECT sd.id, sd.interview_id, sd.text, sd.word_count, sd.original_word_count,
		       sd.segment_count, sd.model, sd.extracted_at,
		       iv.player_name, iv.title,
		       sd.embedding <=> $1 AS distance
		FROM   speech_documents sd
		JOIN   interviews iv ON iv.id = sd.interview_id
		%s
		ORDER  BY distance
		LIMIT  %s`, whereClause, limitArg)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("archive: similar speech: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SimilarSpeech, error) {
		var sp SimilarSpeech
		if err := row.Scan(
			&sp.ID,
			&sp.InterviewID,
			&sp.Text,
			&sp.WordCount,
			&sp.OriginalWordCount,
			&sp.SegmentCount,
			&sp.Model,
			&sp.ExtractedAt,
			&sp.PlayerName,
			&sp.VideoTitle,
			&sp.Distance,
		); err != nil {
			return SimilarSpeech{}, err
		}
		return sp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("archive: scan rows: %w", err)
	}
	if results == nil {
		results = []SimilarSpeech{}
	}
	return results, nil
}

// nullableTime maps the zero time to NULL.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// nullableUUID maps the zero UUID to NULL.
func nullableUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
