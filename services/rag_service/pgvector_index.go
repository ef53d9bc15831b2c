package rag_service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgVectorIndex is the durable vector index, backed by the rag_chunks table.
// Entries accumulate across calls and restarts; concurrency guarantees are
// the database's (read-after-write within one process is all we rely on).
type PgVectorIndex struct {
	db         *pgxpool.Pool
	embedder   Embedder
	collection string
	logger     *slog.Logger
}

func NewPgVectorIndex(db *pgxpool.Pool, embedder Embedder, collection string, logger *slog.Logger) *PgVectorIndex {
	return &PgVectorIndex{
		db:         db,
		embedder:   embedder,
		collection: collection,
		logger:     logger,
	}
}

func (idx *PgVectorIndex) Add(ctx context.Context, chunks []Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	// Embed the whole batch up front so an embedding failure aborts before
	// anything is written. A database failure mid-insert can still leave
	// earlier rows behind; that partial write is a known limitation of the
	// durable backend.
	vectors, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		id := uuid.New().String()
		_, err := idx.db.Exec(ctx,
			`INSERT INTO rag_chunks (id, collection, source, start_offset, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id, idx.collection, chunk.SourceID, chunk.StartOffset, chunk.Text, pgvector.NewVector(vectors[i]))
		if err != nil {
			idx.logger.Error("Failed to store chunk",
				slog.String("source", chunk.SourceID),
				slog.Int("chunk_index", i),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("%w: failed to store chunk: %v", ErrIndexUnavailable, err)
		}
		ids[i] = id
	}

	idx.logger.Info("Stored chunks in vector index",
		slog.String("collection", idx.collection),
		slog.Int("chunk_count", len(chunks)))

	return ids, nil
}

func (idx *PgVectorIndex) Search(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	vector, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	rows, err := idx.db.Query(ctx,
		`SELECT source, start_offset, content, 1 - (embedding <=> $1) AS similarity_score
		 FROM rag_chunks
		 WHERE collection = $2
		 ORDER BY similarity_score DESC
		 LIMIT $3`,
		pgvector.NewVector(vector), idx.collection, k)
	if err != nil {
		return nil, fmt.Errorf("%w: search query failed: %v", ErrIndexUnavailable, err)
	}
	defer rows.Close()

	results := make([]ScoredChunk, 0, k)
	for rows.Next() {
		var result ScoredChunk
		if err := rows.Scan(&result.Chunk.SourceID, &result.Chunk.StartOffset, &result.Chunk.Text, &result.Score); err != nil {
			return nil, fmt.Errorf("%w: failed to scan result row: %v", ErrIndexUnavailable, err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: search failed: %v", ErrIndexUnavailable, err)
	}

	return results, nil
}
