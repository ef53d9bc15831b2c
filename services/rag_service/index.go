package rag_service

import "context"

// VectorIndex stores chunk embeddings and answers nearest-neighbor queries.
// Two interchangeable implementations exist: PgVectorIndex (durable, survives
// restarts, shared across calls) and MemoryIndex (ephemeral, scoped to one
// session so a single-file chat does not pollute the knowledge base).
// Selection between them is always an explicit caller decision.
type VectorIndex interface {
	// Add embeds each chunk's text and stores it, returning assigned ids in
	// input order. If embedding fails, no ids are returned and nothing is
	// inserted.
	Add(ctx context.Context, chunks []Chunk) ([]string, error)

	// Search embeds the query and returns up to k entries ordered by
	// descending similarity. An empty index returns an empty slice, not
	// an error.
	Search(ctx context.Context, query string, k int) ([]ScoredChunk, error)
}
