package rag_service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type memoryEntry struct {
	id     string
	vector []float32
	chunk  Chunk
}

// MemoryIndex is the ephemeral vector index: brute-force cosine similarity
// over in-process entries. Its lifetime is the instance's lifetime; discard
// the instance and the session's entries are gone.
type MemoryIndex struct {
	mu        sync.RWMutex
	embedder  Embedder
	dimension int
	entries   []memoryEntry
}

func NewMemoryIndex(embedder Embedder) *MemoryIndex {
	return &MemoryIndex{embedder: embedder}
}

func (idx *MemoryIndex) Add(ctx context.Context, chunks []Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dimension == 0 {
		idx.dimension = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != idx.dimension {
			return nil, fmt.Errorf("%w: vector dimension %d does not match index dimension %d",
				ErrIndexUnavailable, len(v), idx.dimension)
		}
	}

	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		id := uuid.New().String()
		idx.entries = append(idx.entries, memoryEntry{
			id:     id,
			vector: vectors[i],
			chunk:  chunk,
		})
		ids[i] = id
	}
	return ids, nil
}

func (idx *MemoryIndex) Search(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	vector, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.entries) == 0 {
		return []ScoredChunk{}, nil
	}

	results := make([]ScoredChunk, 0, len(idx.entries))
	for _, entry := range idx.entries {
		results = append(results, ScoredChunk{
			Chunk: entry.chunk,
			Score: cosineSimilarity(vector, entry.vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > 0 && k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Len reports the number of stored entries.
func (idx *MemoryIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
