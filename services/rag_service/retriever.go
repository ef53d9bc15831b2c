package rag_service

import (
	"context"
	"fmt"
)

// DefaultTopK is how many chunks a query retrieves when the caller does not say.
const DefaultTopK = 4

// Retriever sequences chunking and index access. It exists as a named seam so
// the composer and orchestrator never talk to the index directly.
type Retriever struct {
	index   VectorIndex
	chunker *Chunker
}

func NewRetriever(index VectorIndex, chunker *Chunker) *Retriever {
	return &Retriever{
		index:   index,
		chunker: chunker,
	}
}

// IngestDocuments chunks and stores each document, returning the assigned
// chunk ids concatenated in document order. An empty document is an error,
// not a silent no-op.
func (r *Retriever) IngestDocuments(ctx context.Context, docs []Document) ([]string, error) {
	var ids []string
	for _, doc := range docs {
		chunks := r.chunker.Split(doc.Text, doc.SourceID)
		if len(chunks) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, doc.SourceID)
		}
		chunkIDs, err := r.index.Add(ctx, chunks)
		if err != nil {
			return nil, err
		}
		ids = append(ids, chunkIDs...)
	}
	return ids, nil
}

// Retrieve returns the top-k most similar chunks for the query.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	return r.index.Search(ctx, query, k)
}
