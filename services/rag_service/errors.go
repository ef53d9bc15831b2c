package rag_service

import "errors"

// Failure taxonomy for the ingestion and query pipeline. Handlers map these
// to HTTP status codes with errors.Is; nothing in this package swallows them.
var (
	// ErrUnsupportedFormat means the file extension has no extraction adapter.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyDocument means extraction produced zero text, rejected before chunking.
	ErrEmptyDocument = errors.New("document contains no extractable text")

	// ErrEmbeddingUnavailable means the embedding endpoint was unreachable or
	// returned a non-2xx response. The current ingest/query call aborts entirely.
	ErrEmbeddingUnavailable = errors.New("embedding endpoint unavailable")

	// ErrIndexUnavailable means the underlying vector store failed.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrLLMUnavailable means the chat completion endpoint failed while
	// composing an answer.
	ErrLLMUnavailable = errors.New("could not generate answer: LLM unavailable")
)
