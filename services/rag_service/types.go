package rag_service

// Document is a unit of ingestable content. It only lives long enough to be
// chunked; the index stores the derived chunks, never the whole document.
type Document struct {
	SourceID string
	Text     string
}

// Chunk is a contiguous slice of a document's text, the unit of embedding
// and storage. StartOffset indexes into the source text.
type Chunk struct {
	Text        string
	SourceID    string
	StartOffset int
}

// ScoredChunk is a retrieved chunk with its similarity score (higher is closer).
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// IngestResult is returned by path-based ingestion.
type IngestResult struct {
	Status      string   `json:"status"`
	DocumentIDs []string `json:"document_ids"`
	Message     string   `json:"message"`
}

// UploadIngestResult additionally carries the extracted text so the caller
// can show the uploaded file without a second fetch.
type UploadIngestResult struct {
	Status      string   `json:"status"`
	DocumentIDs []string `json:"document_ids"`
	Message     string   `json:"message"`
	Content     string   `json:"content"`
	Filename    string   `json:"filename"`
}

// QueryResult is the outcome of one grounded query.
type QueryResult struct {
	Status   string `json:"status"`
	Response string `json:"response"`
}
