package rag_service

import (
	"context"
	"fmt"
	"log/slog"
)

// FileReader resolves a library-relative path to raw file bytes. Implemented
// by file_service.LocalFileService; narrowed to an interface here so the
// pipeline can be tested without a data directory.
type FileReader interface {
	ReadFile(relPath string) ([]byte, error)
}

// RagService is the outward-facing orchestrator for the ingestion and query
// pipeline. It owns one durable and one ephemeral index; every operation
// selects between them through an explicit inMemory flag, never implicitly.
type RagService struct {
	durable   *Retriever
	ephemeral *Retriever
	extractor *DocumentExtractor
	composer  *AnswerComposer
	files     FileReader
	logger    *slog.Logger
}

func NewRagService(durable, ephemeral VectorIndex, chunker *Chunker, extractor *DocumentExtractor, composer *AnswerComposer, files FileReader, logger *slog.Logger) *RagService {
	return &RagService{
		durable:   NewRetriever(durable, chunker),
		ephemeral: NewRetriever(ephemeral, chunker),
		extractor: extractor,
		composer:  composer,
		files:     files,
		logger:    logger,
	}
}

func (s *RagService) retriever(inMemory bool) *Retriever {
	if inMemory {
		return s.ephemeral
	}
	return s.durable
}

// IngestFiles reads, extracts, chunks and stores the given library files.
// The first error aborts the whole call; there is no partial success report.
func (s *RagService) IngestFiles(ctx context.Context, paths []string, inMemory bool) (*IngestResult, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths provided for ingestion")
	}

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		data, err := s.files.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		text, err := s.extractor.Extract(path, data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{SourceID: path, Text: text})
	}

	ids, err := s.retriever(inMemory).IngestDocuments(ctx, docs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ingestion complete",
		slog.Int("file_count", len(paths)),
		slog.Int("chunk_count", len(ids)),
		slog.Bool("inmemory", inMemory))

	return &IngestResult{
		Status:      "success",
		DocumentIDs: ids,
		Message:     fmt.Sprintf("Ingested %d file(s) as %d chunk(s)", len(paths), len(ids)),
	}, nil
}

// IngestUploadedFile ingests a freshly-uploaded file and returns its extracted
// text along with the result, so the caller can immediately chat about it.
func (s *RagService) IngestUploadedFile(ctx context.Context, filename string, data []byte, inMemory bool) (*UploadIngestResult, error) {
	text, err := s.extractor.Extract(filename, data)
	if err != nil {
		return nil, err
	}

	ids, err := s.retriever(inMemory).IngestDocuments(ctx, []Document{{SourceID: filename, Text: text}})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Uploaded file ingested",
		slog.String("filename", filename),
		slog.Int("chunk_count", len(ids)),
		slog.Bool("inmemory", inMemory))

	return &UploadIngestResult{
		Status:      "success",
		DocumentIDs: ids,
		Message:     fmt.Sprintf("Ingested %s as %d chunk(s)", filename, len(ids)),
		Content:     text,
		Filename:    filename,
	}, nil
}

// Query retrieves the top-k chunks for the query and composes a grounded answer.
func (s *RagService) Query(ctx context.Context, query string, k int, inMemory bool) (*QueryResult, error) {
	chunks, err := s.retriever(inMemory).Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}

	answer, err := s.composer.Compose(ctx, query, chunks)
	if err != nil {
		return nil, err
	}

	return &QueryResult{
		Status:   "success",
		Response: answer,
	}, nil
}

// QueryStream is the streaming variant of Query; answer fragments are pushed
// to onDelta as the model produces them.
func (s *RagService) QueryStream(ctx context.Context, query string, k int, inMemory bool, onDelta func(string) error) error {
	chunks, err := s.retriever(inMemory).Retrieve(ctx, query, k)
	if err != nil {
		return err
	}
	return s.composer.ComposeStream(ctx, query, chunks, onDelta)
}
