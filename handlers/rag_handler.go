package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/joonaskit/Summa/services/rag_service"
)

// RagPipeline is the slice of the RAG orchestrator the HTTP layer needs.
type RagPipeline interface {
	IngestFiles(ctx context.Context, paths []string, inMemory bool) (*rag_service.IngestResult, error)
	IngestUploadedFile(ctx context.Context, filename string, data []byte, inMemory bool) (*rag_service.UploadIngestResult, error)
	Query(ctx context.Context, query string, k int, inMemory bool) (*rag_service.QueryResult, error)
	QueryStream(ctx context.Context, query string, k int, inMemory bool, onDelta func(string) error) error
}

type RagHandler struct {
	pipeline RagPipeline
	logger   *slog.Logger
}

func NewRagHandler(pipeline RagPipeline, logger *slog.Logger) *RagHandler {
	return &RagHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

type ingestRequest struct {
	Paths    []string `json:"paths"`
	InMemory bool     `json:"inmemory"`
}

type queryRequest struct {
	Query    string `json:"query"`
	K        int    `json:"k"`
	InMemory bool   `json:"inmemory"`
}

func inMemoryParam(r *http.Request) bool {
	return r.URL.Query().Get("inmemory") == "true"
}

// Ingest handles POST /rag/ingest.
func (h *RagHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Paths) == 0 {
		writeJSONError(w, "No paths provided", http.StatusBadRequest)
		return
	}

	inMemory := req.InMemory || inMemoryParam(r)
	result, err := h.pipeline.IngestFiles(r.Context(), req.Paths, inMemory)
	if err != nil {
		h.logger.Error("Ingestion failed",
			slog.Int("path_count", len(req.Paths)),
			slog.String("error", err.Error()))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// IngestUploadedFile handles POST /rag/ingest_uploaded_file.
func (h *RagHandler) IngestUploadedFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil { // 10 MB limit
		writeJSONError(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "Failed to get file from form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		writeJSONError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Received file for ingestion",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	result, err := h.pipeline.IngestUploadedFile(r.Context(), header.Filename, buf.Bytes(), inMemoryParam(r))
	if err != nil {
		h.logger.Error("Uploaded file ingestion failed",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Query handles POST /rag/query.
func (h *RagHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		writeJSONError(w, "Query cannot be empty", http.StatusBadRequest)
		return
	}

	result, err := h.pipeline.Query(r.Context(), req.Query, req.K, req.InMemory)
	if err != nil {
		h.logger.Error("Query failed",
			slog.String("error", err.Error()))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// QueryStream handles POST /rag/query/stream, writing answer fragments as
// they arrive.
func (h *RagHandler) QueryStream(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		writeJSONError(w, "Query cannot be empty", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	err := h.pipeline.QueryStream(r.Context(), req.Query, req.K, req.InMemory, func(delta string) error {
		if _, err := io.WriteString(w, delta); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		// Headers are already sent; the best we can do is log and cut the stream.
		h.logger.Error("Streaming query failed",
			slog.String("error", err.Error()))
	}
}
