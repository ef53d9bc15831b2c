package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joonaskit/Summa/services/rag_service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockRagPipeline implements RagPipeline with overridable func fields.
type mockRagPipeline struct {
	IngestFilesFunc        func(ctx context.Context, paths []string, inMemory bool) (*rag_service.IngestResult, error)
	IngestUploadedFileFunc func(ctx context.Context, filename string, data []byte, inMemory bool) (*rag_service.UploadIngestResult, error)
	QueryFunc              func(ctx context.Context, query string, k int, inMemory bool) (*rag_service.QueryResult, error)
	QueryStreamFunc        func(ctx context.Context, query string, k int, inMemory bool, onDelta func(string) error) error
}

func (m *mockRagPipeline) IngestFiles(ctx context.Context, paths []string, inMemory bool) (*rag_service.IngestResult, error) {
	if m.IngestFilesFunc != nil {
		return m.IngestFilesFunc(ctx, paths, inMemory)
	}
	return &rag_service.IngestResult{Status: "success"}, nil
}

func (m *mockRagPipeline) IngestUploadedFile(ctx context.Context, filename string, data []byte, inMemory bool) (*rag_service.UploadIngestResult, error) {
	if m.IngestUploadedFileFunc != nil {
		return m.IngestUploadedFileFunc(ctx, filename, data, inMemory)
	}
	return &rag_service.UploadIngestResult{Status: "success"}, nil
}

func (m *mockRagPipeline) Query(ctx context.Context, query string, k int, inMemory bool) (*rag_service.QueryResult, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, query, k, inMemory)
	}
	return &rag_service.QueryResult{Status: "success", Response: "mock answer"}, nil
}

func (m *mockRagPipeline) QueryStream(ctx context.Context, query string, k int, inMemory bool, onDelta func(string) error) error {
	if m.QueryStreamFunc != nil {
		return m.QueryStreamFunc(ctx, query, k, inMemory, onDelta)
	}
	return nil
}

func TestRagHandler_Query(t *testing.T) {
	pipeline := &mockRagPipeline{
		QueryFunc: func(ctx context.Context, query string, k int, inMemory bool) (*rag_service.QueryResult, error) {
			if query != "What is the project code name?" {
				t.Errorf("unexpected query: %q", query)
			}
			if k != 6 {
				t.Errorf("expected k=6, got %d", k)
			}
			if !inMemory {
				t.Error("expected inmemory flag from request body")
			}
			return &rag_service.QueryResult{Status: "success", Response: "Blue Horizon (Source: notes.txt)"}, nil
		},
	}
	h := NewRagHandler(pipeline, testLogger())

	body := `{"query": "What is the project code name?", "k": 6, "inmemory": true}`
	req := httptest.NewRequest("POST", "/rag/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result rag_service.QueryResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Response != "Blue Horizon (Source: notes.txt)" {
		t.Errorf("unexpected response: %q", result.Response)
	}
}

func TestRagHandler_Query_BadRequests(t *testing.T) {
	h := NewRagHandler(&mockRagPipeline{}, testLogger())

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"query": `},
		{name: "empty query", body: `{"query": ""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/rag/query", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Query(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestRagHandler_Query_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "embedding endpoint down",
			err:        fmt.Errorf("%w: connection refused", rag_service.ErrEmbeddingUnavailable),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "index unavailable",
			err:        fmt.Errorf("%w: dimension mismatch", rag_service.ErrIndexUnavailable),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "llm unavailable",
			err:        fmt.Errorf("%w: timeout", rag_service.ErrLLMUnavailable),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "unclassified failure",
			err:        fmt.Errorf("something unexpected"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := &mockRagPipeline{
				QueryFunc: func(ctx context.Context, query string, k int, inMemory bool) (*rag_service.QueryResult, error) {
					return nil, tt.err
				},
			}
			h := NewRagHandler(pipeline, testLogger())

			req := httptest.NewRequest("POST", "/rag/query", strings.NewReader(`{"query": "q"}`))
			rec := httptest.NewRecorder()
			h.Query(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestRagHandler_Ingest(t *testing.T) {
	var gotPaths []string
	pipeline := &mockRagPipeline{
		IngestFilesFunc: func(ctx context.Context, paths []string, inMemory bool) (*rag_service.IngestResult, error) {
			gotPaths = paths
			return &rag_service.IngestResult{
				Status:      "success",
				DocumentIDs: []string{"id-1", "id-2"},
				Message:     "Ingested 1 file(s) as 2 chunk(s)",
			}, nil
		},
	}
	h := NewRagHandler(pipeline, testLogger())

	req := httptest.NewRequest("POST", "/rag/ingest", strings.NewReader(`{"paths": ["notes.txt"]}`))
	rec := httptest.NewRecorder()
	h.Ingest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(gotPaths) != 1 || gotPaths[0] != "notes.txt" {
		t.Errorf("unexpected paths: %v", gotPaths)
	}

	var result rag_service.IngestResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.DocumentIDs) != 2 {
		t.Errorf("expected 2 ids in response, got %v", result.DocumentIDs)
	}
}

func TestRagHandler_Ingest_NoPaths(t *testing.T) {
	h := NewRagHandler(&mockRagPipeline{}, testLogger())

	req := httptest.NewRequest("POST", "/rag/ingest", strings.NewReader(`{"paths": []}`))
	rec := httptest.NewRecorder()
	h.Ingest(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRagHandler_IngestUploadedFile(t *testing.T) {
	var gotFilename string
	var gotData []byte
	var gotInMemory bool
	pipeline := &mockRagPipeline{
		IngestUploadedFileFunc: func(ctx context.Context, filename string, data []byte, inMemory bool) (*rag_service.UploadIngestResult, error) {
			gotFilename = filename
			gotData = data
			gotInMemory = inMemory
			return &rag_service.UploadIngestResult{
				Status:   "success",
				Content:  string(data),
				Filename: filename,
			}, nil
		},
	}
	h := NewRagHandler(pipeline, testLogger())

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	part.Write([]byte("The project code name is Blue Horizon."))
	writer.Close()

	req := httptest.NewRequest("POST", "/rag/ingest_uploaded_file?inmemory=true", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	h.IngestUploadedFile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotFilename != "notes.txt" {
		t.Errorf("expected filename notes.txt, got %s", gotFilename)
	}
	if string(gotData) != "The project code name is Blue Horizon." {
		t.Errorf("file bytes did not reach the pipeline: %q", gotData)
	}
	if !gotInMemory {
		t.Error("expected the inmemory query param to reach the pipeline")
	}

	var result rag_service.UploadIngestResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Content != "The project code name is Blue Horizon." {
		t.Errorf("response must echo the extracted content, got %q", result.Content)
	}
}

func TestRagHandler_IngestUploadedFile_UnsupportedFormat(t *testing.T) {
	pipeline := &mockRagPipeline{
		IngestUploadedFileFunc: func(ctx context.Context, filename string, data []byte, inMemory bool) (*rag_service.UploadIngestResult, error) {
			return nil, fmt.Errorf("%w: .png", rag_service.ErrUnsupportedFormat)
		},
	}
	h := NewRagHandler(pipeline, testLogger())

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile("file", "photo.png")
	part.Write([]byte{0x89, 'P', 'N', 'G'})
	writer.Close()

	req := httptest.NewRequest("POST", "/rag/ingest_uploaded_file", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	h.IngestUploadedFile(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported format, got %d", rec.Code)
	}
}

func TestRagHandler_QueryStream(t *testing.T) {
	pipeline := &mockRagPipeline{
		QueryStreamFunc: func(ctx context.Context, query string, k int, inMemory bool, onDelta func(string) error) error {
			for _, d := range []string{"Blue ", "Horizon"} {
				if err := onDelta(d); err != nil {
					return err
				}
			}
			return nil
		},
	}
	h := NewRagHandler(pipeline, testLogger())

	req := httptest.NewRequest("POST", "/rag/query/stream", strings.NewReader(`{"query": "q"}`))
	rec := httptest.NewRecorder()
	h.QueryStream(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "Blue Horizon" {
		t.Errorf("expected streamed body, got %q", rec.Body.String())
	}
}
