package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/joonaskit/Summa/services/file_service"
	"github.com/joonaskit/Summa/services/llm_service"
	"github.com/joonaskit/Summa/services/metadata_service"
)

// SummaryHandler drives LLM summaries and tag suggestions for library files.
type SummaryHandler struct {
	llm      llm_service.LLMService
	model    string
	files    *file_service.LocalFileService
	metadata *metadata_service.MetadataService
	logger   *slog.Logger
}

func NewSummaryHandler(llm llm_service.LLMService, model string, files *file_service.LocalFileService, metadata *metadata_service.MetadataService, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{
		llm:      llm,
		model:    model,
		files:    files,
		metadata: metadata,
		logger:   logger,
	}
}

type pathRequest struct {
	Path string `json:"path"`
}

// GenerateSummary handles POST /files/summary: streams a fresh summary to the
// client and persists it once the stream is fully drained.
func (h *SummaryHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	content, err := h.files.GetContent(req.Path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if content.Content == "" {
		writeJSONError(w, "File is empty", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	var full strings.Builder
	err = llm_service.SummarizeStream(r.Context(), h.llm, content.Content, func(delta string) error {
		full.WriteString(delta)
		if _, err := io.WriteString(w, delta); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		h.logger.Error("Summary generation failed",
			slog.String("path", req.Path),
			slog.String("error", err.Error()))
		return
	}

	// Persist only after the whole stream went through.
	if err := h.metadata.SaveSummary(r.Context(), req.Path, full.String(), h.model); err != nil {
		h.logger.Error("Failed to save summary",
			slog.String("path", req.Path),
			slog.String("error", err.Error()))
	}
}

// SummarizeContent handles GET /llm/summary?content=...&filename=...: streams
// a summary of caller-supplied content without touching the library.
func (h *SummaryHandler) SummarizeContent(w http.ResponseWriter, r *http.Request) {
	content := r.URL.Query().Get("content")
	if content == "" {
		writeJSONError(w, "content parameter is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	err := llm_service.SummarizeStream(r.Context(), h.llm, content, func(delta string) error {
		if _, err := io.WriteString(w, delta); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		h.logger.Error("Summary generation failed",
			slog.String("filename", r.URL.Query().Get("filename")),
			slog.String("error", err.Error()))
	}
}

// GetSummary handles GET /files/summary?path=.
func (h *SummaryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path parameter is required", http.StatusBadRequest)
		return
	}

	summary, err := h.metadata.GetSummary(r.Context(), path)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSONError(w, "Summary not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to load summary",
			slog.String("path", path),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to load summary", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// SuggestTags handles POST /files/suggest_tags.
func (h *SummaryHandler) SuggestTags(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	content, err := h.files.GetContent(req.Path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if content.Content == "" {
		writeJSONError(w, "File is empty", http.StatusBadRequest)
		return
	}

	existing, err := h.metadata.AllTags(r.Context())
	if err != nil {
		h.logger.Warn("Failed to load existing tags",
			slog.String("error", err.Error()))
	}

	tags, err := llm_service.SuggestTags(r.Context(), h.llm, content.Content, existing)
	if err != nil {
		h.logger.Error("Tag suggestion failed",
			slog.String("path", req.Path),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to generate tags", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"tags": tags})
}
