package handlers

import (
	"log/slog"
	"net/http"

	"github.com/joonaskit/Summa/services/llm_service"
)

// LLMHandler exposes the endpoint's model catalogue so the frontend can
// offer model pickers.
type LLMHandler struct {
	llm    *llm_service.OpenAIService
	logger *slog.Logger
}

func NewLLMHandler(llm *llm_service.OpenAIService, logger *slog.Logger) *LLMHandler {
	return &LLMHandler{
		llm:    llm,
		logger: logger,
	}
}

// Models handles GET /llm/models.
func (h *LLMHandler) Models(w http.ResponseWriter, r *http.Request) {
	models, err := h.llm.ListModels(r.Context())
	if err != nil {
		h.logger.Error("Failed to list models",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to list models", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, models)
}

// EmbeddingModels handles GET /llm/embedding_models.
func (h *LLMHandler) EmbeddingModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.llm.ListEmbeddingModels(r.Context())
	if err != nil {
		h.logger.Error("Failed to list embedding models",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to list embedding models", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, models)
}
