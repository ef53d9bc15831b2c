package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/joonaskit/Summa/services/file_service"
	"github.com/joonaskit/Summa/services/rag_service"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps the pipeline failure taxonomy to HTTP status codes:
// caller-input problems are 4xx, backend availability problems are 5xx.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rag_service.ErrUnsupportedFormat),
		errors.Is(err, rag_service.ErrEmptyDocument):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, file_service.ErrNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, file_service.ErrAccessDenied):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, rag_service.ErrEmbeddingUnavailable),
		errors.Is(err, rag_service.ErrIndexUnavailable),
		errors.Is(err, rag_service.ErrLLMUnavailable):
		writeJSONError(w, err.Error(), http.StatusBadGateway)
	default:
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}
