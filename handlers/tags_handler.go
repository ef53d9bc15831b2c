package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joonaskit/Summa/services/metadata_service"
)

type TagsHandler struct {
	metadata *metadata_service.MetadataService
	logger   *slog.Logger
}

func NewTagsHandler(metadata *metadata_service.MetadataService, logger *slog.Logger) *TagsHandler {
	return &TagsHandler{
		metadata: metadata,
		logger:   logger,
	}
}

type tagCreateRequest struct {
	Name string `json:"name"`
}

type fileTagsRequest struct {
	Path string   `json:"path"`
	Tags []string `json:"tags"`
}

// List handles GET /tags.
func (h *TagsHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.metadata.AllTags(r.Context())
	if err != nil {
		h.logger.Error("Failed to list tags",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to list tags", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// Create handles POST /tags.
func (h *TagsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tagCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSONError(w, "name is required", http.StatusBadRequest)
		return
	}

	if err := h.metadata.AddTag(r.Context(), req.Name); err != nil {
		h.logger.Error("Failed to create tag",
			slog.String("name", req.Name),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to create tag", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Tag created"})
}

// Delete handles DELETE /tags/{name}.
func (h *TagsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.metadata.DeleteTag(r.Context(), name); err != nil {
		h.logger.Error("Failed to delete tag",
			slog.String("name", name),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to delete tag", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Tag deleted"})
}

// UpdateFileTags handles POST /files/tags, replacing a file's tag set.
func (h *TagsHandler) UpdateFileTags(w http.ResponseWriter, r *http.Request) {
	var req fileTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	if err := h.metadata.UpdateFileTags(r.Context(), req.Path, req.Tags); err != nil {
		h.logger.Error("Failed to update file tags",
			slog.String("path", req.Path),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to update tags", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Tags updated"})
}
