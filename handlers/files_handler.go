package handlers

import (
	"log/slog"
	"net/http"

	"github.com/joonaskit/Summa/services/file_service"
)

type FilesHandler struct {
	files  *file_service.LocalFileService
	logger *slog.Logger
}

func NewFilesHandler(files *file_service.LocalFileService, logger *slog.Logger) *FilesHandler {
	return &FilesHandler{
		files:  files,
		logger: logger,
	}
}

// List handles GET /files.
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.files.ListFiles(r.Context())
	if err != nil {
		h.logger.Error("Failed to list files",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to list files", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// Content handles GET /files/content?path=.
func (h *FilesHandler) Content(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path parameter is required", http.StatusBadRequest)
		return
	}

	content, err := h.files.GetContent(path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, content)
}

// Upload handles POST /files/upload, storing the file in the data directory.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
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

	path, err := h.files.SaveUpload(r.Context(), file, header.Filename)
	if err != nil {
		h.logger.Error("Failed to save upload",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "path": path})
}

// Delete handles DELETE /files/delete?path=.
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path parameter is required", http.StatusBadRequest)
		return
	}

	if err := h.files.Delete(r.Context(), path); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Deleted " + path})
}
