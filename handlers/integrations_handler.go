package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joonaskit/Summa/services/file_service"
	"github.com/joonaskit/Summa/services/github_service"
	"github.com/joonaskit/Summa/services/hedgedoc_service"
)

// IntegrationsHandler fronts the external note/activity sources: HedgeDoc and
// GitHub.
type IntegrationsHandler struct {
	hedgedoc *hedgedoc_service.HedgeDocService
	github   *github_service.GitHubService
	files    *file_service.LocalFileService
	logger   *slog.Logger
}

func NewIntegrationsHandler(hedgedoc *hedgedoc_service.HedgeDocService, github *github_service.GitHubService, files *file_service.LocalFileService, logger *slog.Logger) *IntegrationsHandler {
	return &IntegrationsHandler{
		hedgedoc: hedgedoc,
		github:   github,
		files:    files,
		logger:   logger,
	}
}

type hedgedocRequest struct {
	URL    string `json:"url"`
	Cookie string `json:"cookie"`
}

type hedgedocHistoryRequest struct {
	BaseURL string `json:"base_url"`
	Cookie  string `json:"cookie"`
}

type hedgedocDownloadRequest struct {
	URL      string `json:"url"`
	Cookie   string `json:"cookie"`
	Filename string `json:"filename"`
}

// FetchHedgeDoc handles POST /hedgedoc.
func (h *IntegrationsHandler) FetchHedgeDoc(w http.ResponseWriter, r *http.Request) {
	var req hedgedocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSONError(w, "url is required", http.StatusBadRequest)
		return
	}

	content, err := h.hedgedoc.FetchContent(r.Context(), req.URL, req.Cookie)
	if err != nil {
		h.logger.Error("HedgeDoc fetch failed",
			slog.String("url", req.URL),
			slog.String("error", err.Error()))
		writeJSONError(w, "Could not fetch HedgeDoc content", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

// FetchHedgeDocHistory handles POST /hedgedoc/history.
func (h *IntegrationsHandler) FetchHedgeDocHistory(w http.ResponseWriter, r *http.Request) {
	var req hedgedocHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BaseURL == "" {
		writeJSONError(w, "base_url is required", http.StatusBadRequest)
		return
	}

	history, err := h.hedgedoc.FetchHistory(r.Context(), req.BaseURL, req.Cookie)
	if err != nil {
		h.logger.Error("HedgeDoc history fetch failed",
			slog.String("base_url", req.BaseURL),
			slog.String("error", err.Error()))
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

// DownloadHedgeDoc handles POST /hedgedoc/download: fetches a note and saves
// it into the library.
func (h *IntegrationsHandler) DownloadHedgeDoc(w http.ResponseWriter, r *http.Request) {
	var req hedgedocDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" || req.Filename == "" {
		writeJSONError(w, "url and filename are required", http.StatusBadRequest)
		return
	}

	content, err := h.hedgedoc.FetchContent(r.Context(), req.URL, req.Cookie)
	if err != nil {
		writeJSONError(w, "Could not fetch HedgeDoc content", http.StatusNotFound)
		return
	}

	path, err := h.files.SaveContent(r.Context(), req.Filename, content)
	if err != nil {
		h.logger.Error("Failed to save HedgeDoc note",
			slog.String("filename", req.Filename),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to save file", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "path": path})
}

// GitHubActivity handles GET /github/{username}.
func (h *IntegrationsHandler) GitHubActivity(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	digest, err := h.github.UserActivity(r.Context(), username)
	if err != nil {
		writeJSONError(w, "GitHub user not found or API error", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, digest)
}
