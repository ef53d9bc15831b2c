package hedgedoc_service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// HedgeDocService fetches note content and visit history from a HedgeDoc
// instance. Private notes need the caller's session cookie.
type HedgeDocService struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHedgeDocService(logger *slog.Logger) *HedgeDocService {
	return &HedgeDocService{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// HistoryEntry is one note in the user's HedgeDoc history.
type HistoryEntry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Time int64  `json:"time"`
}

func (s *HedgeDocService) get(ctx context.Context, url, cookie string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	return s.httpClient.Do(req)
}

// FetchContent retrieves the raw markdown of a note. When the instance
// answers with an HTML page instead of markdown, the standard /download
// route is tried before giving up.
func (s *HedgeDocService) FetchContent(ctx context.Context, url, cookie string) (string, error) {
	resp, err := s.get(ctx, url, cookie)
	if err != nil {
		return "", fmt.Errorf("error fetching HedgeDoc: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HedgeDoc returned status %d", resp.StatusCode)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		// We got the rendered note page; remember its title for the error
		// message and retry the raw download route.
		title := s.pageTitle(resp.Body)

		downloadURL := strings.TrimRight(url, "/") + "/download"
		resp2, err := s.get(ctx, downloadURL, cookie)
		if err != nil {
			return "", fmt.Errorf("error fetching HedgeDoc download: %w", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			if title != "" {
				return "", fmt.Errorf("could not extract markdown from %q (%s)", title, url)
			}
			return "", fmt.Errorf("could not extract markdown from %s", url)
		}
		body, err := io.ReadAll(resp2.Body)
		if err != nil {
			return "", fmt.Errorf("error reading HedgeDoc response: %w", err)
		}
		return string(body), nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading HedgeDoc response: %w", err)
	}
	return string(body), nil
}

func (s *HedgeDocService) pageTitle(body io.Reader) string {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// FetchHistory retrieves the authenticated user's note history.
func (s *HedgeDocService) FetchHistory(ctx context.Context, baseURL, cookie string) ([]HistoryEntry, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	historyURL := strings.TrimRight(baseURL, "/") + "/history"
	resp, err := s.get(ctx, historyURL, cookie)
	if err != nil {
		return nil, fmt.Errorf("error fetching history: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return nil, fmt.Errorf("forbidden: cookie might be invalid")
	default:
		return nil, fmt.Errorf("failed to fetch history: status %d", resp.StatusCode)
	}

	var payload struct {
		History []HistoryEntry `json:"history"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse history JSON: %w", err)
	}
	return payload.History, nil
}
