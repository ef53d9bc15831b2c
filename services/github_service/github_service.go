package github_service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v68/github"
)

const maxEvents = 10

// GitHubService summarizes a user's recent public activity for display
// alongside their documents.
type GitHubService struct {
	client *github.Client
	logger *slog.Logger
}

func NewGitHubService(logger *slog.Logger) *GitHubService {
	return &GitHubService{
		client: github.NewClient(nil),
		logger: logger,
	}
}

// ActivityDigest holds human-readable lines for the most recent events.
type ActivityDigest struct {
	Events   []string `json:"events"`
	RawCount int      `json:"raw_count"`
}

// UserActivity fetches the user's recent public events and renders the last
// ten as one-line summaries.
func (s *GitHubService) UserActivity(ctx context.Context, username string) (*ActivityDigest, error) {
	events, _, err := s.client.Activity.ListEventsPerformedByUser(ctx, username, true, &github.ListOptions{PerPage: 30})
	if err != nil {
		s.logger.Error("Failed to fetch GitHub events",
			slog.String("username", username),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to fetch GitHub events: %w", err)
	}

	digest := &ActivityDigest{
		Events:   make([]string, 0, maxEvents),
		RawCount: len(events),
	}

	for i, e := range events {
		if i == maxEvents {
			break
		}
		digest.Events = append(digest.Events, describeEvent(e))
	}
	return digest, nil
}

func describeEvent(e *github.Event) string {
	repo := ""
	if e.Repo != nil {
		repo = e.Repo.GetName()
	}
	createdAt := ""
	if e.CreatedAt != nil {
		createdAt = e.CreatedAt.Format("2006-01-02 15:04:05")
	}

	payload, err := e.ParsePayload()
	if err != nil {
		return fmt.Sprintf("%s at %s at %s", e.GetType(), repo, createdAt)
	}

	switch p := payload.(type) {
	case *github.PushEvent:
		return fmt.Sprintf("Pushed %d commits to %s at %s", len(p.Commits), repo, createdAt)
	case *github.CreateEvent:
		return fmt.Sprintf("Created %s in %s at %s", p.GetRefType(), repo, createdAt)
	default:
		return fmt.Sprintf("%s at %s at %s", e.GetType(), repo, createdAt)
	}
}
