package llm_service

import (
	"context"
	"fmt"
	"strings"
)

// Content sent to the model is truncated so huge documents do not blow the
// context window; the endpoint would otherwise reject or silently clip them.
const (
	summaryMaxContentLen = 8000
	tagsMaxContentLen    = 5000
	maxSuggestedTags     = 5
)

func truncate(content string, max int) string {
	if len(content) > max {
		return content[:max]
	}
	return content
}

// SummaryMessages builds the prompt used for document summaries.
func SummaryMessages(content string) []Message {
	return []Message{
		{Role: "system", Content: "You are a helpful assistant that summarizes documents efficiently."},
		{Role: "user", Content: fmt.Sprintf("Please provide a concise summary of the following document:\n\n%s", truncate(content, summaryMaxContentLen))},
	}
}

// Summarize generates a summary for the given document content.
func Summarize(ctx context.Context, llm LLMService, content string) (string, error) {
	return llm.Complete(ctx, SummaryMessages(content))
}

// SummarizeStream streams a summary for the given document content.
func SummarizeStream(ctx context.Context, llm LLMService, content string, onDelta func(string) error) error {
	return llm.Stream(ctx, SummaryMessages(content), onDelta)
}

// SuggestTags asks the model for 3-5 tags, preferring the already-known ones.
// The model's comma-separated reply is parsed and capped at five tags.
func SuggestTags(ctx context.Context, llm LLMService, content string, existingTags []string) ([]string, error) {
	existingTagsStr := "None"
	if len(existingTags) > 0 {
		existingTagsStr = strings.Join(existingTags, ", ")
	}

	messages := []Message{
		{Role: "system", Content: fmt.Sprintf("You are a helpful assistant that analyzes documents and suggests meaningful tags. You have access to the following existing tags: [%s]. Prioritize using these tags if they are relevant, but you may create new ones if necessary. Provide only a comma-separated list of 3-5 tags. Do not include any other text.", existingTagsStr)},
		{Role: "user", Content: fmt.Sprintf("Please suggest tags for the following document:\n\n%s", truncate(content, tagsMaxContentLen))},
	}

	response, err := llm.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, raw := range strings.Split(response, ",") {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == maxSuggestedTags {
			break
		}
	}
	return tags, nil
}
