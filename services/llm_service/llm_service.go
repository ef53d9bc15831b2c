package llm_service

import "context"

// Message is one chat turn sent to the completion endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMService is the chat-completion boundary. Complete blocks for the full
// answer; Stream yields fragments to onDelta as they arrive, stopping if
// onDelta returns an error.
type LLMService interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Stream(ctx context.Context, messages []Message, onDelta func(string) error) error
}
