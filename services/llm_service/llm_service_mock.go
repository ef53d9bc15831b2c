package llm_service

import (
	"context"
)

type MockLLMService struct {
	CompleteFunc func(ctx context.Context, messages []Message) (string, error)
	StreamFunc   func(ctx context.Context, messages []Message, onDelta func(string) error) error
}

func (m *MockLLMService) Complete(ctx context.Context, messages []Message) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages)
	}
	return "mock response", nil
}

func (m *MockLLMService) Stream(ctx context.Context, messages []Message, onDelta func(string) error) error {
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, messages, onDelta)
	}
	return onDelta("mock response")
}
