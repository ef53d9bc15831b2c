package rag_service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/joonaskit/Summa/services/llm_service"
)

func TestAnswerComposer_BuildMessages(t *testing.T) {
	c := NewAnswerComposer(&llm_service.MockLLMService{})

	chunks := []ScoredChunk{
		{Chunk: Chunk{Text: "The project code name is Blue Horizon.", SourceID: "notes.txt"}, Score: 0.92},
		{Chunk: Chunk{Text: "The deadline is October 15th.", SourceID: "plan.md"}, Score: 0.81},
	}
	messages := c.BuildMessages("What is the project code name?", chunks)

	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	system, user := messages[0], messages[1]

	if system.Role != "system" {
		t.Errorf("expected first message role system, got %s", system.Role)
	}
	if !strings.Contains(system.Content, "I don't know") {
		t.Errorf("system message must instruct the model to refuse when context lacks the answer")
	}
	if !strings.Contains(system.Content, "The project code name is Blue Horizon. (Source: notes.txt)") {
		t.Errorf("system message missing annotated chunk: %q", system.Content)
	}
	if !strings.Contains(system.Content, "The deadline is October 15th. (Source: plan.md)") {
		t.Errorf("system message missing second annotated chunk")
	}
	if !strings.Contains(system.Content, "(Source: notes.txt)\n\nThe deadline") {
		t.Errorf("context blocks must be joined by a blank line")
	}

	if user.Role != "user" {
		t.Errorf("expected second message role user, got %s", user.Role)
	}
	if user.Content != "What is the project code name?" {
		t.Errorf("user message must carry the raw query, got %q", user.Content)
	}
}

func TestAnswerComposer_BuildMessages_NoChunks(t *testing.T) {
	c := NewAnswerComposer(&llm_service.MockLLMService{})

	messages := c.BuildMessages("Who is the CEO?", nil)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if !strings.HasSuffix(messages[0].Content, "Context:\n") {
		t.Errorf("empty retrieval should leave the context block empty, got %q tail", messages[0].Content)
	}
}

func TestAnswerComposer_Compose(t *testing.T) {
	var captured []llm_service.Message
	mock := &llm_service.MockLLMService{
		CompleteFunc: func(ctx context.Context, messages []llm_service.Message) (string, error) {
			captured = messages
			return "Blue Horizon (Source: notes.txt)", nil
		},
	}
	c := NewAnswerComposer(mock)

	chunks := []ScoredChunk{
		{Chunk: Chunk{Text: "The project code name is Blue Horizon.", SourceID: "notes.txt"}},
	}
	answer, err := c.Compose(context.Background(), "What is the project code name?", chunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Blue Horizon (Source: notes.txt)" {
		t.Errorf("unexpected answer: %q", answer)
	}
	if len(captured) != 2 {
		t.Fatalf("LLM did not receive the composed messages")
	}
	if !strings.Contains(captured[0].Content, "Blue Horizon") {
		t.Errorf("retrieved context did not reach the LLM")
	}
}

func TestAnswerComposer_Compose_LLMFailure(t *testing.T) {
	mock := &llm_service.MockLLMService{
		CompleteFunc: func(ctx context.Context, messages []llm_service.Message) (string, error) {
			return "", fmt.Errorf("connection refused")
		},
	}
	c := NewAnswerComposer(mock)

	_, err := c.Compose(context.Background(), "q", nil)
	if !errors.Is(err, ErrLLMUnavailable) {
		t.Errorf("expected ErrLLMUnavailable, got %v", err)
	}
}

func TestAnswerComposer_ComposeStream(t *testing.T) {
	mock := &llm_service.MockLLMService{
		StreamFunc: func(ctx context.Context, messages []llm_service.Message, onDelta func(string) error) error {
			for _, delta := range []string{"Blue ", "Horizon"} {
				if err := onDelta(delta); err != nil {
					return err
				}
			}
			return nil
		},
	}
	c := NewAnswerComposer(mock)

	var sb strings.Builder
	err := c.ComposeStream(context.Background(), "q", nil, func(delta string) error {
		sb.WriteString(delta)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sb.String() != "Blue Horizon" {
		t.Errorf("expected accumulated deltas, got %q", sb.String())
	}
}

func TestAnswerComposer_ComposeStream_CallbackStopsStream(t *testing.T) {
	stopErr := errors.New("client went away")
	deliveries := 0
	mock := &llm_service.MockLLMService{
		StreamFunc: func(ctx context.Context, messages []llm_service.Message, onDelta func(string) error) error {
			for _, delta := range []string{"a", "b", "c"} {
				if err := onDelta(delta); err != nil {
					return err
				}
			}
			return nil
		},
	}
	c := NewAnswerComposer(mock)

	err := c.ComposeStream(context.Background(), "q", nil, func(delta string) error {
		deliveries++
		if deliveries == 2 {
			return stopErr
		}
		return nil
	})
	if !errors.Is(err, ErrLLMUnavailable) {
		t.Errorf("stream failures surface as ErrLLMUnavailable, got %v", err)
	}
	if deliveries != 2 {
		t.Errorf("callback error must stop further deliveries, got %d", deliveries)
	}
}
