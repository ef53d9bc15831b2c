package rag_service

import (
	"context"
	"fmt"
	"strings"

	"github.com/joonaskit/Summa/services/llm_service"
)

const answerInstructions = `You are a helpful assistant that answers questions using ONLY the provided context.
Rules:
- Answer strictly from the context below. Do not use outside knowledge.
- If the context does not contain the answer, say "I don't know" instead of guessing.
- Cite the source document(s) you used, as given in the (Source: ...) annotations.

Context:
`

// AnswerComposer builds a context-constrained prompt from retrieved chunks
// and invokes the chat LLM. Answer quality is the model's problem; this
// type's job is prompt construction and provenance formatting only.
type AnswerComposer struct {
	llm llm_service.LLMService
}

func NewAnswerComposer(llm llm_service.LLMService) *AnswerComposer {
	return &AnswerComposer{llm: llm}
}

// BuildMessages constructs the two-message prompt: one system message with
// the instructions plus the annotated context block, one user message with
// the raw query.
func (c *AnswerComposer) BuildMessages(query string, chunks []ScoredChunk) []llm_service.Message {
	blocks := make([]string, 0, len(chunks))
	for _, sc := range chunks {
		blocks = append(blocks, fmt.Sprintf("%s (Source: %s)", sc.Chunk.Text, sc.Chunk.SourceID))
	}
	contextBlock := strings.Join(blocks, "\n\n")

	return []llm_service.Message{
		{Role: "system", Content: answerInstructions + contextBlock},
		{Role: "user", Content: query},
	}
}

func (c *AnswerComposer) Compose(ctx context.Context, query string, chunks []ScoredChunk) (string, error) {
	answer, err := c.llm.Complete(ctx, c.BuildMessages(query, chunks))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}
	return answer, nil
}

// ComposeStream yields answer fragments to onDelta as they arrive. Cancellation
// is cooperative: onDelta returning an error stops the upstream read, and no
// partial result is persisted anywhere.
func (c *AnswerComposer) ComposeStream(ctx context.Context, query string, chunks []ScoredChunk, onDelta func(string) error) error {
	if err := c.llm.Stream(ctx, c.BuildMessages(query, chunks), onDelta); err != nil {
		return fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}
	return nil
}
