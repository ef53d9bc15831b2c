package llm_service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// OpenAIService talks to any OpenAI-compatible chat endpoint, including local
// ones (LM Studio, Ollama). No retry loop: availability problems surface to
// the caller immediately.
type OpenAIService struct {
	httpClient   *http.Client
	streamClient *http.Client
	baseURL      string
	apiKey       string
	model        string
	logger       *slog.Logger
}

func NewOpenAIService(baseURL, apiKey, model string, logger *slog.Logger) *OpenAIService {
	return &OpenAIService{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		// Streaming answers on slow local models can outlive any fixed
		// whole-response deadline, so the stream client only bounds the
		// wait for headers. Cancellation comes from the request context.
		streamClient: &http.Client{
			Transport: &http.Transport{ResponseHeaderTimeout: 120 * time.Second},
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		logger:  logger,
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (s *OpenAIService) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := s.post(ctx, s.httpClient, chatRequest{Model: s.model, Messages: messages})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		httpErr := newHTTPError(resp)
		s.logger.Error("Chat completion failed",
			slog.Int("status_code", httpErr.StatusCode),
			slog.String("error_type", httpErr.ErrorType),
			slog.String("error_message", httpErr.Message),
			slog.String("model", s.model))
		return "", httpErr
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("unexpected response format from chat endpoint")
	}

	return result.Choices[0].Message.Content, nil
}

// Stream reads the SSE response line by line and forwards each content delta
// to onDelta. If onDelta returns an error, reading stops and that error is
// returned; the endpoint is not signalled, closing the body is enough.
func (s *OpenAIService) Stream(ctx context.Context, messages []Message, onDelta func(string) error) error {
	resp, err := s.post(ctx, s.streamClient, chatRequest{Model: s.model, Messages: messages, Stream: true})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		httpErr := newHTTPError(resp)
		s.logger.Error("Chat completion stream failed",
			slog.Int("status_code", httpErr.StatusCode),
			slog.String("error_message", httpErr.Message),
			slog.String("model", s.model))
		return httpErr
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			s.logger.Warn("Skipping malformed stream chunk",
				slog.String("error", err.Error()))
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := onDelta(delta); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading stream: %w", err)
	}

	return nil
}

func (s *OpenAIService) post(ctx context.Context, client *http.Client, body chatRequest) (*http.Response, error) {
	requestBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	return resp, nil
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ListModels returns the model ids exposed by the endpoint's /models route.
func (s *OpenAIService) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newHTTPError(resp)
	}

	var result modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	models := make([]string, 0, len(result.Data))
	for _, m := range result.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

// ListEmbeddingModels filters /models down to embedding models, matching the
// endpoint convention of naming them with "embedding" in the id.
func (s *OpenAIService) ListEmbeddingModels(ctx context.Context) ([]string, error) {
	models, err := s.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	embeddingModels := make([]string, 0, len(models))
	for _, id := range models {
		if strings.Contains(id, "embedding") {
			embeddingModels = append(embeddingModels, id)
		}
	}
	return embeddingModels, nil
}
