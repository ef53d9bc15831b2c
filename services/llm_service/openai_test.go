package llm_service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenAIService_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("expected path /chat/completions, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer auth header, got %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("expected model test-model, got %s", req.Model)
		}
		if req.Stream {
			t.Error("Complete must not request streaming")
		}
		if len(req.Messages) != 2 || req.Messages[1].Content != "hello" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "hi there"}},
			},
		})
	}))
	defer server.Close()

	s := NewOpenAIService(server.URL, "test-key", "test-model", testLogger())
	answer, err := s.Complete(context.Background(), []Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "hi there" {
		t.Errorf("expected %q, got %q", "hi there", answer)
	}
}

func TestOpenAIService_Complete_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{
				"message": "rate limit exceeded",
				"type":    "rate_limit_error",
			},
		})
	}))
	defer server.Close()

	s := NewOpenAIService(server.URL, "k", "m", testLogger())
	_, err := s.Complete(context.Background(), []Message{{Role: "user", Content: "x"}})

	var httpErr *OpenAIHttpError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *OpenAIHttpError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", httpErr.StatusCode)
	}
	if httpErr.Message != "rate limit exceeded" {
		t.Errorf("expected the endpoint's error message, got %q", httpErr.Message)
	}
	if httpErr.ErrorType != "rate_limit_error" {
		t.Errorf("expected the endpoint's error type, got %q", httpErr.ErrorType)
	}
}

func sseBody(lines ...string) string {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func streamChunkLine(t *testing.T, content string) string {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"delta": map[string]string{"content": content}},
		},
	})
	if err != nil {
		t.Fatalf("failed to marshal chunk: %v", err)
	}
	return "data: " + string(payload)
}

func TestOpenAIService_Stream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if !req.Stream {
			t.Error("Stream must set stream=true in the request")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody(
			streamChunkLine(t, "Blue "),
			"data: {not json",
			streamChunkLine(t, ""),
			streamChunkLine(t, "Horizon"),
			"data: [DONE]",
			streamChunkLine(t, "after done, never delivered"),
		))
	}))
	defer server.Close()

	s := NewOpenAIService(server.URL, "k", "m", testLogger())
	var deltas []string
	err := s.Stream(context.Background(), []Message{{Role: "user", Content: "q"}}, func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(deltas, []string{"Blue ", "Horizon"}) {
		t.Errorf("expected content deltas in order, malformed and empty chunks skipped, got %v", deltas)
	}
}

func TestOpenAIService_Stream_CallbackError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody(
			streamChunkLine(t, "a"),
			streamChunkLine(t, "b"),
			streamChunkLine(t, "c"),
			"data: [DONE]",
		))
	}))
	defer server.Close()

	stopErr := errors.New("client disconnected")
	s := NewOpenAIService(server.URL, "k", "m", testLogger())

	deliveries := 0
	err := s.Stream(context.Background(), []Message{{Role: "user", Content: "q"}}, func(delta string) error {
		deliveries++
		if deliveries == 2 {
			return stopErr
		}
		return nil
	})
	if !errors.Is(err, stopErr) {
		t.Errorf("expected the callback error back, got %v", err)
	}
	if deliveries != 2 {
		t.Errorf("reading must stop after the callback error, got %d deliveries", deliveries)
	}
}

func TestOpenAIService_Stream_ContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody(streamChunkLine(t, "first")))
		w.(http.Flusher).Flush()
		// Hold the stream open until the client goes away.
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewOpenAIService(server.URL, "k", "m", testLogger())
	err := s.Stream(ctx, []Message{{Role: "user", Content: "q"}}, func(delta string) error {
		cancel()
		return nil
	})
	if err == nil {
		t.Fatal("expected an error after cancelling mid-stream")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context cancellation to cut the stream, got %v", err)
	}
}

func TestOpenAIService_Stream_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := NewOpenAIService(server.URL, "k", "m", testLogger())
	err := s.Stream(context.Background(), []Message{{Role: "user", Content: "q"}}, func(string) error { return nil })

	var httpErr *OpenAIHttpError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *OpenAIHttpError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", httpErr.StatusCode)
	}
}

func TestOpenAIService_ListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("expected path /models, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{
				{"id": "qwen2.5-7b-instruct"},
				{"id": "text-embedding-nomic-embed-text-v1.5"},
				{"id": "all-minilm-embedding"},
			},
		})
	}))
	defer server.Close()

	s := NewOpenAIService(server.URL, "k", "m", testLogger())

	models, err := s.ListModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(models) != 3 {
		t.Errorf("expected 3 models, got %d", len(models))
	}

	embedding, err := s.ListEmbeddingModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"text-embedding-nomic-embed-text-v1.5", "all-minilm-embedding"}
	if !reflect.DeepEqual(embedding, want) {
		t.Errorf("expected %v, got %v", want, embedding)
	}
}
