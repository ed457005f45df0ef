package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vehicast/service/internal/models"
)

func newTestOpenAIClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewOpenAIClient(&Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewOpenAIClient failed: %v", err)
	}
	return client
}

func TestNewOpenAIClientDefaults(t *testing.T) {
	if _, err := NewOpenAIClient(&Config{}); err == nil {
		t.Error("Expected error for missing API key")
	}

	client, err := NewOpenAIClient(&Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewOpenAIClient failed: %v", err)
	}
	if client.embeddingModel != "text-embedding-3-small" {
		t.Errorf("Unexpected default embedding model: %s", client.embeddingModel)
	}
	if client.chatModel != "gpt-4o-mini" {
		t.Errorf("Unexpected default chat model: %s", client.chatModel)
	}
}

func TestGenerateEmbedding(t *testing.T) {
	var gotAuth, gotPath string

	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Write([]byte(`{"data": [{"embedding": [0.1, 0.2, 0.3]}]}`))
	})

	embedding, err := client.GenerateEmbedding(context.Background(), "brake pads")
	if err != nil {
		t.Fatalf("GenerateEmbedding failed: %v", err)
	}

	if gotPath != "/embeddings" || gotAuth != "Bearer test-key" {
		t.Errorf("Unexpected request: path=%s auth=%s", gotPath, gotAuth)
	}
	if len(embedding) != 3 || embedding[0] != 0.1 {
		t.Errorf("Unexpected embedding: %v", embedding)
	}
}

func TestGenerateEmbeddingEmptyData(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	})

	if _, err := client.GenerateEmbedding(context.Background(), "x"); err == nil {
		t.Error("Expected error for empty embedding data")
	}
}

func TestComplete(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "Try new pads."}}]}`))
	})

	response, err := client.Complete(context.Background(), []models.ChatMessage{
		{Role: "user", Content: "my brakes squeak"},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if response != "Try new pads." {
		t.Errorf("Unexpected response: %q", response)
	}
}

func TestCompleteAPIError(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "Rate limit reached", "code": "rate_limit_exceeded"}}`))
	})

	_, err := client.Complete(context.Background(), []models.ChatMessage{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("Expected error for 429 response")
	}

	var llmErr *LLMError
	if !errors.As(err, &llmErr) {
		t.Fatalf("Expected LLMError, got %T: %v", err, err)
	}
	if llmErr.Code != "rate_limit_exceeded" {
		t.Errorf("Unexpected error code: %s", llmErr.Code)
	}
	if llmErr.Retryable {
		t.Error("4xx error must not be retryable")
	}
}

func TestStreamComplete(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{"Hello", " there", "!"}
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: {\"choices\": [{\"delta\": {\"content\": %q}}]}\n\n", chunk)
		}
		// 空增量与注释行应被跳过
		fmt.Fprint(w, "data: {\"choices\": [{\"delta\": {}}]}\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var deltas []string
	var lastBuffer string
	response, err := client.StreamComplete(context.Background(),
		[]models.ChatMessage{{Role: "user", Content: "hi"}},
		func(delta, buffer string) {
			deltas = append(deltas, delta)
			lastBuffer = buffer
		})
	if err != nil {
		t.Fatalf("StreamComplete failed: %v", err)
	}

	if response != "Hello there!" {
		t.Errorf("Unexpected full response: %q", response)
	}
	if len(deltas) != 3 {
		t.Fatalf("Expected 3 deltas, got %v", deltas)
	}
	if lastBuffer != "Hello there!" {
		t.Errorf("Expected buffer to accumulate, got %q", lastBuffer)
	}
}

func TestStreamCompleteErrorStatus(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "server error", "code": "internal"}}`))
	})

	_, err := client.StreamComplete(context.Background(),
		[]models.ChatMessage{{Role: "user", Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("Expected error for 500 response")
	}

	var llmErr *LLMError
	if !errors.As(err, &llmErr) {
		t.Fatalf("Expected LLMError, got %T", err)
	}
	if !llmErr.Retryable {
		t.Error("5xx error should be retryable")
	}
}
