package providers

import (
	"context"
	"encoding/json"
	"errors"
	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/models/dtos"
	"net/http"
	"net/http/httptest"
	"testing"
)

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}

		response := dtos.ChatCompletionResp{
			ID: "cmpl-test",
			Choices: []dtos.ChatCompletionChoice{
				{Index: 0, Message: dtos.ChatMessage{Role: "assistant", Content: content}, FinishReason: "stop"},
			},
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}))
}

func testLLMProvider(serverURL string) *LLMProvider {
	return &LLMProvider{
		BaseURL: serverURL,
		APIKey:  "test-key",
		Model:   "test-model",
		Client:  &http.Client{},
	}
}

func TestLLMProvider_PolishSentence_Success(t *testing.T) {
	server := completionServer(t, `{"polished": "I went to school yesterday.", "confidence": 0.92}`)
	defer server.Close()

	provider := testLLMProvider(server.URL)

	ctx := context.Background()
	result, status, err := provider.PolishSentence(ctx, "I go to school yesterday.", "keep it simple")

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", status)
	}
	if result.Polished != "I went to school yesterday." {
		t.Errorf("Unexpected polished text: %s", result.Polished)
	}
	if result.Confidence != 0.92 {
		t.Errorf("Expected confidence 0.92, got %f", result.Confidence)
	}
}

func TestLLMProvider_PolishSentence_CodeFencedJSON(t *testing.T) {
	server := completionServer(t, "```json\n{\"polished\": \"Better.\", \"confidence\": 0.8}\n```")
	defer server.Close()

	provider := testLLMProvider(server.URL)

	result, _, err := provider.PolishSentence(context.Background(), "Gooder.", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Polished != "Better." {
		t.Errorf("Unexpected polished text: %s", result.Polished)
	}
}

func TestLLMProvider_PolishSentence_EmptySentence(t *testing.T) {
	provider := testLLMProvider("http://unused")

	_, status, err := provider.PolishSentence(context.Background(), "", "")
	if err == nil {
		t.Error("Expected error for empty sentence")
	}
	if status != 0 {
		t.Errorf("Expected status 0, got %d", status)
	}
}

func TestLLMProvider_ExtractSentences_Success(t *testing.T) {
	server := completionServer(t, `["First sentence.", "Second sentence."]`)
	defer server.Close()

	provider := testLLMProvider(server.URL)

	sentences, _, err := provider.ExtractSentences(context.Background(), "First sentence. Second sentence.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(sentences) != 2 {
		t.Fatalf("Expected 2 sentences, got %d", len(sentences))
	}
	if sentences[1] != "Second sentence." {
		t.Errorf("Unexpected second sentence: %s", sentences[1])
	}
}

func TestLLMProvider_ExtractSentences_NotJSON(t *testing.T) {
	server := completionServer(t, "Sure! Here are the sentences you asked for.")
	defer server.Close()

	provider := testLLMProvider(server.URL)

	_, _, err := provider.ExtractSentences(context.Background(), "Some text.")
	if err == nil {
		t.Fatal("Expected error for non-JSON completion")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProviderError, got %T", err)
	}
	if provErr.Code != constants.ErrCodeInvalidDataFormat {
		t.Errorf("Expected code %s, got %s", constants.ErrCodeInvalidDataFormat, provErr.Code)
	}
}

func TestLLMProvider_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(dtos.ChatCompletionResp{ID: "cmpl-empty"})
	}))
	defer server.Close()

	provider := testLLMProvider(server.URL)

	_, _, err := provider.Complete(context.Background(), "", "hello")
	if err == nil {
		t.Fatal("Expected error for empty choices")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProviderError, got %T", err)
	}
	if provErr.Code != constants.ErrCodeEmptyCompletion {
		t.Errorf("Expected code %s, got %s", constants.ErrCodeEmptyCompletion, provErr.Code)
	}
}

func TestLLMProvider_Complete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"code": "rate_limited", "message": "slow down"}}`))
	}))
	defer server.Close()

	provider := testLLMProvider(server.URL)

	_, status, err := provider.Complete(context.Background(), "", "hello")
	if err == nil {
		t.Fatal("Expected error for 429 response")
	}
	if status != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", status)
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProviderError, got %T", err)
	}
	if provErr.Code != constants.ErrCodeRateLimited {
		t.Errorf("Expected code %s, got %s", constants.ErrCodeRateLimited, provErr.Code)
	}
}

func TestLLMProvider_Complete_MissingAPIKey(t *testing.T) {
	provider := &LLMProvider{BaseURL: "http://unused", Model: "test-model", Client: &http.Client{}}

	_, _, err := provider.Complete(context.Background(), "", "hello")
	if err == nil {
		t.Fatal("Expected error when API key is missing")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProviderError, got %T", err)
	}
	if provErr.Code != constants.ErrCodeInvalidAPIKey {
		t.Errorf("Expected code %s, got %s", constants.ErrCodeInvalidAPIKey, provErr.Code)
	}
}
