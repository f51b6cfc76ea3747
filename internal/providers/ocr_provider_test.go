package providers

import (
	"context"
	"encoding/json"
	"errors"
	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/models/dtos"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testOCRProvider(serverURL string) *OCRProvider {
	return &OCRProvider{
		BaseURL:      serverURL,
		APIKey:       "test-key",
		Client:       &http.Client{},
		PollInterval: time.Millisecond,
		MaxPolls:     5,
	}
}

func TestOCRProvider_RecognizeImage_Success(t *testing.T) {
	var polls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "POST" && r.URL.Path == "/ocr/tasks":
			json.NewEncoder(w).Encode(dtos.OCRSubmitResp{TaskID: "task-1"})
		case r.Method == "GET" && r.URL.Path == "/ocr/tasks/task-1":
			if atomic.AddInt32(&polls, 1) < 3 {
				json.NewEncoder(w).Encode(dtos.OCRPollResp{TaskID: "task-1", Status: "processing"})
				return
			}
			json.NewEncoder(w).Encode(dtos.OCRPollResp{TaskID: "task-1", Status: "done", Text: "Zhang Wei\nMy summer holiday was fun."})
		default:
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	provider := testOCRProvider(server.URL)

	text, err := provider.RecognizeImage(context.Background(), "https://img.example.com/sheet.jpg")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if text != "Zhang Wei\nMy summer holiday was fun." {
		t.Errorf("Unexpected text: %q", text)
	}
	if atomic.LoadInt32(&polls) != 3 {
		t.Errorf("Expected 3 polls, got %d", polls)
	}
}

func TestOCRProvider_RecognizeImage_JobFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			json.NewEncoder(w).Encode(dtos.OCRSubmitResp{TaskID: "task-2"})
			return
		}
		json.NewEncoder(w).Encode(dtos.OCRPollResp{
			TaskID: "task-2",
			Status: "failed",
			Error:  &dtos.ProviderErrorBody{Code: "blurry", Message: "image too blurry"},
		})
	}))
	defer server.Close()

	provider := testOCRProvider(server.URL)

	_, err := provider.RecognizeImage(context.Background(), "https://img.example.com/sheet.jpg")
	if err == nil {
		t.Fatal("Expected error for failed job")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProviderError, got %T", err)
	}
	if provErr.Code != constants.ErrCodeOCRJobFailed {
		t.Errorf("Expected code %s, got %s", constants.ErrCodeOCRJobFailed, provErr.Code)
	}
	if provErr.Message != "image too blurry" {
		t.Errorf("Expected provider message passed through, got %q", provErr.Message)
	}
}

func TestOCRProvider_RecognizeImage_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			json.NewEncoder(w).Encode(dtos.OCRSubmitResp{TaskID: "task-3"})
			return
		}
		json.NewEncoder(w).Encode(dtos.OCRPollResp{TaskID: "task-3", Status: "processing"})
	}))
	defer server.Close()

	provider := testOCRProvider(server.URL)

	_, err := provider.RecognizeImage(context.Background(), "https://img.example.com/sheet.jpg")
	if err == nil {
		t.Fatal("Expected timeout error")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProviderError, got %T", err)
	}
	if provErr.Code != constants.ErrCodeOCRTimeout {
		t.Errorf("Expected code %s, got %s", constants.ErrCodeOCRTimeout, provErr.Code)
	}
}

func TestOCRProvider_Submit_EmptyURL(t *testing.T) {
	provider := testOCRProvider("http://unused")

	_, err := provider.Submit(context.Background(), "")
	if err == nil {
		t.Error("Expected error for empty image URL")
	}
}

func TestOCRProvider_RecognizeImage_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			json.NewEncoder(w).Encode(dtos.OCRSubmitResp{TaskID: "task-4"})
			return
		}
		json.NewEncoder(w).Encode(dtos.OCRPollResp{TaskID: "task-4", Status: "processing"})
	}))
	defer server.Close()

	provider := testOCRProvider(server.URL)
	provider.PollInterval = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.RecognizeImage(ctx, "https://img.example.com/sheet.jpg")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
