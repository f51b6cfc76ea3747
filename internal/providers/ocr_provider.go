package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/models/dtos"
	"io"
	"net/http"
	"os"
	"time"
)

// OCRProvider implements an async job-based OCR API client.
// A recognition request is submitted, then the task is polled until it
// finishes or the polling window is exhausted.
type OCRProvider struct {
	BaseURL      string
	APIKey       string
	Client       *http.Client
	PollInterval time.Duration
	MaxPolls     int
}

// NewOCRProvider creates a new OCR provider
func NewOCRProvider() *OCRProvider {
	baseURL := os.Getenv("OCR_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.ocr.example.com/v1" // Default
	}
	apiKey := os.Getenv("OCR_API_KEY")

	return &OCRProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout: 15 * time.Second,
		},
		PollInterval: 5 * time.Second,
		MaxPolls:     60,
	}
}

// GetProviderType returns the provider type identifier
func (p *OCRProvider) GetProviderType() string {
	return "async_ocr"
}

// RecognizeImage submits an image and polls the task until it produces text.
// Polling is bounded by MaxPolls; a task still processing after the window
// counts as a timeout.
func (p *OCRProvider) RecognizeImage(ctx context.Context, imageURL string) (string, error) {
	taskID, err := p.Submit(ctx, imageURL)
	if err != nil {
		return "", err
	}

	for i := 0; i < p.MaxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.PollInterval):
		}

		poll, err := p.Poll(ctx, taskID)
		if err != nil {
			return "", err
		}

		switch poll.Status {
		case "done":
			return poll.Text, nil
		case "failed":
			msg := constants.GetErrorMessage(constants.ErrCodeOCRJobFailed)
			if poll.Error != nil && poll.Error.Message != "" {
				msg = poll.Error.Message
			}
			return "", &ProviderError{
				Code:    constants.ErrCodeOCRJobFailed,
				Message: msg,
			}
		}
	}

	return "", &ProviderError{
		Code:    constants.ErrCodeOCRTimeout,
		Message: constants.GetErrorMessage(constants.ErrCodeOCRTimeout),
		Details: fmt.Sprintf("task %s still processing after %d polls", taskID, p.MaxPolls),
	}
}

// Submit creates a recognition task and returns its ID
func (p *OCRProvider) Submit(ctx context.Context, imageURL string) (string, error) {
	if imageURL == "" {
		return "", &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "Image URL cannot be empty",
		}
	}

	var result dtos.OCRSubmitResp
	if err := p.doPost(ctx, "/ocr/tasks", dtos.OCRSubmitReq{ImageURL: imageURL, Language: "en"}, &result); err != nil {
		return "", err
	}

	if result.Error != nil {
		return "", &ProviderError{
			Code:    constants.ErrCodeProviderError,
			Message: result.Error.Message,
		}
	}
	if result.TaskID == "" {
		return "", &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "OCR provider returned no task ID",
		}
	}

	return result.TaskID, nil
}

// Poll fetches the current state of a recognition task
func (p *OCRProvider) Poll(ctx context.Context, taskID string) (*dtos.OCRPollResp, error) {
	if taskID == "" {
		return nil, &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "Task ID cannot be empty",
		}
	}

	var result dtos.OCRPollResp
	if err := p.doGET(ctx, "/ocr/tasks/"+taskID, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ============================================================================
// HTTP Helper Methods
// ============================================================================

func (p *OCRProvider) doGET(ctx context.Context, endpoint string, result interface{}) error {
	if p.APIKey == "" {
		return &ProviderError{
			Code:    constants.ErrCodeInvalidAPIKey,
			Message: "OCR_API_KEY environment variable is not set",
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", p.BaseURL+endpoint, nil)
	if err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to create request",
			Err:     err,
		}
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	return p.decodeResponse(resp, endpoint, result)
}

func (p *OCRProvider) doPost(ctx context.Context, endpoint string, payload interface{}, result interface{}) error {
	if p.APIKey == "" {
		return &ProviderError{
			Code:    constants.ErrCodeInvalidAPIKey,
			Message: "OCR_API_KEY environment variable is not set",
		}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to marshal request body",
			Err:     err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+endpoint, bytes.NewReader(payloadBytes))
	if err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to create request",
			Err:     err,
		}
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	return p.decodeResponse(resp, endpoint, result)
}

func (p *OCRProvider) decodeResponse(resp *http.Response, endpoint string, result interface{}) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to read response body",
			Err:     err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return buildHTTPError(resp.StatusCode, endpoint, string(bodyBytes))
	}

	if err := json.Unmarshal(bodyBytes, result); err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to decode response",
			Details: string(bodyBytes),
			Err:     err,
		}
	}

	return nil
}
