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
	"strings"
	"time"
)

// LLMProvider implements a provider for a chat-completions style model API
type LLMProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

// NewLLMProvider creates a new chat-completions provider
func NewLLMProvider() *LLMProvider {
	baseURL := os.Getenv("LLM_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1" // Default
	}
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	apiKey := os.Getenv("LLM_API_KEY")

	return &LLMProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// GetProviderType returns the provider type identifier
func (p *LLMProvider) GetProviderType() string {
	return "chat_completions"
}

// Complete runs a single system+user prompt and returns the raw completion text
func (p *LLMProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, int, error) {
	if userPrompt == "" {
		return "", 0, &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "User prompt cannot be empty",
		}
	}

	messages := []dtos.ChatMessage{}
	if systemPrompt != "" {
		messages = append(messages, dtos.ChatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, dtos.ChatMessage{Role: "user", Content: userPrompt})

	return p.doChat(ctx, messages, 0.7)
}

// ExtractSentences asks the model to split raw composition text into sentences.
// The completion must be a JSON array of strings.
func (p *LLMProvider) ExtractSentences(ctx context.Context, text string) ([]string, int, error) {
	if text == "" {
		return nil, 0, &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "Text cannot be empty",
		}
	}

	system := "You split student compositions into individual sentences. " +
		"Respond with a JSON array of strings, one sentence per element, in the original order. " +
		"Do not merge, drop or rewrite sentences. Respond with the JSON array only."

	raw, status, err := p.doChat(ctx, []dtos.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: text},
	}, 0.0)
	if err != nil {
		return nil, status, err
	}

	var sentences []string
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &sentences); err != nil {
		return nil, status, &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "Model did not return a JSON sentence array",
			Details: raw,
			Err:     err,
		}
	}

	return sentences, status, nil
}

// ExtractStudentName asks the model for the student name written on a scanned sheet
func (p *LLMProvider) ExtractStudentName(ctx context.Context, ocrText string) (string, int, error) {
	if ocrText == "" {
		return "", 0, &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "OCR text cannot be empty",
		}
	}

	system := "You read OCR output of a student assignment sheet and return the student's name. " +
		"Respond with the name only, no quotes, no explanation. " +
		"If no name is present respond with an empty string."

	raw, status, err := p.doChat(ctx, []dtos.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: ocrText},
	}, 0.0)
	if err != nil {
		return "", status, err
	}

	return strings.TrimSpace(raw), status, nil
}

// PolishSentence asks the model to polish a single sentence under the given
// requirements. The completion must be a JSON object with polished text and a
// confidence score.
func (p *LLMProvider) PolishSentence(ctx context.Context, sentence, requirements string) (*dtos.PolishedSentenceResult, int, error) {
	if sentence == "" {
		return nil, 0, &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "Sentence cannot be empty",
		}
	}

	system := "You polish English sentences written by students learning the language. " +
		"Keep the student's meaning, fix grammar and improve word choice. " +
		`Respond with a JSON object: {"polished": "<text>", "confidence": <0..1>}. ` +
		"Respond with the JSON object only."
	if requirements != "" {
		system += " Teacher requirements: " + requirements
	}

	raw, status, err := p.doChat(ctx, []dtos.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: sentence},
	}, 0.3)
	if err != nil {
		return nil, status, err
	}

	var result dtos.PolishedSentenceResult
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &result); err != nil {
		return nil, status, &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "Model did not return a JSON polish result",
			Details: raw,
			Err:     err,
		}
	}
	if result.Polished == "" {
		return nil, status, &ProviderError{
			Code:    constants.ErrCodeEmptyCompletion,
			Message: constants.GetErrorMessage(constants.ErrCodeEmptyCompletion),
			Details: raw,
		}
	}

	return &result, status, nil
}

// ============================================================================
// HTTP Helper Methods
// ============================================================================

// doChat performs a chat-completions request and returns the first choice text
func (p *LLMProvider) doChat(ctx context.Context, messages []dtos.ChatMessage, temperature float64) (string, int, error) {
	// Validate API key
	if p.APIKey == "" {
		return "", 0, &ProviderError{
			Code:    constants.ErrCodeInvalidAPIKey,
			Message: "LLM_API_KEY environment variable is not set",
		}
	}

	payload := dtos.ChatCompletionReq{
		Model:       p.Model,
		Messages:    messages,
		Temperature: temperature,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", 0, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to marshal request body",
			Err:     err,
		}
	}

	url := p.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payloadBytes))
	if err != nil {
		return "", 0, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to create request",
			Err:     err,
		}
	}

	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", 0, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	bodyBytes, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return "", resp.StatusCode, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to read response body",
			Err:     readErr,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp.StatusCode, buildHTTPError(resp.StatusCode, "/chat/completions", string(bodyBytes))
	}

	var completion dtos.ChatCompletionResp
	if err := json.Unmarshal(bodyBytes, &completion); err != nil {
		return "", resp.StatusCode, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to decode response",
			Details: string(bodyBytes),
			Err:     err,
		}
	}

	if completion.Error != nil {
		return "", resp.StatusCode, &ProviderError{
			Code:    constants.ErrCodeProviderError,
			Message: completion.Error.Message,
			Details: string(bodyBytes),
		}
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", resp.StatusCode, &ProviderError{
			Code:    constants.ErrCodeEmptyCompletion,
			Message: constants.GetErrorMessage(constants.ErrCodeEmptyCompletion),
			Details: string(bodyBytes),
		}
	}

	return completion.Choices[0].Message.Content, resp.StatusCode, nil
}

// buildHTTPError creates appropriate error based on status code
func buildHTTPError(statusCode int, endpoint string, body string) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return &ProviderError{
			Code:    constants.ErrCodeInvalidAPIKey,
			Message: fmt.Sprintf("Authentication failed for endpoint %s", endpoint),
			Details: body,
		}
	case http.StatusNotFound:
		return &ProviderError{
			Code:    "RESOURCE_NOT_FOUND",
			Message: fmt.Sprintf("Resource not found: %s", endpoint),
			Details: body,
		}
	case http.StatusTooManyRequests:
		return &ProviderError{
			Code:    constants.ErrCodeRateLimited,
			Message: constants.GetErrorMessage(constants.ErrCodeRateLimited),
			Details: body,
		}
	case http.StatusBadRequest:
		return &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: fmt.Sprintf("Bad request to %s", endpoint),
			Details: body,
		}
	default:
		return &ProviderError{
			Code:    constants.ErrCodeProviderError,
			Message: fmt.Sprintf("HTTP %d from %s: %s", statusCode, endpoint, body),
			Details: body,
		}
	}
}

// stripCodeFence removes a markdown code fence the model sometimes wraps JSON in
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
