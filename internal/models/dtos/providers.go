package dtos

// ---- LLM PROVIDER (chat-completions wire format) ----

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionReq struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type ChatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type ChatCompletionResp struct {
	ID      string                 `json:"id"`
	Choices []ChatCompletionChoice `json:"choices"`
	Error   *ProviderErrorBody     `json:"error,omitempty"`
}

type ProviderErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PolishedSentenceResult is the structured payload the polish prompt asks the
// model to return for a single sentence.
type PolishedSentenceResult struct {
	Polished   string  `json:"polished"`
	Confidence float64 `json:"confidence"`
}

// ---- OCR PROVIDER (async job wire format) ----

type OCRSubmitReq struct {
	ImageURL string `json:"image_url"`
	Language string `json:"language,omitempty"`
}

type OCRSubmitResp struct {
	TaskID string             `json:"task_id"`
	Error  *ProviderErrorBody `json:"error,omitempty"`
}

type OCRPollResp struct {
	TaskID string             `json:"task_id"`
	Status string             `json:"status"` // "processing", "done", "failed"
	Text   string             `json:"text,omitempty"`
	Error  *ProviderErrorBody `json:"error,omitempty"`
}
