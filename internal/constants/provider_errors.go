package constants

// AI Provider Error Codes
// These constants define specific error scenarios for the external OCR and LLM providers

const (
	ErrCodeInvalidAPIKey     = "INVALID_API_KEY"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeNetworkError      = "NETWORK_ERROR"
	ErrCodeProviderError     = "PROVIDER_ERROR"
	ErrCodeInvalidDataFormat = "INVALID_DATA_FORMAT"
	ErrCodeOCRTimeout        = "OCR_TIMEOUT"
	ErrCodeOCRJobFailed      = "OCR_JOB_FAILED"
	ErrCodeEmptyCompletion   = "EMPTY_COMPLETION"
)

// Error Messages
// Human-readable messages corresponding to error codes

var ProviderErrorMessages = map[string]string{
	ErrCodeInvalidAPIKey:     "The provider API key is invalid or has been revoked",
	ErrCodeRateLimited:       "Rate limit exceeded. Please try again later",
	ErrCodeNetworkError:      "Unable to reach the provider",
	ErrCodeProviderError:     "The provider returned an error",
	ErrCodeInvalidDataFormat: "The data format is invalid",
	ErrCodeOCRTimeout:        "OCR job did not finish within the polling window",
	ErrCodeOCRJobFailed:      "OCR job failed on the provider side",
	ErrCodeEmptyCompletion:   "The model returned an empty completion",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := ProviderErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}
