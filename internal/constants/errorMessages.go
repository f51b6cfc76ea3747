package constants

const (
	StatusError              = "Error"
	StatusInsufficientPoints = "Insufficient points balance"
	StatusAlreadyClaimed     = "Daily reward already claimed"
	StatusCodeUsed           = "Redemption code already used"
	StatusCodeExpired        = "Redemption code expired"
	StatusCodeNotFound       = "Redemption code not found"
	StatusToolInactive       = "AI tool is not available"
	StatusToolProOnly        = "AI tool requires an active membership"
	StatusBatchNotFound      = "Batch job not found"
)

const (
	MsgOCRFailed       = "OCR provider failed after retry"
	MsgPolishFailed    = "Sentence polishing failed"
	MsgExtractFallback = "AI extraction failed, fell back to punctuation split"
)
