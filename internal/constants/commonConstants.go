package constants

type (
	RequestSource string
	APIStatus     string
	CachePrefix   string
	BatchStatus   string
	OCRStatus     string
	SentenceState string
)

const (
	RequestSourceAPI       RequestSource = "API"
	RequestSourceWebClient RequestSource = "WEB_CLIENT"

	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixBalance     CachePrefix = "BAL_"
	CachePrefixToolCatalog CachePrefix = "TOOL_CATALOG"
	CachePrefixMembership  CachePrefix = "MEMBER_"
	CachePrefixBatchStats  CachePrefix = "BATCH_STATS_"
)

// Batch polish job lifecycle. A job moves forward only; RetryFailed re-enters
// 'polishing' from 'completed' when failed sentences remain.
const (
	BatchDraft      BatchStatus = "draft"
	BatchOCRPending BatchStatus = "ocr_pending"
	BatchMatching   BatchStatus = "matching"
	BatchPolishing  BatchStatus = "polishing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

const (
	OCRPending   OCRStatus = "pending"
	OCRDone      OCRStatus = "done"
	OCRFailed    OCRStatus = "failed"
	OCRConfirmed OCRStatus = "confirmed"
)

const (
	SentencePending  SentenceState = "pending"
	SentencePolished SentenceState = "polished"
	SentenceFailed   SentenceState = "failed"
)

// Name matching thresholds: above Confirm the match is applied automatically,
// above Suggest it is surfaced for manual confirmation.
const (
	MatchConfirmThreshold = 0.8
	MatchSuggestThreshold = 0.3
)

// PolishCostFactor is the per-student point price of a polish run.
// Charge for N students = ceil(1.5 * N).
const PolishCostFactor = 1.5

// Redis Streams coordinates for the polish pipeline.
const (
	PolishStreamName    = "polish:sentences"
	PolishConsumerGroup = "polish-workers"
)

// RewardTimezone anchors the daily-reward calendar date.
const RewardTimezone = "Asia/Shanghai"
