package dtos

import "time"

// ---- BATCH POLISH PIPELINE ----

type BatchStudentView struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	OCRStatus     string          `json:"ocr_status"`
	OCRText       string          `json:"ocr_text,omitempty"`
	ExtractedName string          `json:"extracted_name,omitempty"`
	MatchScore    float64         `json:"match_score"`
	Matched       bool            `json:"matched"`
	Sentences     []SentenceView  `json:"sentences,omitempty"`
}

type SentenceView struct {
	Position   int     `json:"position"`
	Original   string  `json:"original"`
	Polished   string  `json:"polished"`
	Confidence float64 `json:"confidence"`
	State      string  `json:"state"`
}

type BatchJobResponse struct {
	ID           string             `json:"id"`
	Status       string             `json:"status"`
	Requirements string             `json:"requirements"`
	PointsCost   int64              `json:"points_cost"`
	PointsRefund int64              `json:"points_refund"`
	Students     []BatchStudentView `json:"students"`
	CreatedAt    time.Time          `json:"created_at"`
}

type MatchSuggestion struct {
	StudentID     string  `json:"student_id"`
	ExtractedName string  `json:"extracted_name"`
	RosterName    string  `json:"roster_name"`
	Score         float64 `json:"score"`
	AutoConfirmed bool    `json:"auto_confirmed"`
}

type MatchResultResponse struct {
	JobID       string            `json:"job_id"`
	Suggestions []MatchSuggestion `json:"suggestions"`
	Unmatched   []string          `json:"unmatched"`
}

type PolishSummary struct {
	JobID            string `json:"job_id"`
	TotalStudents    int    `json:"total_students"`
	MatchedStudents  int    `json:"matched_students"`
	TotalSentences   int    `json:"total_sentences"`
	PolishedCount    int    `json:"polished_count"`
	FailedCount      int    `json:"failed_count"`
	FullyFailed      int    `json:"fully_failed_students"`
	PointsCost       int64  `json:"points_cost"`
	PointsRefunded   int64  `json:"points_refunded"`
}
