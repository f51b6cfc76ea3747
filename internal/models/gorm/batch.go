package gorm

import (
	"inkworks/redpen/internal/constants"
	"time"
)

// BatchJob persists a polish run across its stages so a reconnecting client
// (or a worker restart) can pick up where it left off.
type BatchJob struct {
	ID           string                `gorm:"column:id;primaryKey;type:uuid"`
	OwnerID      string                `gorm:"column:owner_id;type:uuid;index"`
	Status       constants.BatchStatus `gorm:"column:status;default:draft"`
	Requirements string                `gorm:"column:requirements"`
	PointsCost   int64                 `gorm:"column:points_cost;default:0"`
	PointsRefund int64                 `gorm:"column:points_refund;default:0"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`

	// Relationships
	Students []BatchStudent `gorm:"foreignKey:JobID"`
}

// TableName specifies the table name for GORM
func (BatchJob) TableName() string {
	return "batch_jobs"
}

type BatchStudent struct {
	ID            string              `gorm:"column:id;primaryKey;type:uuid"`
	JobID         string              `gorm:"column:job_id;type:uuid;index"`
	Name          string              `gorm:"column:name"`
	OCRText       string              `gorm:"column:ocr_text"`
	OCRStatus     constants.OCRStatus `gorm:"column:ocr_status;default:pending"`
	OCRAttempts   int                 `gorm:"column:ocr_attempts;default:0"`
	ExtractedName string              `gorm:"column:extracted_name"`
	MatchScore    float64             `gorm:"column:match_score;default:0"`
	Matched       bool                `gorm:"column:matched;default:false"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	// Relationships
	Sentences []BatchSentence `gorm:"foreignKey:StudentID"`
}

// TableName specifies the table name for GORM
func (BatchStudent) TableName() string {
	return "batch_students"
}

type BatchSentence struct {
	ID         string                  `gorm:"column:id;primaryKey;type:uuid"`
	StudentID  string                  `gorm:"column:student_id;type:uuid;index"`
	Position   int                     `gorm:"column:position"`
	Original   string                  `gorm:"column:original"`
	Polished   string                  `gorm:"column:polished"`
	Confidence float64                 `gorm:"column:confidence;default:0"`
	State      constants.SentenceState `gorm:"column:state;default:pending"`
	UpdatedAt  time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (BatchSentence) TableName() string {
	return "batch_sentences"
}
