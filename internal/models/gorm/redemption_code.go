package gorm

import "time"

// CodeTypePoints grants Value points; CodeTypeMembership grants Value days of
// PREMIUM membership.
const (
	CodeTypePoints     = "POINTS"
	CodeTypeMembership = "MEMBERSHIP"
)

type RedemptionCode struct {
	ID          string     `gorm:"column:id;primaryKey;type:uuid"`
	Code        string     `gorm:"column:code;uniqueIndex"`
	Type        string     `gorm:"column:type"`
	Value       int64      `gorm:"column:value"`
	Description string     `gorm:"column:description"`
	ExpiresAt   *time.Time `gorm:"column:expires_at"`
	UsedBy      *string    `gorm:"column:used_by;type:uuid"`
	UsedAt      *time.Time `gorm:"column:used_at"`
	IsActive    bool       `gorm:"column:is_active;default:true"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (RedemptionCode) TableName() string {
	return "redemption_codes"
}
