package gorm

import (
	"inkworks/redpen/internal/constants"
	"time"
)

type Membership struct {
	ID             string                   `gorm:"column:id;primaryKey;type:uuid"`
	UserID         string                   `gorm:"column:user_id;type:uuid;index"`
	MembershipType constants.MembershipType `gorm:"column:membership_type;type:membership_type"`
	DailyPoints    int64                    `gorm:"column:daily_points;default:0"`
	StartsAt       time.Time                `gorm:"column:starts_at"`
	ExpiresAt      time.Time                `gorm:"column:expires_at"`
	IsActive       bool                     `gorm:"column:is_active;default:true"`
	CreatedAt      time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                `gorm:"column:updated_at;autoUpdateTime"`

	// Relationships
	User User `gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for GORM
func (Membership) TableName() string {
	return "memberships"
}

// DailyRewardClaim records one claimed login bonus per user per calendar date
// (Asia/Shanghai). The unique pair is the idempotency key.
type DailyRewardClaim struct {
	ID         string    `gorm:"column:id;primaryKey;type:uuid"`
	UserID     string    `gorm:"column:user_id;type:uuid;uniqueIndex:idx_user_reward_date"`
	RewardDate string    `gorm:"column:reward_date;uniqueIndex:idx_user_reward_date"`
	Points     int64     `gorm:"column:points"`
	ClaimedAt  time.Time `gorm:"column:claimed_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (DailyRewardClaim) TableName() string {
	return "daily_reward_claims"
}
