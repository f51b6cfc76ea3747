package gorm

import (
	"inkworks/redpen/internal/constants"
	"time"
)

type User struct {
	ID        string             `gorm:"column:id;primaryKey;type:uuid"`
	Email     string             `gorm:"column:email;uniqueIndex"`
	UserName  *string            `gorm:"column:username"`
	Role      constants.UserRole `gorm:"column:role;type:user_role;default:student"`
	IsActive  bool               `gorm:"column:is_active;default:true"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`

	// Relationships
	Memberships []Membership `gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}
