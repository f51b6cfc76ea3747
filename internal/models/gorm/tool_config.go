package gorm

import "time"

type AIToolConfig struct {
	ID           string    `gorm:"column:id;primaryKey;type:uuid"`
	ToolType     string    `gorm:"column:tool_type;uniqueIndex"`
	ToolName     string    `gorm:"column:tool_name"`
	Description  string    `gorm:"column:description"`
	Category     string    `gorm:"column:category"`
	StandardCost int64     `gorm:"column:standard_cost"`
	ProCost      int64     `gorm:"column:pro_cost"`
	IsProOnly    bool      `gorm:"column:is_pro_only;default:false"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (AIToolConfig) TableName() string {
	return "ai_tool_configs"
}
