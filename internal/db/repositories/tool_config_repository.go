package repositories

import (
	"context"
	"fmt"

	gormModels "inkworks/redpen/internal/models/gorm"

	"gorm.io/gorm"
)

type ToolConfigRepository struct {
	db *gorm.DB
}

// NewToolConfigRepository creates a new GORM-based AI tool config repository
func NewToolConfigRepository(db *gorm.DB) *ToolConfigRepository {
	return &ToolConfigRepository{db: db}
}

// ListActive returns the active tool catalog.
func (r *ToolConfigRepository) ListActive(ctx context.Context) ([]gormModels.AIToolConfig, error) {
	var tools []gormModels.AIToolConfig
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("category, tool_name").
		Find(&tools).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return tools, nil
}

// GetByType fetches a single tool config by its key.
func (r *ToolConfigRepository) GetByType(ctx context.Context, toolType string) (*gormModels.AIToolConfig, error) {
	var tool gormModels.AIToolConfig
	err := r.db.WithContext(ctx).Where("tool_type = ?", toolType).First(&tool).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tool %s: %w", toolType, err)
	}
	return &tool, nil
}

// Upsert creates or updates a tool config keyed by tool_type.
func (r *ToolConfigRepository) Upsert(ctx context.Context, cfg *gormModels.AIToolConfig) error {
	var existing gormModels.AIToolConfig
	err := r.db.WithContext(ctx).Where("tool_type = ?", cfg.ToolType).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		if cerr := r.db.WithContext(ctx).Create(cfg).Error; cerr != nil {
			return fmt.Errorf("failed to create tool config: %w", cerr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check tool config: %w", err)
	}

	cfg.ID = existing.ID
	cfg.CreatedAt = existing.CreatedAt
	if uerr := r.db.WithContext(ctx).Save(cfg).Error; uerr != nil {
		return fmt.Errorf("failed to update tool config: %w", uerr)
	}
	return nil
}
