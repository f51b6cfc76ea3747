package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	gormModels "inkworks/redpen/internal/models/gorm"

	"gorm.io/gorm"
)

var (
	ErrCodeNotFound    = errors.New("redemption code not found")
	ErrCodeAlreadyUsed = errors.New("redemption code already used")
	ErrCodeExpired     = errors.New("redemption code expired")
)

type RedemptionRepository struct {
	db *gorm.DB
}

// NewRedemptionRepository creates a new GORM-based redemption code repository
func NewRedemptionRepository(db *gorm.DB) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

// Consume marks a code as used by the given user. The guarded UPDATE
// (used_by IS NULL) makes the code single-use even under concurrent redeems;
// the loser of the race sees zero rows affected.
func (r *RedemptionRepository) Consume(ctx context.Context, code, userID string) (*gormModels.RedemptionCode, error) {
	var rc gormModels.RedemptionCode

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("code = ? AND is_active = ?", code, true).First(&rc).Error
		if err == gorm.ErrRecordNotFound {
			return ErrCodeNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to fetch code: %w", err)
		}

		if rc.ExpiresAt != nil && rc.ExpiresAt.Before(time.Now()) {
			return ErrCodeExpired
		}
		if rc.UsedBy != nil {
			return ErrCodeAlreadyUsed
		}

		now := time.Now()
		res := tx.Model(&gormModels.RedemptionCode{}).
			Where("id = ? AND used_by IS NULL", rc.ID).
			Updates(map[string]interface{}{"used_by": userID, "used_at": now})

		if res.Error != nil {
			return fmt.Errorf("failed to consume code: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCodeAlreadyUsed
		}

		rc.UsedBy = &userID
		rc.UsedAt = &now
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// InsertBatch stores freshly generated codes.
func (r *RedemptionRepository) InsertBatch(ctx context.Context, codes []gormModels.RedemptionCode) error {
	if len(codes) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&codes).Error; err != nil {
		return fmt.Errorf("failed to insert codes: %w", err)
	}
	return nil
}
