package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gormModels "inkworks/redpen/internal/models/gorm"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrRewardAlreadyClaimed is returned when the (user_id, reward_date) pair
// already exists. The unique index is the idempotency key; no description
// string matching is involved.
var ErrRewardAlreadyClaimed = errors.New("daily reward already claimed")

type DailyRewardRepository struct {
	db *gorm.DB
}

// NewDailyRewardRepository creates a new GORM-based daily reward repository
func NewDailyRewardRepository(db *gorm.DB) *DailyRewardRepository {
	return &DailyRewardRepository{db: db}
}

// InsertClaim records a claim for the given calendar date. The unique index
// on (user_id, reward_date) rejects a second claim for the same date.
func (r *DailyRewardRepository) InsertClaim(ctx context.Context, userID, rewardDate string, points int64) error {
	claim := gormModels.DailyRewardClaim{
		ID:         uuid.NewString(),
		UserID:     userID,
		RewardDate: rewardDate,
		Points:     points,
	}

	err := r.db.WithContext(ctx).Create(&claim).Error
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRewardAlreadyClaimed
		}
		return fmt.Errorf("failed to insert reward claim: %w", err)
	}
	return nil
}

// HasClaimed reports whether the user already claimed for the given date.
func (r *DailyRewardRepository) HasClaimed(ctx context.Context, userID, rewardDate string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&gormModels.DailyRewardClaim{}).
		Where("user_id = ? AND reward_date = ?", userID, rewardDate).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check reward claim: %w", err)
	}
	return count > 0, nil
}

// DeleteClaim removes a claim row. Used to roll back a claim whose point
// grant failed, so the user can claim again.
func (r *DailyRewardRepository) DeleteClaim(ctx context.Context, userID, rewardDate string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND reward_date = ?", userID, rewardDate).
		Delete(&gormModels.DailyRewardClaim{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete reward claim: %w", err)
	}
	return nil
}

// isUniqueViolation matches both Postgres (23505) and sqlite unique errors so
// the same check works in production and in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
