package repositories

import (
	"context"
	"fmt"
	"time"

	"inkworks/redpen/internal/constants"
	gormModels "inkworks/redpen/internal/models/gorm"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new GORM-based membership repository
func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// GetActive returns the user's current active, unexpired membership, or nil
// when the user is on the free tier.
func (r *MembershipRepository) GetActive(ctx context.Context, userID string) (*gormModels.Membership, error) {
	var m gormModels.Membership

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, time.Now()).
		Order("expires_at DESC").
		First(&m).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch membership: %w", err)
	}

	return &m, nil
}

// Activate deactivates any previous membership rows and creates the new one
// in a single transaction. Renewal of the same tier extends from the later of
// now and the previous expiry.
func (r *MembershipRepository) Activate(ctx context.Context, userID string, tier constants.MembershipType, dailyPoints int64, durationDays int) (*gormModels.Membership, error) {
	var created gormModels.Membership

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		startsAt := time.Now()

		var prev gormModels.Membership
		err := tx.Where("user_id = ? AND is_active = ?", userID, true).
			Order("expires_at DESC").
			First(&prev).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to check previous membership: %w", err)
		}

		if err == nil {
			if prev.MembershipType == tier && prev.ExpiresAt.After(startsAt) {
				startsAt = prev.ExpiresAt
			}
			if uerr := tx.Model(&gormModels.Membership{}).
				Where("user_id = ? AND is_active = ?", userID, true).
				Update("is_active", false).Error; uerr != nil {
				return fmt.Errorf("failed to deactivate previous membership: %w", uerr)
			}
		}

		created = gormModels.Membership{
			ID:             uuid.NewString(),
			UserID:         userID,
			MembershipType: tier,
			DailyPoints:    dailyPoints,
			StartsAt:       startsAt,
			ExpiresAt:      startsAt.AddDate(0, 0, durationDays),
			IsActive:       true,
		}

		if cerr := tx.Create(&created).Error; cerr != nil {
			return fmt.Errorf("failed to create membership: %w", cerr)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &created, nil
}

// DeactivateExpired flips is_active off for memberships past their expiry.
// Returns the number of rows touched; used by the hourly expiry job.
func (r *MembershipRepository) DeactivateExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&gormModels.Membership{}).
		Where("is_active = ? AND expires_at <= ?", true, time.Now()).
		Update("is_active", false)

	if res.Error != nil {
		return 0, fmt.Errorf("failed to deactivate expired memberships: %w", res.Error)
	}
	return res.RowsAffected, nil
}
