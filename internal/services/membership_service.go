package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inkworks/redpen/internal/common"
	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/db/repositories"
	"inkworks/redpen/internal/models/dtos"
)

type MembershipService struct {
	repo   *repositories.MembershipRepository
	points PointsLedger
	cache  common.CacheInterface
}

func NewMembershipService(repo *repositories.MembershipRepository, points PointsLedger, cache common.CacheInterface) *MembershipService {
	return &MembershipService{
		repo:   repo,
		points: points,
		cache:  cache,
	}
}

// GetActive returns the user's current membership, or nil on the free tier
func (s *MembershipService) GetActive(ctx context.Context, userID string) (*dtos.MembershipResponse, error) {
	m, err := s.repo.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}

	return &dtos.MembershipResponse{
		MembershipType: m.MembershipType.String(),
		DailyPoints:    m.DailyPoints,
		ExpiresAt:      m.ExpiresAt,
		IsActive:       m.IsActive,
	}, nil
}

// Activate records a paid activation. Payment itself happens outside this
// system; the caller passes the external payment reference for the ledger.
func (s *MembershipService) Activate(ctx context.Context, userID, tierName string, durationDays int, paymentRef string) (*dtos.MembershipResponse, error) {
	tier := constants.MembershipType(tierName)
	if !tier.IsPaid() {
		return nil, fmt.Errorf("membership type %q cannot be activated", tierName)
	}
	if durationDays < 1 {
		return nil, fmt.Errorf("duration must be at least one day")
	}

	return s.activate(ctx, userID, tier, durationDays, "payment "+paymentRef)
}

// Grant activates a membership without payment, e.g. from a redemption code.
func (s *MembershipService) Grant(ctx context.Context, userID string, tier constants.MembershipType, durationDays int, source string) (*dtos.MembershipResponse, error) {
	if !tier.IsPaid() {
		return nil, fmt.Errorf("membership type %q cannot be granted", tier)
	}
	if durationDays < 1 {
		return nil, fmt.Errorf("duration must be at least one day")
	}
	return s.activate(ctx, userID, tier, durationDays, source)
}

func (s *MembershipService) activate(ctx context.Context, userID string, tier constants.MembershipType, durationDays int, source string) (*dtos.MembershipResponse, error) {
	m, err := s.repo.Activate(ctx, userID, tier, tier.DailyPoints(), durationDays)
	if err != nil {
		return nil, err
	}

	// Amount-zero ledger row so membership history shows up next to point
	// history; the balance itself does not move.
	meta, _ := json.Marshal(map[string]any{"tier": tier.String(), "days": durationDays, "source": source})
	if _, lerr := s.points.Grant(ctx, userID, 0, constants.TxMembership, "Membership "+tier.String(), &m.ID, meta); lerr != nil {
		return nil, fmt.Errorf("membership activated but ledger write failed: %w", lerr)
	}

	if s.cache != nil {
		s.cache.Delete(string(constants.CachePrefixMembership) + userID)
	}

	return &dtos.MembershipResponse{
		MembershipType: m.MembershipType.String(),
		DailyPoints:    m.DailyPoints,
		ExpiresAt:      m.ExpiresAt,
		IsActive:       m.IsActive,
	}, nil
}

// IsPaidMember reports whether the user holds an active paid membership,
// with a short cache in front of the lookup.
func (s *MembershipService) IsPaidMember(ctx context.Context, userID string) (bool, error) {
	key := string(constants.CachePrefixMembership) + userID
	if s.cache != nil {
		if val, found := s.cache.Get(key); found {
			if paid, ok := val.(bool); ok {
				return paid, nil
			}
		}
	}

	m, err := s.repo.GetActive(ctx, userID)
	if err != nil {
		return false, err
	}
	paid := m != nil && m.MembershipType.IsPaid()

	if s.cache != nil {
		s.cache.Set(key, paid, 60*time.Second)
	}
	return paid, nil
}

// ExpireOverdue deactivates memberships past their expiry date
func (s *MembershipService) ExpireOverdue(ctx context.Context) (int64, error) {
	return s.repo.DeactivateExpired(ctx)
}
