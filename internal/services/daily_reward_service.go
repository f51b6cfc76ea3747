package services

import (
	"context"
	"fmt"
	"time"

	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/db/repositories"
	"inkworks/redpen/internal/logging"
	"inkworks/redpen/internal/models/dtos"
)

type DailyRewardService struct {
	claims      *repositories.DailyRewardRepository
	memberships *repositories.MembershipRepository
	points      PointsLedger
}

func NewDailyRewardService(claims *repositories.DailyRewardRepository, memberships *repositories.MembershipRepository, points PointsLedger) *DailyRewardService {
	return &DailyRewardService{
		claims:      claims,
		memberships: memberships,
		points:      points,
	}
}

// rewardLocation is the calendar anchoring every reward date. A claim at
// 23:59 and one at 00:01 Beijing time fall on different dates regardless of
// the server's timezone.
var rewardLocation = mustLoadLocation(constants.RewardTimezone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}

// RewardDate formats the calendar date a claim at the given instant belongs to
func RewardDate(t time.Time) string {
	return t.In(rewardLocation).Format("2006-01-02")
}

// Claim grants today's login bonus. The (user_id, reward_date) unique index
// decides idempotency: the first insert wins, a second same-day call returns
// ErrRewardAlreadyClaimed and grants nothing.
func (s *DailyRewardService) Claim(ctx context.Context, userID string) (*dtos.DailyRewardResponse, error) {
	rewardDate := RewardDate(time.Now())

	amount := constants.MembershipFree.DailyPoints()
	membership, err := s.memberships.GetActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve membership: %w", err)
	}
	if membership != nil {
		if membership.DailyPoints > 0 {
			amount = membership.DailyPoints
		} else {
			amount = membership.MembershipType.DailyPoints()
		}
	}

	if err := s.claims.InsertClaim(ctx, userID, rewardDate, amount); err != nil {
		return nil, err
	}

	balance, err := s.points.Grant(ctx, userID, amount, constants.TxBonus, "Daily login reward", nil, nil)
	if err != nil {
		// Release the claim so the user can retry; otherwise the day is
		// burned without any points granted.
		if delErr := s.claims.DeleteClaim(ctx, userID, rewardDate); delErr != nil {
			logging.Error("failed to release reward claim after grant failure",
				"user_id", userID, "reward_date", rewardDate, "error", delErr.Error())
		}
		return nil, fmt.Errorf("failed to grant daily reward: %w", err)
	}

	return &dtos.DailyRewardResponse{
		Claimed:    true,
		Points:     amount,
		RewardDate: rewardDate,
		Balance:    balance,
	}, nil
}

// Status reports whether today's reward has been claimed
func (s *DailyRewardService) Status(ctx context.Context, userID string) (*dtos.DailyRewardResponse, error) {
	rewardDate := RewardDate(time.Now())

	claimed, err := s.claims.HasClaimed(ctx, userID, rewardDate)
	if err != nil {
		return nil, err
	}

	return &dtos.DailyRewardResponse{
		Claimed:    claimed,
		RewardDate: rewardDate,
	}, nil
}
