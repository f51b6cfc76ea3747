package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/db/repositories"
)

func newDailyRewardFixture(t *testing.T) (*DailyRewardService, *fakeLedger, *repositories.MembershipRepository) {
	db := setupTestDB(t)
	ledger := newFakeLedger()
	memberships := repositories.NewMembershipRepository(db)
	svc := NewDailyRewardService(repositories.NewDailyRewardRepository(db), memberships, ledger)
	return svc, ledger, memberships
}

func TestDailyRewardService_Claim_Success(t *testing.T) {
	svc, ledger, _ := newDailyRewardFixture(t)

	resp, err := svc.Claim(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !resp.Claimed {
		t.Error("Expected claimed true")
	}
	if resp.Points != constants.MembershipFree.DailyPoints() {
		t.Errorf("Expected free-tier points %d, got %d", constants.MembershipFree.DailyPoints(), resp.Points)
	}
	if resp.RewardDate != RewardDate(time.Now()) {
		t.Errorf("Unexpected reward date %s", resp.RewardDate)
	}

	if len(ledger.grants) != 1 {
		t.Fatalf("Expected 1 grant, got %d", len(ledger.grants))
	}
	if ledger.grants[0].Type != constants.TxBonus {
		t.Errorf("Expected BONUS grant, got %s", ledger.grants[0].Type)
	}
}

func TestDailyRewardService_Claim_SecondSameDayBlocked(t *testing.T) {
	svc, ledger, _ := newDailyRewardFixture(t)
	ctx := context.Background()

	if _, err := svc.Claim(ctx, "user-1"); err != nil {
		t.Fatalf("First claim failed: %v", err)
	}

	_, err := svc.Claim(ctx, "user-1")
	if !errors.Is(err, repositories.ErrRewardAlreadyClaimed) {
		t.Fatalf("Expected ErrRewardAlreadyClaimed, got %v", err)
	}

	// Exactly one grant: the duplicate claim must not move the balance.
	if len(ledger.grants) != 1 {
		t.Errorf("Expected 1 grant after double claim, got %d", len(ledger.grants))
	}
	if balance, _ := ledger.Balance(ctx, "user-1"); balance != constants.MembershipFree.DailyPoints() {
		t.Errorf("Expected balance %d, got %d", constants.MembershipFree.DailyPoints(), balance)
	}
}

func TestDailyRewardService_Claim_IndependentUsers(t *testing.T) {
	svc, ledger, _ := newDailyRewardFixture(t)
	ctx := context.Background()

	if _, err := svc.Claim(ctx, "user-1"); err != nil {
		t.Fatalf("user-1 claim failed: %v", err)
	}
	if _, err := svc.Claim(ctx, "user-2"); err != nil {
		t.Fatalf("user-2 claim failed: %v", err)
	}

	if len(ledger.grants) != 2 {
		t.Errorf("Expected 2 grants, got %d", len(ledger.grants))
	}
}

func TestDailyRewardService_Claim_MembershipDailyPoints(t *testing.T) {
	svc, _, memberships := newDailyRewardFixture(t)
	ctx := context.Background()

	if _, err := memberships.Activate(ctx, "user-1", constants.MembershipPro, constants.MembershipPro.DailyPoints(), 30); err != nil {
		t.Fatalf("Failed to activate membership: %v", err)
	}

	resp, err := svc.Claim(ctx, "user-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.Points != constants.MembershipPro.DailyPoints() {
		t.Errorf("Expected PRO daily points %d, got %d", constants.MembershipPro.DailyPoints(), resp.Points)
	}
}

func TestDailyRewardService_Status(t *testing.T) {
	svc, _, _ := newDailyRewardFixture(t)
	ctx := context.Background()

	status, err := svc.Status(ctx, "user-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if status.Claimed {
		t.Error("Expected unclaimed before first claim")
	}

	if _, err := svc.Claim(ctx, "user-1"); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	status, err = svc.Status(ctx, "user-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !status.Claimed {
		t.Error("Expected claimed after claim")
	}
}

func TestRewardDate_BeijingCalendar(t *testing.T) {
	// 2026-03-01 17:00 UTC is already 2026-03-02 01:00 in Beijing.
	utc := time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC)
	if got := RewardDate(utc); got != "2026-03-02" {
		t.Errorf("Expected 2026-03-02, got %s", got)
	}

	// 2026-03-01 15:59 UTC is still 2026-03-01 23:59 in Beijing.
	utc = time.Date(2026, 3, 1, 15, 59, 0, 0, time.UTC)
	if got := RewardDate(utc); got != "2026-03-01" {
		t.Errorf("Expected 2026-03-01, got %s", got)
	}
}
