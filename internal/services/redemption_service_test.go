package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/db/repositories"
	gormModels "inkworks/redpen/internal/models/gorm"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newRedemptionFixture(t *testing.T) (*RedemptionService, *fakeLedger, *gorm.DB) {
	db := setupTestDB(t)
	ledger := newFakeLedger()
	membership := NewMembershipService(repositories.NewMembershipRepository(db), ledger, nil)
	svc := NewRedemptionService(repositories.NewRedemptionRepository(db), membership, ledger)
	return svc, ledger, db
}

func seedCode(t *testing.T, db *gorm.DB, code, codeType string, value int64, expiresAt *time.Time) {
	t.Helper()
	rc := gormModels.RedemptionCode{
		ID:        uuid.NewString(),
		Code:      code,
		Type:      codeType,
		Value:     value,
		ExpiresAt: expiresAt,
		IsActive:  true,
	}
	if err := db.Create(&rc).Error; err != nil {
		t.Fatalf("Failed to seed code: %v", err)
	}
}

func TestRedemptionService_Redeem_PointsCode(t *testing.T) {
	svc, ledger, db := newRedemptionFixture(t)
	seedCode(t, db, "WELCOME-2026", gormModels.CodeTypePoints, 100, nil)

	resp, err := svc.Redeem(context.Background(), "user-1", "welcome-2026")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if resp.Value != 100 {
		t.Errorf("Expected value 100, got %d", resp.Value)
	}
	if resp.Balance != 100 {
		t.Errorf("Expected balance 100, got %d", resp.Balance)
	}
	if len(ledger.grants) != 1 || ledger.grants[0].Type != constants.TxRedeem {
		t.Errorf("Expected one REDEEM grant, got %+v", ledger.grants)
	}
}

func TestRedemptionService_Redeem_SingleUse(t *testing.T) {
	svc, ledger, db := newRedemptionFixture(t)
	seedCode(t, db, "ONCE-ONLY", gormModels.CodeTypePoints, 50, nil)
	ctx := context.Background()

	if _, err := svc.Redeem(ctx, "user-1", "ONCE-ONLY"); err != nil {
		t.Fatalf("First redeem failed: %v", err)
	}

	_, err := svc.Redeem(ctx, "user-2", "ONCE-ONLY")
	if !errors.Is(err, repositories.ErrCodeAlreadyUsed) {
		t.Fatalf("Expected ErrCodeAlreadyUsed, got %v", err)
	}

	if len(ledger.grants) != 1 {
		t.Errorf("Expected 1 grant after double redeem, got %d", len(ledger.grants))
	}
}

func TestRedemptionService_Redeem_Expired(t *testing.T) {
	svc, _, db := newRedemptionFixture(t)
	past := time.Now().Add(-time.Hour)
	seedCode(t, db, "OLD-CODE", gormModels.CodeTypePoints, 50, &past)

	_, err := svc.Redeem(context.Background(), "user-1", "OLD-CODE")
	if !errors.Is(err, repositories.ErrCodeExpired) {
		t.Fatalf("Expected ErrCodeExpired, got %v", err)
	}
}

func TestRedemptionService_Redeem_NotFound(t *testing.T) {
	svc, _, _ := newRedemptionFixture(t)

	_, err := svc.Redeem(context.Background(), "user-1", "NO-SUCH-CODE")
	if !errors.Is(err, repositories.ErrCodeNotFound) {
		t.Fatalf("Expected ErrCodeNotFound, got %v", err)
	}
}

func TestRedemptionService_Redeem_MembershipCode(t *testing.T) {
	svc, ledger, db := newRedemptionFixture(t)
	seedCode(t, db, "PREM-30", gormModels.CodeTypeMembership, 30, nil)

	resp, err := svc.Redeem(context.Background(), "user-1", "PREM-30")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.Type != gormModels.CodeTypeMembership {
		t.Errorf("Expected membership code type, got %s", resp.Type)
	}

	// Membership grant leaves an amount-zero MEMBERSHIP ledger row.
	if len(ledger.grants) != 1 || ledger.grants[0].Type != constants.TxMembership || ledger.grants[0].Amount != 0 {
		t.Errorf("Expected one zero-amount MEMBERSHIP grant, got %+v", ledger.grants)
	}
}

func TestRedemptionService_Generate(t *testing.T) {
	svc, _, db := newRedemptionFixture(t)

	codes, err := svc.Generate(context.Background(), 5, "promo", gormModels.CodeTypePoints, 25)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(codes) != 5 {
		t.Fatalf("Expected 5 codes, got %d", len(codes))
	}

	var count int64
	db.Model(&gormModels.RedemptionCode{}).Count(&count)
	if count != 5 {
		t.Errorf("Expected 5 stored codes, got %d", count)
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate code generated: %s", code)
		}
		seen[code] = true
		if code[:6] != "PROMO-" {
			t.Errorf("Expected PROMO- prefix, got %s", code)
		}
	}
}

func TestRedemptionService_Generate_Validation(t *testing.T) {
	svc, _, _ := newRedemptionFixture(t)
	ctx := context.Background()

	if _, err := svc.Generate(ctx, 0, "", gormModels.CodeTypePoints, 10); err == nil {
		t.Error("Expected error for zero count")
	}
	if _, err := svc.Generate(ctx, 1, "", "GIFT", 10); err == nil {
		t.Error("Expected error for unknown code type")
	}
	if _, err := svc.Generate(ctx, 1, "", gormModels.CodeTypePoints, 0); err == nil {
		t.Error("Expected error for non-positive value")
	}
}
