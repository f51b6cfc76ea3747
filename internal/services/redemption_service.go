package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"

	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/db/repositories"
	"inkworks/redpen/internal/logging"
	"inkworks/redpen/internal/models/dtos"
	gormModels "inkworks/redpen/internal/models/gorm"

	"github.com/google/uuid"
)

type RedemptionService struct {
	codes      *repositories.RedemptionRepository
	membership *MembershipService
	points     PointsLedger
}

func NewRedemptionService(codes *repositories.RedemptionRepository, membership *MembershipService, points PointsLedger) *RedemptionService {
	return &RedemptionService{
		codes:      codes,
		membership: membership,
		points:     points,
	}
}

// Redeem consumes a single-use code and applies its grant. Point codes credit
// Value points; membership codes grant Value days of PREMIUM.
func (s *RedemptionService) Redeem(ctx context.Context, userID, code string) (*dtos.RedeemResponse, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if code == "" {
		return nil, repositories.ErrCodeNotFound
	}

	rc, err := s.codes.Consume(ctx, code, userID)
	if err != nil {
		return nil, err
	}

	resp := &dtos.RedeemResponse{
		Code:  rc.Code,
		Type:  rc.Type,
		Value: rc.Value,
	}

	switch rc.Type {
	case gormModels.CodeTypePoints:
		balance, gerr := s.points.Grant(ctx, userID, rc.Value, constants.TxRedeem, "Redemption code "+rc.Code, &rc.ID, nil)
		if gerr != nil {
			// The code is burned but nothing was granted. Log loudly so
			// support can re-issue; the stores live in different handles so
			// there is no shared transaction to roll back.
			logging.Error("code consumed but point grant failed",
				"code", rc.Code, "user_id", userID, "error", gerr.Error())
			return nil, fmt.Errorf("failed to grant points for code %s: %w", rc.Code, gerr)
		}
		resp.Balance = balance

	case gormModels.CodeTypeMembership:
		if _, merr := s.membership.Grant(ctx, userID, constants.MembershipPremium, int(rc.Value), "code "+rc.Code); merr != nil {
			logging.Error("code consumed but membership grant failed",
				"code", rc.Code, "user_id", userID, "error", merr.Error())
			return nil, fmt.Errorf("failed to grant membership for code %s: %w", rc.Code, merr)
		}
		balance, berr := s.points.Balance(ctx, userID)
		if berr != nil {
			return nil, berr
		}
		resp.Balance = balance

	default:
		return nil, fmt.Errorf("unknown code type %q", rc.Type)
	}

	return resp, nil
}

// Generate creates count fresh codes with the given prefix and grant.
func (s *RedemptionService) Generate(ctx context.Context, count int, prefix, codeType string, value int64) ([]string, error) {
	if count < 1 || count > 1000 {
		return nil, fmt.Errorf("count must be between 1 and 1000")
	}
	if codeType != gormModels.CodeTypePoints && codeType != gormModels.CodeTypeMembership {
		return nil, fmt.Errorf("unknown code type %q", codeType)
	}
	if value < 1 {
		return nil, fmt.Errorf("value must be positive")
	}

	codes := make([]gormModels.RedemptionCode, 0, count)
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		code := generateCode(prefix)
		codes = append(codes, gormModels.RedemptionCode{
			ID:       uuid.NewString(),
			Code:     code,
			Type:     codeType,
			Value:    value,
			IsActive: true,
		})
		out = append(out, code)
	}

	if err := s.codes.InsertBatch(ctx, codes); err != nil {
		return nil, err
	}
	return out, nil
}

// codeAlphabet avoids 0/O and 1/I so codes survive being read aloud
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateCode(prefix string) string {
	buf := make([]byte, 12)
	rand.Read(buf)
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}

	code := string(buf[:4]) + "-" + string(buf[4:8]) + "-" + string(buf[8:])
	if prefix != "" {
		code = strings.ToUpper(prefix) + "-" + code
	}
	return code
}
