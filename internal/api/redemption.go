package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"inkworks/redpen/internal/auth"
	"inkworks/redpen/internal/common"
	"inkworks/redpen/internal/db/repositories"
	"inkworks/redpen/internal/models/dtos"
)

// RedeemCodeHandler handles POST /api/v1/codes/redeem
//
// @Summary      Redeem a code
// @Description  Redeems a single-use code for points or a membership grant.
// @Tags         Codes
// @Accept       json
// @Produce      json
// @Param        input  body  dtos.RedeemCodeReq  true  "Code payload"
// @Success      200  {object}  dtos.APIResponse
// @Failure      400  {object}  dtos.APIResponse
// @Failure      404  {object}  dtos.APIResponse
// @Failure      409  {object}  dtos.APIResponse
// @Router       /api/v1/codes/redeem [post]
func RedeemCodeHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		var req dtos.RedeemCodeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
			common.RespondError(w, initTime, err, "Invalid code payload", http.StatusBadRequest)
			return
		}

		result, err := deps.Services.Redemption.Redeem(r.Context(), claims.UserID(), req.Code)
		if err != nil {
			switch {
			case errors.Is(err, repositories.ErrCodeNotFound):
				common.RespondError(w, initTime, err, "Code not found", http.StatusNotFound)
			case errors.Is(err, repositories.ErrCodeAlreadyUsed):
				common.RespondError(w, initTime, err, "Code already used", http.StatusConflict)
			case errors.Is(err, repositories.ErrCodeExpired):
				common.RespondError(w, initTime, err, "Code expired", http.StatusBadRequest)
			default:
				common.RespondError(w, initTime, err, "Failed to redeem code", http.StatusInternalServerError)
			}
			return
		}

		common.RespondSuccess(w, initTime, "Code redeemed", result)
	}
}

// GenerateCodesHandler handles POST /api/v1/admin/codes/generate
func GenerateCodesHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.GenerateCodesReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondError(w, initTime, err, "Invalid generation payload", http.StatusBadRequest)
			return
		}

		codes, err := deps.Services.Redemption.Generate(r.Context(), req.Count, req.Prefix, req.Type, req.Value)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to generate codes", http.StatusBadRequest)
			return
		}

		common.RespondSuccess(w, initTime, "Codes generated", map[string]any{
			"count": len(codes),
			"codes": codes,
		})
	}
}

func (h *Handlers) RedeemCode() http.HandlerFunc {
	return RedeemCodeHandler(h.deps)
}

func (h *Handlers) GenerateCodes() http.HandlerFunc {
	return GenerateCodesHandler(h.deps)
}
