package api

import (
	"errors"
	"net/http"
	"time"

	"inkworks/redpen/internal/auth"
	"inkworks/redpen/internal/common"
	"inkworks/redpen/internal/db/repositories"
)

// ClaimDailyRewardHandler handles POST /api/v1/rewards/daily/claim
//
// @Summary      Claim daily login reward
// @Description  Grants the daily reward once per Beijing calendar date.
// @Tags         Rewards
// @Produce      json
// @Success      200  {object}  dtos.APIResponse
// @Failure      409  {object}  dtos.APIResponse  "Already claimed today"
// @Router       /api/v1/rewards/daily/claim [post]
func ClaimDailyRewardHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		reward, err := deps.Services.DailyReward.Claim(r.Context(), claims.UserID())
		if err != nil {
			if errors.Is(err, repositories.ErrRewardAlreadyClaimed) {
				common.RespondError(w, initTime, err, "Daily reward already claimed today", http.StatusConflict)
				return
			}
			common.RespondError(w, initTime, err, "Failed to claim daily reward", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "Daily reward claimed", reward)
	}
}

// DailyRewardStatusHandler handles GET /api/v1/rewards/daily
func DailyRewardStatusHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		status, err := deps.Services.DailyReward.Status(r.Context(), claims.UserID())
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch reward status", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "Reward status fetched", status)
	}
}

func (h *Handlers) ClaimDailyReward() http.HandlerFunc {
	return ClaimDailyRewardHandler(h.deps)
}

func (h *Handlers) DailyRewardStatus() http.HandlerFunc {
	return DailyRewardStatusHandler(h.deps)
}
