package api

import (
	"encoding/json"
	"net/http"
	"time"

	"inkworks/redpen/internal/auth"
	"inkworks/redpen/internal/common"
	"inkworks/redpen/internal/models/dtos"
)

// GetMembershipHandler handles GET /api/v1/membership
func GetMembershipHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		membership, err := deps.Services.Membership.GetActive(r.Context(), claims.UserID())
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch membership", http.StatusInternalServerError)
			return
		}
		if membership == nil {
			common.RespondSuccess(w, initTime, "No active membership", nil)
			return
		}

		common.RespondSuccess(w, initTime, "Membership fetched", membership)
	}
}

// ActivateMembershipHandler handles POST /api/v1/membership/activate
//
// @Summary      Activate a paid membership
// @Tags         Membership
// @Accept       json
// @Produce      json
// @Param        input  body  dtos.ActivateMembershipReq  true  "Activation payload"
// @Success      200  {object}  dtos.APIResponse
// @Failure      400  {object}  dtos.APIResponse
// @Router       /api/v1/membership/activate [post]
func ActivateMembershipHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		var req dtos.ActivateMembershipReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MembershipType == "" {
			common.RespondError(w, initTime, err, "Invalid activation payload", http.StatusBadRequest)
			return
		}

		membership, err := deps.Services.Membership.Activate(r.Context(), claims.UserID(), req.MembershipType, req.DurationDays, req.PaymentRef)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to activate membership", http.StatusBadRequest)
			return
		}

		common.RespondSuccess(w, initTime, "Membership activated", membership)
	}
}

func (h *Handlers) GetMembership() http.HandlerFunc {
	return GetMembershipHandler(h.deps)
}

func (h *Handlers) ActivateMembership() http.HandlerFunc {
	return ActivateMembershipHandler(h.deps)
}
