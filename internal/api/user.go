package api

import (
	"errors"
	"net/http"
	"time"

	"inkworks/redpen/internal/auth"
	"inkworks/redpen/internal/common"
	"inkworks/redpen/internal/services"
)

// GetUserDetailsHandler handles GET /api/v1/user/details
//
// @Summary      Get user details
// @Description  Returns the authenticated user's profile, point balance and active membership.
// @Tags         Users
// @Produce      json
// @Success      200  {object}  dtos.APIResponse
// @Failure      401  {object}  dtos.APIResponse
// @Failure      404  {object}  dtos.APIResponse
// @Router       /api/v1/user/details [get]
func GetUserDetailsHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		details, err := deps.Services.User.GetUserDetails(r.Context(), claims.UserID())
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				common.RespondError(w, initTime, err, "User not found", http.StatusNotFound)
				return
			}
			common.RespondError(w, initTime, err, "Failed to fetch user details", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "User details fetched successfully", details)
	}
}

func (h *Handlers) GetUserDetails() http.HandlerFunc {
	return GetUserDetailsHandler(h.deps)
}
