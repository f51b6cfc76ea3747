package api

import (
	"net/http"
	"strconv"
	"time"

	"inkworks/redpen/internal/auth"
	"inkworks/redpen/internal/common"
)

// GetBalanceHandler handles GET /api/v1/points/balance
//
// @Summary      Get point balance
// @Tags         Points
// @Produce      json
// @Success      200  {object}  dtos.APIResponse
// @Failure      401  {object}  dtos.APIResponse
// @Router       /api/v1/points/balance [get]
func GetBalanceHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		balance, err := deps.Services.Points.GetBalance(r.Context(), claims.UserID())
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch balance", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "Balance fetched", balance)
	}
}

// ListTransactionsHandler handles GET /api/v1/points/transactions?page=1&page_size=20
func ListTransactionsHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

		list, err := deps.Services.Points.ListTransactions(r.Context(), claims.UserID(), page, pageSize)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch transactions", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "Transactions fetched", list)
	}
}

func (h *Handlers) GetBalance() http.HandlerFunc {
	return GetBalanceHandler(h.deps)
}

func (h *Handlers) ListTransactions() http.HandlerFunc {
	return ListTransactionsHandler(h.deps)
}
