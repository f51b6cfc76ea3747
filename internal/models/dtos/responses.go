package dtos

import "time"

type APIResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	ResponseTime string `json:"response_time"`
	Data         any    `json:"data,omitempty"`
}

// ---- POINTS ----

type BalanceResponse struct {
	UserID      string    `json:"user_id"`
	Points      int64     `json:"points"`
	LastUpdated time.Time `json:"last_updated"`
}

type TransactionEntry struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	RelatedID   *string   `json:"related_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type TransactionListResponse struct {
	Items    []TransactionEntry `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// ---- DAILY REWARD ----

type DailyRewardResponse struct {
	Claimed    bool   `json:"claimed"`
	Points     int64  `json:"points"`
	RewardDate string `json:"reward_date"`
	Balance    int64  `json:"balance"`
}

// ---- REDEMPTION ----

type RedeemResponse struct {
	Code    string `json:"code"`
	Type    string `json:"type"`
	Value   int64  `json:"value"`
	Balance int64  `json:"balance"`
}

// ---- MEMBERSHIP ----

type MembershipResponse struct {
	MembershipType string    `json:"membership_type"`
	DailyPoints    int64     `json:"daily_points"`
	ExpiresAt      time.Time `json:"expires_at"`
	IsActive       bool      `json:"is_active"`
}

// ---- TOOLS ----

type ToolInfo struct {
	ToolType     string `json:"tool_type"`
	ToolName     string `json:"tool_name"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	StandardCost int64  `json:"standard_cost"`
	ProCost      int64  `json:"pro_cost"`
	IsProOnly    bool   `json:"is_pro_only"`
}

type ToolResultResponse struct {
	ToolType string `json:"tool_type"`
	Output   string `json:"output"`
	Cost     int64  `json:"cost"`
	Balance  int64  `json:"balance"`
}

// ---- USER ----

type UserDetailResponse struct {
	ID         string              `json:"id"`
	Email      string              `json:"email"`
	UserName   *string             `json:"username,omitempty"`
	Role       string              `json:"role"`
	Points     int64               `json:"points"`
	Membership *MembershipResponse `json:"membership,omitempty"`
}
