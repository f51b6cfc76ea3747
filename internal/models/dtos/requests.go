package dtos

type RedeemCodeReq struct {
	Code string `json:"code"`
}

type ActivateMembershipReq struct {
	MembershipType string `json:"membership_type"`
	DurationDays   int    `json:"duration_days"`
	PaymentRef     string `json:"payment_ref"`
}

type UseToolReq struct {
	ToolType string `json:"tool_type"`
	Input    string `json:"input"`
}

type CreateBatchReq struct {
	Students     []string `json:"students"`
	Requirements string   `json:"requirements"`
}

type SubmitOCRReq struct {
	StudentID string `json:"student_id"`
	ImageURL  string `json:"image_url"`
}

type ConfirmOCRReq struct {
	StudentID string `json:"student_id"`
	Text      string `json:"text"`
}

type OverrideMatchReq struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
}

type UpsertToolConfigReq struct {
	ToolType     string `json:"tool_type"`
	ToolName     string `json:"tool_name"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	StandardCost int64  `json:"standard_cost"`
	ProCost      int64  `json:"pro_cost"`
	IsProOnly    bool   `json:"is_pro_only"`
	IsActive     bool   `json:"is_active"`
}

type GenerateCodesReq struct {
	Count  int    `json:"count"`
	Prefix string `json:"prefix"`
	Type   string `json:"type"`
	Value  int64  `json:"value"`
}
