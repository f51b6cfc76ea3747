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
	"inkworks/redpen/internal/services"
)

// ListToolsHandler handles GET /api/v1/tools
func ListToolsHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		tools, err := deps.Services.Tools.ListTools(r.Context())
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch tool catalog", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "Tool catalog fetched", tools)
	}
}

// UseToolHandler handles POST /api/v1/tools/use
//
// @Summary      Invoke an AI tool
// @Description  Charges the tool's point cost, runs the model and returns the output. A model failure refunds the charge.
// @Tags         Tools
// @Accept       json
// @Produce      json
// @Param        input  body  dtos.UseToolReq  true  "Tool invocation payload"
// @Success      200  {object}  dtos.APIResponse
// @Failure      402  {object}  dtos.APIResponse  "Insufficient points"
// @Failure      403  {object}  dtos.APIResponse  "Pro-only tool"
// @Failure      404  {object}  dtos.APIResponse
// @Router       /api/v1/tools/use [post]
func UseToolHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		var req dtos.UseToolReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ToolType == "" || req.Input == "" {
			common.RespondError(w, initTime, err, "Invalid tool payload", http.StatusBadRequest)
			return
		}

		result, err := deps.Services.Tools.UseTool(r.Context(), claims.UserID(), req.ToolType, req.Input)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrToolNotFound):
				common.RespondError(w, initTime, err, "Tool not found", http.StatusNotFound)
			case errors.Is(err, services.ErrToolProOnly):
				common.RespondError(w, initTime, err, "Tool requires a paid membership", http.StatusForbidden)
			case errors.Is(err, repositories.ErrInsufficientPoints):
				common.RespondError(w, initTime, err, "Insufficient points", http.StatusPaymentRequired)
			default:
				common.RespondError(w, initTime, err, "Tool invocation failed", http.StatusBadGateway)
			}
			return
		}

		common.RespondSuccess(w, initTime, "Tool invoked", result)
	}
}

// UpsertToolHandler handles POST /api/v1/admin/tools
func UpsertToolHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.UpsertToolConfigReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ToolType == "" || req.ToolName == "" {
			common.RespondError(w, initTime, err, "Invalid tool config payload", http.StatusBadRequest)
			return
		}

		if err := deps.Services.Tools.UpsertTool(r.Context(), &req); err != nil {
			common.RespondError(w, initTime, err, "Failed to save tool config", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "Tool config saved", nil)
	}
}

func (h *Handlers) ListTools() http.HandlerFunc {
	return ListToolsHandler(h.deps)
}

func (h *Handlers) UseTool() http.HandlerFunc {
	return UseToolHandler(h.deps)
}

func (h *Handlers) UpsertTool() http.HandlerFunc {
	return UpsertToolHandler(h.deps)
}
