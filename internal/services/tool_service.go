package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inkworks/redpen/internal/common"
	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/db/repositories"
	"inkworks/redpen/internal/logging"
	"inkworks/redpen/internal/metrics"
	"inkworks/redpen/internal/models/dtos"
	gormModels "inkworks/redpen/internal/models/gorm"

	"github.com/google/uuid"
)

var (
	ErrToolNotFound = errors.New(constants.StatusToolInactive)
	ErrToolProOnly  = errors.New(constants.StatusToolProOnly)
)

// ToolModel is the slice of the model provider the tool catalog needs
type ToolModel interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, int, error)
}

type ToolService struct {
	tools      *repositories.ToolConfigRepository
	membership *MembershipService
	points     PointsLedger
	model      ToolModel
	cache      common.CacheInterface
	metrics    *metrics.MetricsRegistry
}

func NewToolService(tools *repositories.ToolConfigRepository, membership *MembershipService, points PointsLedger, model ToolModel, cache common.CacheInterface, metricsReg *metrics.MetricsRegistry) *ToolService {
	return &ToolService{
		tools:      tools,
		membership: membership,
		points:     points,
		model:      model,
		cache:      cache,
		metrics:    metricsReg,
	}
}

// ListTools returns the active catalog, cached for five minutes
func (s *ToolService) ListTools(ctx context.Context) ([]dtos.ToolInfo, error) {
	if s.cache != nil {
		if cached := common.GetToolCatalogFromCache(s.cache); cached != nil {
			return cached, nil
		}
	}

	rows, err := s.tools.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	tools := make([]dtos.ToolInfo, 0, len(rows))
	for _, row := range rows {
		tools = append(tools, dtos.ToolInfo{
			ToolType:     row.ToolType,
			ToolName:     row.ToolName,
			Description:  row.Description,
			Category:     row.Category,
			StandardCost: row.StandardCost,
			ProCost:      row.ProCost,
			IsProOnly:    row.IsProOnly,
		})
	}

	if s.cache != nil {
		s.cache.Set(string(constants.CachePrefixToolCatalog), tools, 5*time.Minute)
	}
	return tools, nil
}

// UseTool charges for one tool invocation, runs it against the model, and
// refunds the charge when the provider call fails. Paid members pay pro_cost;
// pro-only tools reject free users before any charge.
func (s *ToolService) UseTool(ctx context.Context, userID, toolType, input string) (*dtos.ToolResultResponse, error) {
	cfg, err := s.tools.GetByType(ctx, toolType)
	if err != nil {
		return nil, err
	}
	if cfg == nil || !cfg.IsActive {
		return nil, ErrToolNotFound
	}

	isPaid, err := s.membership.IsPaidMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cfg.IsProOnly && !isPaid {
		return nil, ErrToolProOnly
	}

	cost := cfg.StandardCost
	if isPaid {
		cost = cfg.ProCost
	}

	balance, err := s.points.Spend(ctx, userID, cost, constants.TxGenerate, "AI tool: "+cfg.ToolName, &cfg.ID, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	output, _, err := s.model.Complete(ctx, toolPrompt(cfg), input)
	if s.metrics != nil {
		s.metrics.AICallDuration.WithLabelValues(cfg.ToolType).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.AICallsTotal.WithLabelValues(cfg.ToolType, "error").Inc()
		}
		// Give the charge back; the user got nothing for it.
		if _, rerr := s.points.Grant(ctx, userID, cost, constants.TxRefund, "Refund: "+cfg.ToolName+" failed", &cfg.ID, nil); rerr != nil {
			logging.Error("tool refund failed",
				"user_id", userID, "tool_type", cfg.ToolType, "error", rerr.Error())
		}
		return nil, fmt.Errorf("tool %s failed: %w", cfg.ToolType, err)
	}
	if s.metrics != nil {
		s.metrics.AICallsTotal.WithLabelValues(cfg.ToolType, "success").Inc()
	}

	return &dtos.ToolResultResponse{
		ToolType: cfg.ToolType,
		Output:   output,
		Cost:     cost,
		Balance:  balance,
	}, nil
}

// UpsertTool creates or updates a catalog entry and drops the cached catalog
func (s *ToolService) UpsertTool(ctx context.Context, req *dtos.UpsertToolConfigReq) error {
	if req.ToolType == "" || req.ToolName == "" {
		return fmt.Errorf("tool_type and tool_name are required")
	}
	if req.StandardCost < 0 || req.ProCost < 0 {
		return fmt.Errorf("costs cannot be negative")
	}

	cfg := &gormModels.AIToolConfig{
		ID:           uuid.NewString(),
		ToolType:     req.ToolType,
		ToolName:     req.ToolName,
		Description:  req.Description,
		Category:     req.Category,
		StandardCost: req.StandardCost,
		ProCost:      req.ProCost,
		IsProOnly:    req.IsProOnly,
		IsActive:     req.IsActive,
	}
	if err := s.tools.Upsert(ctx, cfg); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Delete(string(constants.CachePrefixToolCatalog))
	}
	return nil
}

func toolPrompt(cfg *gormModels.AIToolConfig) string {
	return fmt.Sprintf(
		"You are an assistant for students learning English. Perform the %q task on the user's text. %s Respond with the result only.",
		cfg.ToolName, cfg.Description,
	)
}
