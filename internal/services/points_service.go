package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inkworks/redpen/internal/common"
	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/db/repositories"
	"inkworks/redpen/internal/metrics"
	"inkworks/redpen/internal/models/dtos"
)

// PointsLedger is the balance surface the other services spend and grant
// through. PointsService is the production implementation.
type PointsLedger interface {
	Grant(ctx context.Context, userID string, amount int64, txType constants.TransactionType, description string, relatedID *string, metadata json.RawMessage) (int64, error)
	Spend(ctx context.Context, userID string, amount int64, txType constants.TransactionType, description string, relatedID *string, metadata json.RawMessage) (int64, error)
	Balance(ctx context.Context, userID string) (int64, error)
}

type PointsService struct {
	repo    *repositories.PointsRepository
	cache   common.CacheInterface
	metrics *metrics.MetricsRegistry
}

func NewPointsService(repo *repositories.PointsRepository, cache common.CacheInterface, metricsReg *metrics.MetricsRegistry) *PointsService {
	return &PointsService{
		repo:    repo,
		cache:   cache,
		metrics: metricsReg,
	}
}

// Balance returns the user's current point balance. A user with no balance
// row reads as zero; every other error is surfaced.
func (s *PointsService) Balance(ctx context.Context, userID string) (int64, error) {
	if s.cache != nil {
		if cached := common.GetBalanceFromCache(s.cache, userID); cached != nil {
			if s.metrics != nil {
				s.metrics.CacheHitsTotal.WithLabelValues(string(constants.CachePrefixBalance)).Inc()
			}
			return *cached, nil
		}
		if s.metrics != nil {
			s.metrics.CacheMissesTotal.WithLabelValues(string(constants.CachePrefixBalance)).Inc()
		}
	}

	points, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}

	s.cacheBalance(userID, points.Points)
	return points.Points, nil
}

// GetBalance returns the balance with metadata for the API surface
func (s *PointsService) GetBalance(ctx context.Context, userID string) (*dtos.BalanceResponse, error) {
	points, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	s.cacheBalance(userID, points.Points)

	return &dtos.BalanceResponse{
		UserID:      userID,
		Points:      points.Points,
		LastUpdated: points.LastUpdated,
	}, nil
}

// Grant credits points and appends the ledger row in one transaction
func (s *PointsService) Grant(ctx context.Context, userID string, amount int64, txType constants.TransactionType, description string, relatedID *string, metadata json.RawMessage) (int64, error) {
	newBalance, err := s.repo.Credit(ctx, userID, amount, txType, description, relatedID, metadata)
	if err != nil {
		return 0, err
	}

	s.cacheBalance(userID, newBalance)
	if s.metrics != nil {
		s.metrics.PointTransactionsTotal.WithLabelValues(string(txType)).Inc()
		s.metrics.PointsGrantedTotal.Add(float64(amount))
	}

	return newBalance, nil
}

// Spend debits points. Returns repositories.ErrInsufficientPoints when the
// balance cannot cover the amount.
func (s *PointsService) Spend(ctx context.Context, userID string, amount int64, txType constants.TransactionType, description string, relatedID *string, metadata json.RawMessage) (int64, error) {
	newBalance, err := s.repo.Debit(ctx, userID, amount, txType, description, relatedID, metadata)
	if err != nil {
		return 0, err
	}

	s.cacheBalance(userID, newBalance)
	if s.metrics != nil {
		s.metrics.PointTransactionsTotal.WithLabelValues(string(txType)).Inc()
		s.metrics.PointsSpentTotal.Add(float64(amount))
	}

	return newBalance, nil
}

// ListTransactions returns one ledger page, newest first
func (s *PointsService) ListTransactions(ctx context.Context, userID string, page, pageSize int) (*dtos.TransactionListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	rows, total, err := s.repo.ListTransactions(ctx, userID, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	items := make([]dtos.TransactionEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, dtos.TransactionEntry{
			ID:          row.ID,
			Type:        string(row.Type),
			Amount:      row.Amount,
			Description: row.Description,
			RelatedID:   row.RelatedID,
			CreatedAt:   row.CreatedAt,
		})
	}

	return &dtos.TransactionListResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *PointsService) cacheBalance(userID string, balance int64) {
	if s.cache == nil {
		return
	}
	s.cache.Set(string(constants.CachePrefixBalance)+userID, balance, 30*time.Second)
}
