package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"inkworks/redpen/internal/common"
	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/db/repositories"
	"inkworks/redpen/internal/models/dtos"
	gormModels "inkworks/redpen/internal/models/gorm"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Setup test database
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&gormModels.User{},
		&gormModels.Membership{},
		&gormModels.DailyRewardClaim{},
		&gormModels.AIToolConfig{},
		&gormModels.RedemptionCode{},
		&gormModels.BatchJob{},
		&gormModels.BatchStudent{},
		&gormModels.BatchSentence{},
	); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return db
}

type ledgerCall struct {
	UserID      string
	Amount      int64
	Type        constants.TransactionType
	Description string
}

// fakeLedger is an in-memory PointsLedger that enforces the non-negative
// balance rule the same way the guarded SQL does.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	grants   []ledgerCall
	spends   []ledgerCall
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[string]int64)}
}

func (f *fakeLedger) Grant(ctx context.Context, userID string, amount int64, txType constants.TransactionType, description string, relatedID *string, metadata json.RawMessage) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] += amount
	f.grants = append(f.grants, ledgerCall{userID, amount, txType, description})
	return f.balances[userID], nil
}

func (f *fakeLedger) Spend(ctx context.Context, userID string, amount int64, txType constants.TransactionType, description string, relatedID *string, metadata json.RawMessage) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balances[userID] < amount {
		return 0, repositories.ErrInsufficientPoints
	}
	f.balances[userID] -= amount
	f.spends = append(f.spends, ledgerCall{userID, amount, txType, description})
	return f.balances[userID], nil
}

func (f *fakeLedger) Balance(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID], nil
}

// Mock model provider
type mockModel struct {
	completeFunc        func(ctx context.Context, systemPrompt, userPrompt string) (string, int, error)
	extractSentFunc     func(ctx context.Context, text string) ([]string, int, error)
	extractNameFunc     func(ctx context.Context, ocrText string) (string, int, error)
	polishSentenceFunc  func(ctx context.Context, sentence, requirements string) (*dtos.PolishedSentenceResult, int, error)
}

func (m *mockModel) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, int, error) {
	if m.completeFunc == nil {
		return "", 0, errors.New("completeFunc not set")
	}
	return m.completeFunc(ctx, systemPrompt, userPrompt)
}

func (m *mockModel) ExtractSentences(ctx context.Context, text string) ([]string, int, error) {
	if m.extractSentFunc == nil {
		return nil, 0, errors.New("extractSentFunc not set")
	}
	return m.extractSentFunc(ctx, text)
}

func (m *mockModel) ExtractStudentName(ctx context.Context, ocrText string) (string, int, error) {
	if m.extractNameFunc == nil {
		return "", 0, errors.New("extractNameFunc not set")
	}
	return m.extractNameFunc(ctx, ocrText)
}

func (m *mockModel) PolishSentence(ctx context.Context, sentence, requirements string) (*dtos.PolishedSentenceResult, int, error) {
	if m.polishSentenceFunc == nil {
		return nil, 0, errors.New("polishSentenceFunc not set")
	}
	return m.polishSentenceFunc(ctx, sentence, requirements)
}

// Mock OCR provider
type mockOCR struct {
	recognizeFunc func(ctx context.Context, imageURL string) (string, error)
}

func (m *mockOCR) RecognizeImage(ctx context.Context, imageURL string) (string, error) {
	if m.recognizeFunc == nil {
		return "", errors.New("recognizeFunc not set")
	}
	return m.recognizeFunc(ctx, imageURL)
}

// Mock queue capturing enqueued items
type mockQueue struct {
	mu    sync.Mutex
	items []*common.PolishQueueItem
	fail  error
}

func (m *mockQueue) EnqueueSentenceBatch(ctx context.Context, streamName string, items []*common.PolishQueueItem) error {
	if m.fail != nil {
		return m.fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, items...)
	return nil
}
