package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/models/entities"

	"github.com/jmoiron/sqlx"
)

// ErrInsufficientPoints is returned when a guarded deduct matches no row,
// i.e. the balance was lower than the requested amount.
var ErrInsufficientPoints = errors.New("insufficient points balance")

type PointsRepository struct {
	db *sqlx.DB
}

func NewPointsRepository(db *sqlx.DB) *PointsRepository {
	return &PointsRepository{db}
}

// GetBalance returns the current balance row. A user with no row yet reads as
// a zero balance, which is not an error.
func (r *PointsRepository) GetBalance(ctx context.Context, userID string) (*entities.UserPoints, error) {
	var up entities.UserPoints
	err := r.db.QueryRowxContext(ctx, constants.GetUserPoints, userID).StructScan(&up)
	if err == sql.ErrNoRows {
		return &entities.UserPoints{UserID: userID, Points: 0}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	return &up, nil
}

// Credit adds points and appends the ledger row in one transaction. A zero
// amount records a ledger-only event (membership grants) without moving the
// balance.
func (r *PointsRepository) Credit(ctx context.Context, userID string, amount int64, txType constants.TransactionType, description string, relatedID *string, metadata json.RawMessage) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("credit amount cannot be negative, got %d", amount)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var balance int64
	if err := tx.QueryRowxContext(ctx, constants.UpsertUserPoints, userID, amount).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to credit points: %w", err)
	}

	if err := insertLedgerRow(ctx, tx, userID, txType, amount, description, relatedID, metadata); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit credit: %w", err)
	}
	return balance, nil
}

// Debit removes points and appends the ledger row in one transaction. The
// guarded UPDATE keeps the balance non-negative; when it matches no row the
// debit is rejected with ErrInsufficientPoints and nothing is written.
func (r *PointsRepository) Debit(ctx context.Context, userID string, amount int64, txType constants.TransactionType, description string, relatedID *string, metadata json.RawMessage) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowxContext(ctx, constants.DeductUserPoints, userID, amount).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrInsufficientPoints
	}
	if err != nil {
		return 0, fmt.Errorf("failed to deduct points: %w", err)
	}

	if err := insertLedgerRow(ctx, tx, userID, txType, -amount, description, relatedID, metadata); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit debit: %w", err)
	}
	return balance, nil
}

func insertLedgerRow(ctx context.Context, tx *sqlx.Tx, userID string, txType constants.TransactionType, amount int64, description string, relatedID *string, metadata json.RawMessage) error {
	if metadata == nil {
		metadata = json.RawMessage(`{}`)
	}
	var entry entities.PointTransaction
	err := tx.QueryRowxContext(ctx, constants.InsertPointTransaction,
		userID, txType, amount, description, relatedID, []byte(metadata),
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ledger row: %w", err)
	}
	return nil
}

// ListTransactions returns a page of the user's ledger, newest first.
func (r *PointsRepository) ListTransactions(ctx context.Context, userID string, page, pageSize int) ([]entities.PointTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := r.db.QueryRowxContext(ctx, constants.CountPointTransactions, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	rows, err := r.db.QueryxContext(ctx, constants.ListPointTransactions, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var items []entities.PointTransaction
	for rows.Next() {
		var t entities.PointTransaction
		if err := rows.StructScan(&t); err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}
