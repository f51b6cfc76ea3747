package entities

import (
	"encoding/json"
	"inkworks/redpen/internal/constants"
	"time"
)

type UserPoints struct {
	UserID      string    `db:"user_id"`
	Points      int64     `db:"points"`
	LastUpdated time.Time `db:"last_updated"`
}

// PointTransaction is one row of the append-only ledger. Amount is signed:
// positive for credits (BONUS, REDEEM, REFUND, PURCHASE), negative for debits.
type PointTransaction struct {
	ID          int64                     `db:"id"`
	UserID      string                    `db:"user_id"`
	Type        constants.TransactionType `db:"type"`
	Amount      int64                     `db:"amount"`
	Description string                    `db:"description"`
	RelatedID   *string                   `db:"related_id"`
	Metadata    json.RawMessage           `db:"metadata"`
	CreatedAt   time.Time                 `db:"created_at"`
}
