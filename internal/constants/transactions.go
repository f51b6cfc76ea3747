package constants

import (
	"database/sql/driver"
	"fmt"
)

// TransactionType mirrors the Postgres ENUM 'point_transaction_type'
type TransactionType string

const (
	TxRedeem     TransactionType = "REDEEM"
	TxGenerate   TransactionType = "GENERATE"
	TxRefund     TransactionType = "REFUND"
	TxBonus      TransactionType = "BONUS"
	TxPurchase   TransactionType = "PURCHASE"
	TxMembership TransactionType = "MEMBERSHIP"
)

func (t TransactionType) String() string { return string(t) }

// Scan implements the sql.Scanner interface
func (t *TransactionType) Scan(src interface{}) error {
	if src == nil {
		*t = ""
		return nil
	}
	switch v := src.(type) {
	case string:
		*t = TransactionType(v)
	case []byte:
		*t = TransactionType(v)
	default:
		return fmt.Errorf("TransactionType: cannot scan type %T", src)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (t TransactionType) Value() (driver.Value, error) { return string(t), nil }
