package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionsRepository interface {
	// GetTransactionsByUser returns the user's transactions newest first.
	GetTransactionsByUser(ctx context.Context, userID string) ([]*Transaction, error)
}

// Transaction is an immutable record of one executed trade. It is only
// ever deleted by a full portfolio reset.
type Transaction struct {
	ID int64 `json:"id"`

	UserID  string `json:"user_id"`
	Type    string `json:"type"`
	AssetID string `json:"asset_id"`

	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`

	CreatedAt time.Time `json:"created_at"`
}
