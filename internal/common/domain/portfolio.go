package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrVersionConflict is returned by CommitTrade when the portfolio row
// changed since the snapshot was read. The caller re-reads and retries.
var ErrVersionConflict = errors.New("portfolio version conflict")

type PortfoliosRepository interface {
	// GetPortfolio returns nil without an error when no portfolio
	// exists for the user yet.
	GetPortfolio(ctx context.Context, userID string) (*Portfolio, error)
	// CreatePortfolio is insert-if-absent: a concurrent first access
	// for the same user must not produce two divergent records.
	CreatePortfolio(ctx context.Context, portfolio *Portfolio) error
	// CommitTrade persists the portfolio snapshot and the transaction
	// record as a single unit, conditional on the snapshot's version.
	CommitTrade(ctx context.Context, portfolio *Portfolio, transaction *Transaction) error
	// ResetPortfolio restores the default balance and clears the
	// holdings and the transaction log as one unit, creating the
	// portfolio when it does not exist. It is serialized against
	// CommitTrade, so a trade either lands entirely before the reset
	// (and is wiped with everything else) or entirely after it.
	ResetPortfolio(ctx context.Context, userID string) (*Portfolio, error)
}

type Portfolio struct {
	UserID string `json:"user_id"`

	Balance  decimal.Decimal            `json:"balance"`
	Holdings map[string]decimal.Decimal `json:"holdings"`

	Version int64 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewDefaultPortfolio(userID string) *Portfolio {
	return &Portfolio{
		UserID:   userID,
		Balance:  DefaultBalance,
		Holdings: map[string]decimal.Decimal{},
	}
}

// Clone returns a deep copy so a new snapshot can be built without
// touching the input.
func (p *Portfolio) Clone() *Portfolio {
	holdings := make(map[string]decimal.Decimal, len(p.Holdings))
	for assetID, quantity := range p.Holdings {
		holdings[assetID] = quantity
	}

	clone := *p
	clone.Holdings = holdings

	return &clone
}

// HoldingQuantity returns the held quantity of assetID, zero when the
// asset is not held.
func (p *Portfolio) HoldingQuantity(assetID string) decimal.Decimal {
	return p.Holdings[assetID]
}
