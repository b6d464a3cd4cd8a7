package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceOracle resolves the current market price for an asset. A call
// must return within the collaborator's configured timeout; a slow or
// failed resolution is an error, never a stale substitute.
type PriceOracle interface {
	GetPrice(ctx context.Context, assetID string) (decimal.Decimal, error)
}

type AssetPrice struct {
	AssetID string          `json:"asset_id"`
	Price   decimal.Decimal `json:"price"`
	At      time.Time       `json:"at"`
}
