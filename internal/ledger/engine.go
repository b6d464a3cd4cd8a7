package ledger

import (
	"context"
	"time"

	"github.com/antonvlasov/papertrade/internal/common/domain"
	"github.com/antonvlasov/papertrade/internal/tradeerrs"
	"github.com/shopspring/decimal"
)

// TradeRequest is a proposed trade against a single portfolio. A nil
// Price means the current market price is resolved through the oracle
// at execution time, exactly once.
type TradeRequest struct {
	Type     string
	AssetID  string
	Quantity decimal.Decimal
	Price    *decimal.Decimal
}

// ExecuteTrade validates request against the portfolio snapshot and
// computes the resulting snapshot plus the transaction record. The
// input portfolio is never mutated. On any rejection nothing is
// returned, so no partial effect can ever be observed.
//
// Checks run in a fixed order and the first failure wins: trade type,
// quantity, price (explicit or oracle-resolved), then funds for a buy
// or holdings for a sell. Balances and totals are rounded to currency
// precision here, at the point the new snapshot is built, so repeated
// trading cannot accumulate drift.
//
// Persisting both returned values atomically is the caller's job.
func ExecuteTrade(ctx context.Context, portfolio *domain.Portfolio, request *TradeRequest, oracle domain.PriceOracle) (*domain.Portfolio, *domain.Transaction, error) {
	if request.Type != domain.TransactionTypeBuy && request.Type != domain.TransactionTypeSell {
		return nil, nil, tradeerrs.ErrInvalidType
	}

	if !request.Quantity.IsPositive() {
		return nil, nil, tradeerrs.ErrInvalidQuantity
	}

	price, err := resolvePrice(ctx, request, oracle)
	if err != nil {
		return nil, nil, err
	}

	total := request.Quantity.Mul(price).Round(domain.CurrencyPrecision)

	updated := portfolio.Clone()

	switch request.Type {
	case domain.TransactionTypeBuy:
		if portfolio.Balance.LessThan(total) {
			return nil, nil, &tradeerrs.InsufficientFundsError{
				Required:  total,
				Available: portfolio.Balance,
			}
		}

		updated.Balance = updated.Balance.Sub(total).Round(domain.CurrencyPrecision)
		updated.Holdings[request.AssetID] = updated.HoldingQuantity(request.AssetID).Add(request.Quantity)

	case domain.TransactionTypeSell:
		held := portfolio.HoldingQuantity(request.AssetID)
		if held.LessThan(request.Quantity) {
			return nil, nil, &tradeerrs.InsufficientHoldingsError{
				AssetID:   request.AssetID,
				Required:  request.Quantity,
				Available: held,
			}
		}

		updated.Balance = updated.Balance.Add(total).Round(domain.CurrencyPrecision)

		remaining := held.Sub(request.Quantity)
		if remaining.IsZero() {
			// An asset disappears the instant its quantity hits zero.
			delete(updated.Holdings, request.AssetID)
		} else {
			updated.Holdings[request.AssetID] = remaining
		}
	}

	transaction := &domain.Transaction{
		UserID:    portfolio.UserID,
		Type:      request.Type,
		AssetID:   request.AssetID,
		Quantity:  request.Quantity,
		Price:     price,
		Total:     total,
		CreatedAt: time.Now().UTC(),
	}

	return updated, transaction, nil
}

func resolvePrice(ctx context.Context, request *TradeRequest, oracle domain.PriceOracle) (decimal.Decimal, error) {
	if request.Price != nil {
		if !request.Price.IsPositive() {
			return decimal.Decimal{}, tradeerrs.ErrInvalidPrice
		}

		return *request.Price, nil
	}

	price, err := oracle.GetPrice(ctx, request.AssetID)
	if err != nil {
		return decimal.Decimal{}, &tradeerrs.PriceUnavailableError{AssetID: request.AssetID, Err: err}
	}

	return price, nil
}
