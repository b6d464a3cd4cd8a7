package tradeerrs

import (
	"errors"
	"fmt"

	"github.com/antonvlasov/papertrade/pkg/format"
	"github.com/shopspring/decimal"
)

// Malformed-request rejections. Always caller-fixable, never retried.
var (
	ErrInvalidType     = errors.New(`trade type must be "buy" or "sell"`)
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrInvalidPrice    = errors.New("price must be greater than 0")
)

// InsufficientFundsError rejects a buy whose total cost exceeds the
// available cash balance.
type InsufficientFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %s, available %s",
		format.Currency(e.Required), format.Currency(e.Available))
}

// InsufficientHoldingsError rejects a sell of more units than are held.
type InsufficientHoldingsError struct {
	AssetID   string
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientHoldingsError) Error() string {
	return fmt.Sprintf("insufficient holdings of %s: required %s, available %s",
		e.AssetID, e.Required, e.Available)
}

// PriceUnavailableError reports a failed price resolution. The trade is
// aborted without partial effects; the caller may retry the whole
// request.
type PriceUnavailableError struct {
	AssetID string
	Err     error
}

func (e *PriceUnavailableError) Error() string {
	return fmt.Sprintf("price unavailable for %s: %v", e.AssetID, e.Err)
}

func (e *PriceUnavailableError) Unwrap() error { return e.Err }
