package domain

import "github.com/shopspring/decimal"

const (
	TransactionTypeBuy  = "buy"
	TransactionTypeSell = "sell"

	// CurrencyPrecision is the scale balances and totals are rounded
	// to at commit time. Quantities are kept at full precision.
	CurrencyPrecision = 2
)

// DefaultBalance is the simulated cash every fresh portfolio starts with.
var DefaultBalance = decimal.NewFromInt(10000)
