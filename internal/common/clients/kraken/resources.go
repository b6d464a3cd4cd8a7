package kraken

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type tickerResponse struct {
	Error  []string               `json:"error"`
	Result map[string]tickerEntry `json:"result"`
}

type tickerEntry struct {
	// Close holds [last trade price, lot volume].
	Close []string `json:"c"`
}

// LastPrice extracts the last-trade price from the first result entry.
// Kraken keys the result by its own pair spelling, so the key itself is
// not relied on.
func (res *tickerResponse) LastPrice() (decimal.Decimal, error) {
	for _, entry := range res.Result {
		if len(entry.Close) == 0 {
			break
		}

		price, err := decimal.NewFromString(entry.Close[0])
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("invalid price %q: %w", entry.Close[0], err)
		}

		if !price.IsPositive() {
			return decimal.Decimal{}, fmt.Errorf("non-positive price %q", entry.Close[0])
		}

		return price, nil
	}

	return decimal.Decimal{}, errors.New("price data not found in ticker response")
}

type subscribeRequest struct {
	Event        string       `json:"event"`
	Pair         []string     `json:"pair"`
	Subscription subscription `json:"subscription"`
}

type subscription struct {
	Name string `json:"name"`
}

type tickerPayload struct {
	Close []string `json:"c"`
}

func (p *tickerPayload) LastPrice() (decimal.Decimal, error) {
	if len(p.Close) == 0 {
		return decimal.Decimal{}, errors.New("ticker payload without close price")
	}

	price, err := decimal.NewFromString(p.Close[0])
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid price %q: %w", p.Close[0], err)
	}

	return price, nil
}
