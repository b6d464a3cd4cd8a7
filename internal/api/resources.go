package api

import (
	"time"

	"github.com/antonvlasov/papertrade/internal/common/domain"
	"github.com/antonvlasov/papertrade/internal/ledger"
	"github.com/shopspring/decimal"
)

const (
	priceSourceManual = "manual"
	priceSourceKraken = "kraken"
)

type tradeRequest struct {
	UserID   string           `json:"userId"`
	Type     string           `json:"type"`
	AssetID  string           `json:"assetId"`
	Quantity *decimal.Decimal `json:"quantity"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

func (req *tradeRequest) CreateTradeRequest() *ledger.TradeRequest {
	return &ledger.TradeRequest{
		Type:     req.Type,
		AssetID:  req.AssetID,
		Quantity: *req.Quantity,
		Price:    req.Price,
	}
}

type portfolioResponse struct {
	UserID    string                     `json:"userId"`
	Balance   decimal.Decimal            `json:"balance"`
	Holdings  map[string]decimal.Decimal `json:"holdings"`
	CreatedAt time.Time                  `json:"createdAt"`
	UpdatedAt time.Time                  `json:"updatedAt"`
}

func newPortfolioResponse(p *domain.Portfolio) *portfolioResponse {
	return &portfolioResponse{
		UserID:    p.UserID,
		Balance:   p.Balance,
		Holdings:  p.Holdings,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type transactionResponse struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"userId"`
	Type      string          `json:"type"`
	AssetID   string          `json:"assetId"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
}

func newTransactionResponse(t *domain.Transaction) *transactionResponse {
	return &transactionResponse{
		ID:        t.ID,
		UserID:    t.UserID,
		Type:      t.Type,
		AssetID:   t.AssetID,
		Quantity:  t.Quantity,
		Price:     t.Price,
		Total:     t.Total,
		CreatedAt: t.CreatedAt,
	}
}

func newTransactionsResponse(transactions []*domain.Transaction) []*transactionResponse {
	out := make([]*transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, newTransactionResponse(t))
	}

	return out
}

type tradeResponse struct {
	Portfolio   *portfolioResponse   `json:"portfolio"`
	Transaction *transactionResponse `json:"transaction"`
	PriceSource string               `json:"priceSource"`
}

type priceResponse struct {
	AssetID string          `json:"assetId"`
	Price   decimal.Decimal `json:"price"`
	At      time.Time       `json:"at"`
}

func newPricesResponse(prices []*domain.AssetPrice) []*priceResponse {
	out := make([]*priceResponse, 0, len(prices))
	for _, p := range prices {
		out = append(out, &priceResponse{AssetID: p.AssetID, Price: p.Price, At: p.At})
	}

	return out
}
