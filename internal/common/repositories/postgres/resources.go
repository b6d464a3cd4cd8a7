package postgres

import (
	"time"

	"github.com/antonvlasov/papertrade/internal/common/domain"
	"github.com/shopspring/decimal"
)

// Numeric columns travel as text between postgres and the mappers so
// no precision is lost on the way to decimal values.

type Portfolio struct {
	UserID  string `db:"user_id"`
	Balance string `db:"balance"`

	Version int64 `db:"version"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (p *Portfolio) CreateDomain(holdings []*Holding) (*domain.Portfolio, error) {
	balance, err := decimal.NewFromString(p.Balance)
	if err != nil {
		return nil, err
	}

	portfolio := &domain.Portfolio{
		UserID:    p.UserID,
		Balance:   balance,
		Holdings:  make(map[string]decimal.Decimal, len(holdings)),
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}

	for _, holding := range holdings {
		quantity, err := decimal.NewFromString(holding.Quantity)
		if err != nil {
			return nil, err
		}

		portfolio.Holdings[holding.AssetID] = quantity
	}

	return portfolio, nil
}

type Holding struct {
	AssetID  string `db:"asset_id"`
	Quantity string `db:"quantity"`
}

type Transaction struct {
	ID int64 `db:"id"`

	UserID  string `db:"user_id"`
	Type    string `db:"type"`
	AssetID string `db:"asset_id"`

	Quantity string `db:"quantity"`
	Price    string `db:"price"`
	Total    string `db:"total"`

	CreatedAt time.Time `db:"created_at"`
}

func (t *Transaction) CreateDomain() (*domain.Transaction, error) {
	quantity, err := decimal.NewFromString(t.Quantity)
	if err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(t.Price)
	if err != nil {
		return nil, err
	}

	total, err := decimal.NewFromString(t.Total)
	if err != nil {
		return nil, err
	}

	return &domain.Transaction{
		ID:        t.ID,
		UserID:    t.UserID,
		Type:      t.Type,
		AssetID:   t.AssetID,
		Quantity:  quantity,
		Price:     price,
		Total:     total,
		CreatedAt: t.CreatedAt,
	}, nil
}
