package postgres

import (
	"context"
	"errors"

	"github.com/antonvlasov/papertrade/internal/common/domain"
	"github.com/antonvlasov/papertrade/pkg/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type portfoliosRepository struct {
	psql *pgxpool.Pool
}

func NewPortfoliosRepository(pool *pgxpool.Pool) domain.PortfoliosRepository {
	return &portfoliosRepository{
		psql: pool,
	}
}

func (pr *portfoliosRepository) GetPortfolio(ctx context.Context, userID string) (*domain.Portfolio, error) {
	query := `SELECT
			user_id,
			balance::text,
			version,
			created_at,
			updated_at
		FROM papertrade.portfolios WHERE user_id = $1`
	portfolio := &Portfolio{}
	if err := pr.psql.QueryRow(ctx, query, userID).Scan(
		&portfolio.UserID,
		&portfolio.Balance,
		&portfolio.Version,
		&portfolio.CreatedAt,
		&portfolio.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, errs.NewStack(err)
	}

	holdings, err := pr.getHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := portfolio.CreateDomain(holdings)
	if err != nil {
		return nil, errs.NewStack(err)
	}

	return result, nil
}

func (pr *portfoliosRepository) getHoldings(ctx context.Context, userID string) ([]*Holding, error) {
	query := `SELECT
			asset_id,
			quantity::text
		FROM papertrade.holdings WHERE user_id = $1`
	rows, err := pr.psql.Query(ctx, query, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []*Holding{}, nil
		}

		return nil, errs.NewStack(err)
	}
	defer rows.Close()

	holdings := []*Holding{}
	for rows.Next() {
		holding := &Holding{}
		if err := rows.Scan(&holding.AssetID, &holding.Quantity); err != nil {
			return nil, errs.NewStack(err)
		}

		holdings = append(holdings, holding)
	}

	return holdings, nil
}

func (pr *portfoliosRepository) CreatePortfolio(ctx context.Context, portfolio *domain.Portfolio) error {
	query := `INSERT INTO papertrade.portfolios(user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`
	_, err := pr.psql.Exec(ctx, query, portfolio.UserID, portfolio.Balance.StringFixed(domain.CurrencyPrecision))
	if err != nil {
		return errs.NewStack(err)
	}

	return nil
}

// CommitTrade writes the portfolio snapshot, the affected holding row
// and the transaction record in one database transaction. The balance
// update is conditional on the snapshot's version: a concurrent commit
// for the same user surfaces as domain.ErrVersionConflict and nothing
// is persisted.
func (pr *portfoliosRepository) CommitTrade(ctx context.Context, portfolio *domain.Portfolio, transaction *domain.Transaction) error {
	tx, err := pr.psql.Begin(ctx)
	if err != nil {
		return errs.NewStack(err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE papertrade.portfolios
		SET balance = $1,
			version = version + 1,
			updated_at = now()
		WHERE user_id = $2 AND version = $3`
	tag, err := tx.Exec(ctx, query,
		portfolio.Balance.StringFixed(domain.CurrencyPrecision),
		portfolio.UserID,
		portfolio.Version,
	)
	if err != nil {
		return errs.NewStack(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}

	if quantity, ok := portfolio.Holdings[transaction.AssetID]; ok {
		query = `INSERT INTO papertrade.holdings(user_id, asset_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, asset_id) DO UPDATE
			SET quantity = EXCLUDED.quantity`
		_, err = tx.Exec(ctx, query, portfolio.UserID, transaction.AssetID, quantity.String())
	} else {
		// The position was closed; a zero-quantity row must never persist.
		query = `DELETE FROM papertrade.holdings WHERE user_id = $1 AND asset_id = $2`
		_, err = tx.Exec(ctx, query, portfolio.UserID, transaction.AssetID)
	}
	if err != nil {
		return errs.NewStack(err)
	}

	query = `INSERT INTO papertrade.transactions(
			user_id,
			type,
			asset_id,
			quantity,
			price,
			total,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := tx.QueryRow(ctx, query,
		transaction.UserID,
		transaction.Type,
		transaction.AssetID,
		transaction.Quantity.String(),
		transaction.Price.String(),
		transaction.Total.StringFixed(domain.CurrencyPrecision),
		transaction.CreatedAt,
	).Scan(&transaction.ID); err != nil {
		return errs.NewStack(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.NewStack(err)
	}

	return nil
}

// ResetPortfolio restores the default balance and wipes the holdings
// and the transaction log in one database transaction. The version bump
// makes any in-flight trade's conditional update fail, so a trade can
// never survive a reset partially.
func (pr *portfoliosRepository) ResetPortfolio(ctx context.Context, userID string) (*domain.Portfolio, error) {
	tx, err := pr.psql.Begin(ctx)
	if err != nil {
		return nil, errs.NewStack(err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO papertrade.portfolios(user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = EXCLUDED.balance,
			version = papertrade.portfolios.version + 1,
			updated_at = now()
		RETURNING user_id, balance::text, version, created_at, updated_at`
	portfolio := &Portfolio{}
	if err := tx.QueryRow(ctx, query, userID, domain.DefaultBalance.StringFixed(domain.CurrencyPrecision)).Scan(
		&portfolio.UserID,
		&portfolio.Balance,
		&portfolio.Version,
		&portfolio.CreatedAt,
		&portfolio.UpdatedAt,
	); err != nil {
		return nil, errs.NewStack(err)
	}

	query = `DELETE FROM papertrade.holdings WHERE user_id = $1`
	if _, err := tx.Exec(ctx, query, userID); err != nil {
		return nil, errs.NewStack(err)
	}

	query = `DELETE FROM papertrade.transactions WHERE user_id = $1`
	if _, err := tx.Exec(ctx, query, userID); err != nil {
		return nil, errs.NewStack(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errs.NewStack(err)
	}

	result, err := portfolio.CreateDomain(nil)
	if err != nil {
		return nil, errs.NewStack(err)
	}

	return result, nil
}
