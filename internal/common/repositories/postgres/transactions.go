package postgres

import (
	"context"
	"errors"

	"github.com/antonvlasov/papertrade/internal/common/domain"
	"github.com/antonvlasov/papertrade/pkg/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type transactionsRepository struct {
	psql *pgxpool.Pool
}

func NewTransactionsRepository(pool *pgxpool.Pool) domain.TransactionsRepository {
	return &transactionsRepository{
		psql: pool,
	}
}

func (tr *transactionsRepository) GetTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	query := `SELECT
			id,
			user_id,
			type,
			asset_id,
			quantity::text,
			price::text,
			total::text,
			created_at
		FROM papertrade.transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := tr.psql.Query(ctx, query, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []*domain.Transaction{}, nil
		}

		return nil, errs.NewStack(err)
	}
	defer rows.Close()

	transactions := []*domain.Transaction{}
	for rows.Next() {
		transaction := &Transaction{}
		if err := rows.Scan(
			&transaction.ID,
			&transaction.UserID,
			&transaction.Type,
			&transaction.AssetID,
			&transaction.Quantity,
			&transaction.Price,
			&transaction.Total,
			&transaction.CreatedAt,
		); err != nil {
			return nil, errs.NewStack(err)
		}

		result, err := transaction.CreateDomain()
		if err != nil {
			return nil, errs.NewStack(err)
		}

		transactions = append(transactions, result)
	}

	return transactions, nil
}
