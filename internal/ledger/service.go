package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/antonvlasov/papertrade/internal/common/domain"
	"github.com/antonvlasov/papertrade/pkg/errs"
)

// maxCommitAttempts bounds the optimistic-concurrency retry loop for a
// single trade request.
const maxCommitAttempts = 3

// Service serializes portfolio mutations per user on top of the pure
// trade engine: every attempt validates against a freshly read
// snapshot, and the commit is conditional on that snapshot's version.
type Service struct {
	portfolios   domain.PortfoliosRepository
	transactions domain.TransactionsRepository
	oracle       domain.PriceOracle
}

func NewService(
	portfolios domain.PortfoliosRepository,
	transactions domain.TransactionsRepository,
	oracle domain.PriceOracle,
) *Service {
	return &Service{
		portfolios:   portfolios,
		transactions: transactions,
		oracle:       oracle,
	}
}

// GetOrCreatePortfolio returns the user's portfolio, creating the
// default one on first access. CreatePortfolio is insert-if-absent, so
// concurrent first accesses converge on a single record and the re-read
// returns whichever insert won.
func (s *Service) GetOrCreatePortfolio(ctx context.Context, userID string) (*domain.Portfolio, error) {
	portfolio, err := s.portfolios.GetPortfolio(ctx, userID)
	if err != nil {
		return nil, errs.NewStack(err)
	}
	if portfolio != nil {
		return portfolio, nil
	}

	if err := s.portfolios.CreatePortfolio(ctx, domain.NewDefaultPortfolio(userID)); err != nil {
		return nil, errs.NewStack(err)
	}

	portfolio, err = s.portfolios.GetPortfolio(ctx, userID)
	if err != nil {
		return nil, errs.NewStack(err)
	}
	if portfolio == nil {
		return nil, errs.NewStack(fmt.Errorf("portfolio for user %q missing after create", userID))
	}

	return portfolio, nil
}

// ExecuteTrade runs one trade for the user. A version conflict means
// another trade or reset committed between the read and the write; the
// whole computation is redone against the latest snapshot, never
// against cached state.
func (s *Service) ExecuteTrade(ctx context.Context, userID string, request *TradeRequest) (*domain.Portfolio, *domain.Transaction, error) {
	var err error

	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		var portfolio *domain.Portfolio
		portfolio, err = s.GetOrCreatePortfolio(ctx, userID)
		if err != nil {
			return nil, nil, err
		}

		var updated *domain.Portfolio
		var transaction *domain.Transaction
		updated, transaction, err = ExecuteTrade(ctx, portfolio, request, s.oracle)
		if err != nil {
			return nil, nil, err
		}

		err = s.portfolios.CommitTrade(ctx, updated, transaction)
		if err == nil {
			return updated, transaction, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, nil, errs.NewStack(err)
		}
	}

	return nil, nil, errs.NewStack(fmt.Errorf("trade for user %q not committed after %d attempts: %w",
		userID, maxCommitAttempts, err))
}

// Reset restores the default portfolio and clears the trade history.
// The repository applies both as a single atomic operation, so a trade
// committed concurrently is either wiped in full or lands after the
// reset; its transaction record can never outlive its balance effect.
// Resetting an unknown user creates the default record, and repeating a
// reset is a no-op, so the call is safe to retry.
func (s *Service) Reset(ctx context.Context, userID string) (*domain.Portfolio, error) {
	portfolio, err := s.portfolios.ResetPortfolio(ctx, userID)
	if err != nil {
		return nil, errs.NewStack(err)
	}

	return portfolio, nil
}

// Transactions returns the user's trade history, newest first.
func (s *Service) Transactions(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	transactions, err := s.transactions.GetTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, errs.NewStack(err)
	}

	return transactions, nil
}
