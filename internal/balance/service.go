// Package balance meters token usage against per-user budgets.
package balance

import (
	"context"

	"go.uber.org/zap"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
)

// Service implements domain.BalanceService over a ledger store.
// Atomicity of the read-modify-write lives in the store (conditional
// decrement), so the service itself holds no locks and cross-user calls
// proceed fully in parallel.
type Service struct {
	store domain.LedgerStore
}

// NewService creates a new balance service (DI constructor).
func NewService(store domain.LedgerStore) *Service {
	return &Service{store: store}
}

// GetBalance returns the current balance, initializing first-touch users
// to the store's configured default.
func (s *Service) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return s.store.Balance(ctx, userID)
}

// AddTokens credits amount and returns the new balance.
func (s *Service) AddTokens(ctx context.Context, userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}

	newBalance, err := s.store.Credit(ctx, userID, amount)
	if err != nil {
		return 0, err
	}

	observability.FromContext(ctx).Info("tokens credited",
		zap.Int64("user_id", userID),
		zap.Int64("amount", amount),
		zap.Int64("new_balance", newBalance),
	)

	return newBalance, nil
}

// UseTokens debits amount and returns the new balance. An uncovered debit
// fails with InsufficientBalanceError and leaves the ledger unchanged.
func (s *Service) UseTokens(ctx context.Context, userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}

	newBalance, ok, err := s.store.Debit(ctx, userID, amount)
	if err != nil {
		return 0, err
	}

	if !ok {
		return 0, &domain.InsufficientBalanceError{
			UserID:    userID,
			Required:  amount,
			Available: newBalance,
		}
	}

	observability.FromContext(ctx).Info("tokens debited",
		zap.Int64("user_id", userID),
		zap.Int64("amount", amount),
		zap.Int64("new_balance", newBalance),
	)

	return newBalance, nil
}
