// Package memory provides an in-process ledger store. It backs tests and
// deployments that run without Redis; balances do not survive a restart.
package memory

import (
	"context"
	"sync"
)

// Store implements domain.LedgerStore with an in-memory map.
// All operations perform their read-modify-write under a single lock, so
// a debit is an atomic conditional-decrement.
type Store struct {
	mu             sync.Mutex
	balances       map[int64]int64
	defaultBalance int64
}

// NewStore creates an in-memory ledger store. Users are initialized to
// defaultBalance on first touch.
func NewStore(defaultBalance int64) *Store {
	return &Store{
		balances:       make(map[int64]int64),
		defaultBalance: defaultBalance,
	}
}

// Balance returns the current balance for userID.
func (s *Store) Balance(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.touch(userID), nil
}

// Credit atomically adds amount and returns the new balance.
func (s *Store) Credit(_ context.Context, userID int64, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.touch(userID) + amount
	s.balances[userID] = balance
	return balance, nil
}

// Debit atomically subtracts amount if the balance covers it.
func (s *Store) Debit(_ context.Context, userID int64, amount int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.touch(userID)
	if amount > balance {
		return balance, false, nil
	}

	balance -= amount
	s.balances[userID] = balance
	return balance, true, nil
}

// touch returns the stored balance, creating the entry with the default
// balance on first use. Caller must hold s.mu.
func (s *Store) touch(userID int64) int64 {
	balance, exists := s.balances[userID]
	if !exists {
		balance = s.defaultBalance
		s.balances[userID] = balance
	}
	return balance
}
