// Package redis provides a Redis-backed ledger store. Debits run as a Lua
// script so the check-then-subtract is atomic server-side, which keeps the
// non-negativity invariant even across multiple gateway processes.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Balances are initialized server-side on first touch so that every
// script observes either the stored value or the default, never nil.
var (
	debitScript = redis.NewScript(`
		local balance = tonumber(redis.call('GET', KEYS[1]))
		if balance == nil then
			balance = tonumber(ARGV[2])
		end
		local amount = tonumber(ARGV[1])
		if amount > balance then
			redis.call('SET', KEYS[1], balance)
			return {balance, 0}
		end
		balance = balance - amount
		redis.call('SET', KEYS[1], balance)
		return {balance, 1}
	`)

	creditScript = redis.NewScript(`
		local balance = tonumber(redis.call('GET', KEYS[1]))
		if balance == nil then
			balance = tonumber(ARGV[2])
		end
		balance = balance + tonumber(ARGV[1])
		redis.call('SET', KEYS[1], balance)
		return balance
	`)
)

// Store implements domain.LedgerStore on top of Redis.
type Store struct {
	client         *redis.Client
	keyPrefix      string
	defaultBalance int64
}

// NewStore creates a Redis ledger store. Users are initialized to
// defaultBalance on first touch.
func NewStore(client *redis.Client, keyPrefix string, defaultBalance int64) *Store {
	if keyPrefix == "" {
		keyPrefix = "ledger"
	}
	return &Store{
		client:         client,
		keyPrefix:      keyPrefix,
		defaultBalance: defaultBalance,
	}
}

// Balance returns the current balance for userID, initializing absent
// users to the default balance.
func (s *Store) Balance(ctx context.Context, userID int64) (int64, error) {
	key := s.key(userID)

	// SETNX makes first-touch initialization race-free across processes.
	if err := s.client.SetNX(ctx, key, s.defaultBalance, 0).Err(); err != nil {
		return 0, fmt.Errorf("failed to initialize balance: %w", err)
	}

	balance, err := s.client.Get(ctx, key).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}

	return balance, nil
}

// Credit atomically adds amount and returns the new balance.
func (s *Store) Credit(ctx context.Context, userID int64, amount int64) (int64, error) {
	result, err := creditScript.Run(ctx, s.client, []string{s.key(userID)}, amount, s.defaultBalance).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to credit balance: %w", err)
	}

	return result, nil
}

// Debit atomically subtracts amount if the balance covers it. The Lua
// script returns the (possibly unchanged) balance plus an applied flag.
func (s *Store) Debit(ctx context.Context, userID int64, amount int64) (int64, bool, error) {
	result, err := debitScript.Run(ctx, s.client, []string{s.key(userID)}, amount, s.defaultBalance).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("failed to debit balance: %w", err)
	}

	if len(result) != 2 {
		return 0, false, fmt.Errorf("unexpected debit script result: %v", result)
	}

	return result[0], result[1] == 1, nil
}

func (s *Store) key(userID int64) string {
	return fmt.Sprintf("%s:balance:%d", s.keyPrefix, userID)
}
