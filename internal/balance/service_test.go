package balance_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/howl/internal/balance"
	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/ledger/memory"
)

func TestService_GetBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("should return the default balance for a new user", func(t *testing.T) {
		service := balance.NewService(memory.NewStore(1000))

		got, err := service.GetBalance(ctx, 42)
		require.NoError(t, err)
		require.Equal(t, int64(1000), got)
	})

	t.Run("first-touch default is applied exactly once", func(t *testing.T) {
		service := balance.NewService(memory.NewStore(1000))

		_, err := service.UseTokens(ctx, 42, 400)
		require.NoError(t, err)

		// A later read must see the debited balance, not a fresh default.
		got, err := service.GetBalance(ctx, 42)
		require.NoError(t, err)
		require.Equal(t, int64(600), got)
	})
}

func TestService_AddTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("should credit and return the new balance", func(t *testing.T) {
		service := balance.NewService(memory.NewStore(100))

		got, err := service.AddTokens(ctx, 1, 50)
		require.NoError(t, err)
		require.Equal(t, int64(150), got)
	})

	t.Run("should reject non-positive amounts", func(t *testing.T) {
		service := balance.NewService(memory.NewStore(100))

		_, err := service.AddTokens(ctx, 1, 0)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)

		_, err = service.AddTokens(ctx, 1, -10)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)

		// No mutation happened.
		got, err := service.GetBalance(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, int64(100), got)
	})
}

func TestService_UseTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("should debit and return the new balance", func(t *testing.T) {
		service := balance.NewService(memory.NewStore(100))

		got, err := service.UseTokens(ctx, 1, 30)
		require.NoError(t, err)
		require.Equal(t, int64(70), got)
	})

	t.Run("balance can reach exactly zero", func(t *testing.T) {
		service := balance.NewService(memory.NewStore(100))

		got, err := service.UseTokens(ctx, 1, 100)
		require.NoError(t, err)
		require.Equal(t, int64(0), got)
	})

	t.Run("should reject an uncovered debit without mutation", func(t *testing.T) {
		service := balance.NewService(memory.NewStore(100))

		_, err := service.UseTokens(ctx, 1, 101)
		require.Error(t, err)

		var insufficient *domain.InsufficientBalanceError
		require.ErrorAs(t, err, &insufficient)
		require.Equal(t, int64(101), insufficient.Required)
		require.Equal(t, int64(100), insufficient.Available)

		got, err := service.GetBalance(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, int64(100), got)
	})

	t.Run("should reject non-positive amounts", func(t *testing.T) {
		service := balance.NewService(memory.NewStore(100))

		_, err := service.UseTokens(ctx, 1, 0)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("repeated uncovered debits never push the balance negative", func(t *testing.T) {
		service := balance.NewService(memory.NewStore(10))

		_, err := service.UseTokens(ctx, 1, 7)
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			_, err = service.UseTokens(ctx, 1, 4)
			var insufficient *domain.InsufficientBalanceError
			require.ErrorAs(t, err, &insufficient)
		}

		got, err := service.GetBalance(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, int64(3), got)
	})
}

// Run with -race: N concurrent single-token debits against a balance of
// exactly N must all succeed and land on zero, with no lost updates.
func TestService_UseTokens_Concurrent(t *testing.T) {
	ctx := context.Background()
	const n = 100

	service := balance.NewService(memory.NewStore(n))

	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.UseTokens(ctx, 7, 1)
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := service.GetBalance(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, int64(0), got)

	// The next debit must fail: the budget is spent.
	_, err = service.UseTokens(ctx, 7, 1)
	var insufficient *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
}

// Cross-user debits are independent.
func TestService_UseTokens_ConcurrentUsers(t *testing.T) {
	ctx := context.Background()

	service := balance.NewService(memory.NewStore(50))

	var wg sync.WaitGroup
	for userID := int64(1); userID <= 10; userID++ {
		userID := userID
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, err := service.UseTokens(ctx, userID, 1)
				require.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	for userID := int64(1); userID <= 10; userID++ {
		got, err := service.GetBalance(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, int64(0), got)
	}
}
