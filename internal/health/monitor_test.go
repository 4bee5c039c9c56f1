package health_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/health"
)

func TestMonitor_IsAvailable(t *testing.T) {
	ctx := context.Background()

	t.Run("should cache the probe result within the refresh interval", func(t *testing.T) {
		var probes atomic.Int32
		monitor := health.NewMonitor(
			map[domain.ProviderType]health.ProbeFunc{
				domain.ProviderOpenAI: func(_ context.Context) error {
					probes.Add(1)
					return nil
				},
			},
			health.WithRefreshInterval(time.Minute),
		)

		require.True(t, monitor.IsAvailable(ctx, domain.ProviderOpenAI))
		require.True(t, monitor.IsAvailable(ctx, domain.ProviderOpenAI))
		require.Equal(t, int32(1), probes.Load())
	})

	t.Run("should probe again after the interval elapses", func(t *testing.T) {
		var probes atomic.Int32
		monitor := health.NewMonitor(
			map[domain.ProviderType]health.ProbeFunc{
				domain.ProviderOpenAI: func(_ context.Context) error {
					probes.Add(1)
					return nil
				},
			},
			health.WithRefreshInterval(20*time.Millisecond),
		)

		require.True(t, monitor.IsAvailable(ctx, domain.ProviderOpenAI))
		time.Sleep(30 * time.Millisecond)
		require.True(t, monitor.IsAvailable(ctx, domain.ProviderOpenAI))
		require.Equal(t, int32(2), probes.Load())
	})

	t.Run("should treat probe failure as unavailable", func(t *testing.T) {
		monitor := health.NewMonitor(map[domain.ProviderType]health.ProbeFunc{
			domain.ProviderOllama: func(_ context.Context) error {
				return errors.New("connection refused")
			},
		})

		require.False(t, monitor.IsAvailable(ctx, domain.ProviderOllama))
	})

	t.Run("should cache an unavailable result too", func(t *testing.T) {
		var probes atomic.Int32
		monitor := health.NewMonitor(
			map[domain.ProviderType]health.ProbeFunc{
				domain.ProviderOllama: func(_ context.Context) error {
					probes.Add(1)
					return errors.New("connection refused")
				},
			},
			health.WithRefreshInterval(time.Minute),
		)

		require.False(t, monitor.IsAvailable(ctx, domain.ProviderOllama))
		require.False(t, monitor.IsAvailable(ctx, domain.ProviderOllama))
		require.Equal(t, int32(1), probes.Load())
	})

	t.Run("should report providers without a probe as available", func(t *testing.T) {
		monitor := health.NewMonitor(nil)
		require.True(t, monitor.IsAvailable(ctx, domain.ProviderAnthropic))
	})

	t.Run("should bound the probe with the configured timeout", func(t *testing.T) {
		monitor := health.NewMonitor(
			map[domain.ProviderType]health.ProbeFunc{
				domain.ProviderOllama: func(probeCtx context.Context) error {
					<-probeCtx.Done()
					return probeCtx.Err()
				},
			},
			health.WithProbeTimeout(10*time.Millisecond),
		)

		start := time.Now()
		require.False(t, monitor.IsAvailable(ctx, domain.ProviderOllama))
		require.Less(t, time.Since(start), time.Second)
	})

	t.Run("concurrent callers collapse to a single probe", func(t *testing.T) {
		var probes atomic.Int32
		monitor := health.NewMonitor(
			map[domain.ProviderType]health.ProbeFunc{
				domain.ProviderOpenAI: func(_ context.Context) error {
					probes.Add(1)
					time.Sleep(10 * time.Millisecond)
					return nil
				},
			},
			health.WithRefreshInterval(time.Minute),
		)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				require.True(t, monitor.IsAvailable(ctx, domain.ProviderOpenAI))
			}()
		}
		wg.Wait()

		require.Equal(t, int32(1), probes.Load())
	})
}

func TestMonitor_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("records start optimistic", func(t *testing.T) {
		monitor := health.NewMonitor(nil)

		record := monitor.Record(domain.ProviderGigaChat)
		require.True(t, record.Available)
		require.True(t, record.LastCheckedAt.IsZero())
	})

	t.Run("record reflects the last probe", func(t *testing.T) {
		monitor := health.NewMonitor(map[domain.ProviderType]health.ProbeFunc{
			domain.ProviderOllama: func(_ context.Context) error {
				return errors.New("down")
			},
		})

		monitor.IsAvailable(ctx, domain.ProviderOllama)

		record := monitor.Record(domain.ProviderOllama)
		require.False(t, record.Available)
		require.False(t, record.LastCheckedAt.IsZero())
	})
}
