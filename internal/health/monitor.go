// Package health tracks cached per-provider liveness.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
)

const (
	// DefaultRefreshInterval bounds probe cost to one probe per provider
	// per interval regardless of call volume.
	DefaultRefreshInterval = 60 * time.Second

	// DefaultProbeTimeout bounds a single liveness probe.
	DefaultProbeTimeout = 5 * time.Second
)

// ProbeFunc checks liveness of one provider. A non-nil error means the
// provider is unavailable; probes must never panic.
type ProbeFunc func(ctx context.Context) error

// Monitor implements domain.HealthMonitor with a read-heavy cache of
// per-provider health records. Probes run only when a record is stale.
type Monitor struct {
	mu      sync.RWMutex
	records map[domain.ProviderType]*record

	probes       map[domain.ProviderType]ProbeFunc
	interval     time.Duration
	probeTimeout time.Duration
	now          func() time.Time
}

// record carries its own mutex so concurrent refreshes of the same
// provider collapse to a single probe while other providers stay
// untouched.
type record struct {
	mu            sync.Mutex
	lastCheckedAt time.Time
	available     bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithRefreshInterval overrides the cache refresh interval.
func WithRefreshInterval(interval time.Duration) Option {
	return func(m *Monitor) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// WithProbeTimeout overrides the per-probe timeout.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(m *Monitor) {
		if timeout > 0 {
			m.probeTimeout = timeout
		}
	}
}

// NewMonitor creates a health monitor with one probe per provider type.
// Providers without a registered probe are always reported available.
func NewMonitor(probes map[domain.ProviderType]ProbeFunc, opts ...Option) *Monitor {
	m := &Monitor{
		records:      make(map[domain.ProviderType]*record),
		probes:       probes,
		interval:     DefaultRefreshInterval,
		probeTimeout: DefaultProbeTimeout,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// IsAvailable returns the cached availability flag for provider, probing
// only when the cached record is older than the refresh interval. Probe
// failures are recorded as unavailable, never surfaced as errors.
func (m *Monitor) IsAvailable(ctx context.Context, provider domain.ProviderType) bool {
	probe, hasProbe := m.probes[provider]
	if !hasProbe {
		// Nothing to probe: stay optimistic rather than block callers.
		return true
	}

	rec := m.record(provider)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	// A concurrent caller may have refreshed while we waited on the lock.
	if !rec.lastCheckedAt.IsZero() && m.now().Sub(rec.lastCheckedAt) < m.interval {
		return rec.available
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	err := probe(probeCtx)
	rec.available = err == nil
	rec.lastCheckedAt = m.now()

	if err != nil {
		observability.FromContext(ctx).Warn("provider health probe failed",
			zap.String("provider", provider.String()),
			zap.Error(err),
		)
	}

	return rec.available
}

// Record returns a snapshot of the health record for provider. Records
// start optimistic: available, never checked.
func (m *Monitor) Record(provider domain.ProviderType) domain.HealthRecord {
	rec := m.record(provider)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	return domain.HealthRecord{
		ProviderType:  provider,
		LastCheckedAt: rec.lastCheckedAt,
		Available:     rec.available || rec.lastCheckedAt.IsZero(),
	}
}

// record returns the record for provider, creating an optimistic default
// on first touch.
func (m *Monitor) record(provider domain.ProviderType) *record {
	m.mu.RLock()
	rec, exists := m.records[provider]
	m.mu.RUnlock()
	if exists {
		return rec
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, exists = m.records[provider]; !exists {
		rec = &record{available: true}
		m.records[provider] = rec
	}
	return rec
}
