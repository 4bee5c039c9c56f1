// Package registry holds aliased provider clients. An alias is a stable
// handle; the client bound to it is swapped in place when its provider
// goes unavailable and a fallback can be resolved.
package registry

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
)

// Registry implements the domain.ModelRegistry interface.
type Registry struct {
	mu           sync.RWMutex
	entries      map[string]*entry
	defaultAlias string

	factory domain.ClientFactory
	health  domain.HealthMonitor
}

// entry binds an alias to a resolved client. The original request is kept
// so a re-resolution restarts from the caller's preference, not from
// whatever fallback happens to be bound right now.
type entry struct {
	client            domain.ProviderClient
	providerType      domain.ProviderType
	requestedProvider string
	requestedModel    string
}

// NewRegistry creates a model registry (DI constructor).
func NewRegistry(factory domain.ClientFactory, health domain.HealthMonitor) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		factory: factory,
		health:  health,
	}
}

// AddModel constructs a client via the factory and stores it under alias.
// An empty alias is derived from the requested provider and the bound
// model. The first entry added becomes the default unless makeDefault
// overrides it later.
func (r *Registry) AddModel(
	ctx context.Context,
	provider string,
	model string,
	alias string,
	makeDefault bool,
) (domain.ProviderClient, error) {
	client, err := r.factory.Create(ctx, provider, model)
	if err != nil {
		return nil, err
	}

	if alias == "" {
		alias = fmt.Sprintf("%s/%s", provider, client.Model())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[alias]; exists {
		return nil, fmt.Errorf("model alias %q already registered", alias)
	}

	r.entries[alias] = &entry{
		client:            client,
		providerType:      client.Type(),
		requestedProvider: provider,
		requestedModel:    model,
	}

	if makeDefault || r.defaultAlias == "" {
		r.defaultAlias = alias
	}

	observability.FromContext(ctx).Info("model registered",
		zap.String("alias", alias),
		zap.String("provider", client.Type().String()),
		zap.String("model", client.Model()),
		zap.Bool("default", r.defaultAlias == alias),
	)

	return client, nil
}

// GetModel resolves alias, falling back to the default when alias is
// empty. When the bound provider has gone unavailable, the entry is
// re-resolved through the factory and swapped in place; if re-resolution
// fails too, the previous client is returned rather than failing the
// call. Availability is advisory at this layer; the hard gate is the
// balance check in the pipeline.
func (r *Registry) GetModel(ctx context.Context, alias string) (domain.ProviderClient, error) {
	r.mu.RLock()
	if alias == "" {
		alias = r.defaultAlias
	}
	if alias == "" {
		r.mu.RUnlock()
		return nil, domain.ErrNoDefaultModel
	}

	ent, exists := r.entries[alias]
	if !exists {
		r.mu.RUnlock()
		return nil, fmt.Errorf("model alias %q not found", alias)
	}
	client := ent.client
	providerType := ent.providerType
	requestedProvider := ent.requestedProvider
	requestedModel := ent.requestedModel
	r.mu.RUnlock()

	if r.health.IsAvailable(ctx, providerType) {
		return client, nil
	}

	replacement, err := r.factory.Create(ctx, requestedProvider, requestedModel)
	if err != nil {
		observability.FromContext(ctx).Warn("re-resolution failed, returning stale client",
			zap.String("alias", alias),
			zap.String("provider", providerType.String()),
			zap.Error(err),
		)
		return client, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// The entry may have been replaced while the factory ran; the last
	// successful resolution wins either way.
	ent, exists = r.entries[alias]
	if !exists {
		return replacement, nil
	}
	ent.client = replacement
	ent.providerType = replacement.Type()

	observability.FromContext(ctx).Info("model re-resolved",
		zap.String("alias", alias),
		zap.String("previous_provider", providerType.String()),
		zap.String("resolved_provider", replacement.Type().String()),
	)

	return replacement, nil
}

// DefaultAlias returns the current default alias, empty when the registry
// holds no entries.
func (r *Registry) DefaultAlias() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultAlias
}

// Aliases returns all registered aliases.
func (r *Registry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	aliases := make([]string, 0, len(r.entries))
	for alias := range r.entries {
		aliases = append(aliases, alias)
	}
	return aliases
}

var _ domain.ModelRegistry = (*Registry)(nil)
