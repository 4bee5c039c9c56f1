// Package factory constructs provider clients, consulting the health
// monitor and walking the fallback chain when a provider is down or
// cannot be constructed. "Not live" and "construction failed" share one
// fallback path, so transient outages, missing credentials and hard
// failures are handled uniformly.
package factory

import (
	"context"

	"go.uber.org/zap"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
	"github.com/davidbz/howl/internal/provider/anthropic"
	"github.com/davidbz/howl/internal/provider/gigachat"
	"github.com/davidbz/howl/internal/provider/ollama"
	"github.com/davidbz/howl/internal/provider/openai"
)

// BuildFunc constructs a client for one provider type bound to model.
// An empty model selects the provider's configured default.
type BuildFunc func(model string) (domain.ProviderClient, error)

// Factory implements the domain.ClientFactory interface with a dispatch
// table keyed on provider type.
type Factory struct {
	builders map[domain.ProviderType]BuildFunc
	health   domain.HealthMonitor
	chain    domain.FallbackChain
}

// NewFactory creates a provider factory (DI constructor).
func NewFactory(
	builders map[domain.ProviderType]BuildFunc,
	health domain.HealthMonitor,
	chain domain.FallbackChain,
) *Factory {
	return &Factory{
		builders: builders,
		health:   health,
		chain:    chain,
	}
}

// NewBuilders assembles the dispatch table for the built-in provider set.
func NewBuilders(
	gigachatCfg gigachat.Config,
	openaiCfg openai.Config,
	ollamaCfg ollama.Config,
	anthropicCfg anthropic.Config,
) map[domain.ProviderType]BuildFunc {
	return map[domain.ProviderType]BuildFunc{
		domain.ProviderGigaChat: func(model string) (domain.ProviderClient, error) {
			return gigachat.NewClient(gigachatCfg, model)
		},
		domain.ProviderOpenAI: func(model string) (domain.ProviderClient, error) {
			return openai.NewClient(openaiCfg, model)
		},
		domain.ProviderOllama: func(model string) (domain.ProviderClient, error) {
			return ollama.NewClient(ollamaCfg, model)
		},
		domain.ProviderAnthropic: func(model string) (domain.ProviderClient, error) {
			return anthropic.NewClient(anthropicCfg, model)
		},
	}
}

// Create resolves a loosely-typed provider identifier and constructs a
// client for it, falling back along the chain when needed.
func (f *Factory) Create(ctx context.Context, provider string, model string) (domain.ProviderClient, error) {
	providerType, err := domain.ParseProviderType(provider)
	if err != nil {
		return nil, err
	}
	return f.CreateType(ctx, providerType, model)
}

// CreateType constructs a client for providerType with fallback enabled.
func (f *Factory) CreateType(ctx context.Context, providerType domain.ProviderType, model string) (domain.ProviderClient, error) {
	return f.create(ctx, providerType, model, true)
}

// CreateTypeNoFallback constructs a client for exactly providerType.
// Unavailability and construction failures are returned to the caller
// instead of walking the chain.
func (f *Factory) CreateTypeNoFallback(ctx context.Context, providerType domain.ProviderType, model string) (domain.ProviderClient, error) {
	return f.create(ctx, providerType, model, false)
}

// create walks the fallback chain from requested until a client is
// constructed or the chain is exhausted. Every hop is an explicit
// transition: health check, then construction attempt, then successor.
// The visited set guards against a misconfigured cyclic chain.
func (f *Factory) create(
	ctx context.Context,
	requested domain.ProviderType,
	model string,
	allowFallback bool,
) (domain.ProviderClient, error) {
	logger := observability.FromContext(ctx)

	var (
		attempted []domain.ProviderType
		buildErr  error
	)
	visited := make(map[domain.ProviderType]bool)
	current := requested

	for {
		if visited[current] {
			break
		}
		visited[current] = true
		attempted = append(attempted, current)
		buildErr = nil

		builder, supported := f.builders[current]
		switch {
		case !supported:
			buildErr = &domain.UnsupportedProviderError{Name: current.String()}
		case f.health.IsAvailable(ctx, current):
			// The requested model only applies to the requested type;
			// fallback hops use their own configured default.
			buildModel := model
			if current != requested {
				buildModel = ""
			}

			client, err := builder(buildModel)
			if err == nil {
				if current != requested {
					logger.Info("provider fallback applied",
						zap.String("requested", requested.String()),
						zap.String("resolved", current.String()),
					)
				}
				return client, nil
			}

			logger.Warn("provider construction failed",
				zap.String("provider", current.String()),
				zap.Error(err),
			)
			buildErr = err
		default:
			logger.Warn("provider unavailable",
				zap.String("provider", current.String()),
			)
		}

		if !allowFallback {
			break
		}

		next, hasNext := f.chain.Next(current)
		if !hasNext {
			break
		}
		current = next
	}

	// A construction failure at the terminal hop carries more signal
	// than a generic unavailability, so propagate it.
	if buildErr != nil {
		return nil, buildErr
	}

	return nil, &domain.ProviderUnavailableError{
		Requested: requested,
		Attempted: attempted,
	}
}

var _ domain.ClientFactory = (*Factory)(nil)
