package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/howl/internal/balance"
	"github.com/davidbz/howl/internal/config"
	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/health"
	"github.com/davidbz/howl/internal/http"
	"github.com/davidbz/howl/internal/http/middleware"
	ledgermemory "github.com/davidbz/howl/internal/ledger/memory"
	ledgerredis "github.com/davidbz/howl/internal/ledger/redis"
	"github.com/davidbz/howl/internal/observability"
	"github.com/davidbz/howl/internal/provider/anthropic"
	"github.com/davidbz/howl/internal/provider/factory"
	"github.com/davidbz/howl/internal/provider/gigachat"
	"github.com/davidbz/howl/internal/provider/ollama"
	"github.com/davidbz/howl/internal/provider/openai"
	"github.com/davidbz/howl/internal/provider/registry"
)

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *http.Server) {
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Provide(func() domain.EventPublisher {
		return observability.NewEventBus(slog.Default())
	}); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Ledger store: Redis when configured, in-memory otherwise.
	if err := container.Provide(func(
		redisCfg *config.RedisConfig,
		balanceCfg *config.BalanceConfig,
	) domain.LedgerStore {
		if redisCfg.Addr == "" {
			return ledgermemory.NewStore(balanceCfg.DefaultTokens)
		}

		client := goredis.NewClient(&goredis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		return ledgerredis.NewStore(client, redisCfg.KeyPrefix, balanceCfg.DefaultTokens)
	}); err != nil {
		log.Fatalf("Failed to provide ledger store: %v", err)
	}

	// Balance Service
	if err := container.Provide(func(store domain.LedgerStore) domain.BalanceService {
		return balance.NewService(store)
	}); err != nil {
		log.Fatalf("Failed to provide balance service: %v", err)
	}

	// Provider Health Monitor
	if err := container.Provide(func(
		healthCfg *config.HealthConfig,
		gigachatCfg *gigachat.Config,
		openaiCfg *openai.Config,
		ollamaCfg *ollama.Config,
		anthropicCfg *anthropic.Config,
	) domain.HealthMonitor {
		probes := map[domain.ProviderType]health.ProbeFunc{
			domain.ProviderGigaChat:  gigachat.Probe(*gigachatCfg),
			domain.ProviderOpenAI:    openai.Probe(*openaiCfg),
			domain.ProviderOllama:    ollama.Probe(*ollamaCfg),
			domain.ProviderAnthropic: anthropic.Probe(*anthropicCfg),
		}
		return health.NewMonitor(probes,
			health.WithRefreshInterval(time.Duration(healthCfg.RefreshInterval)*time.Second),
			health.WithProbeTimeout(time.Duration(healthCfg.ProbeTimeout)*time.Second),
		)
	}); err != nil {
		log.Fatalf("Failed to provide health monitor: %v", err)
	}

	// Fallback chain
	if err := container.Provide(func(routingCfg *config.RoutingConfig) (domain.FallbackChain, error) {
		return routingCfg.ParseFallbackChain()
	}); err != nil {
		log.Fatalf("Failed to provide fallback chain: %v", err)
	}

	// Provider Factory
	if err := container.Provide(func(
		gigachatCfg *gigachat.Config,
		openaiCfg *openai.Config,
		ollamaCfg *ollama.Config,
		anthropicCfg *anthropic.Config,
		monitor domain.HealthMonitor,
		chain domain.FallbackChain,
	) domain.ClientFactory {
		builders := factory.NewBuilders(*gigachatCfg, *openaiCfg, *ollamaCfg, *anthropicCfg)
		return factory.NewFactory(builders, monitor, chain)
	}); err != nil {
		log.Fatalf("Failed to provide provider factory: %v", err)
	}

	// Model Registry
	if err := container.Provide(func(
		clientFactory domain.ClientFactory,
		monitor domain.HealthMonitor,
	) domain.ModelRegistry {
		return registry.NewRegistry(clientFactory, monitor)
	}); err != nil {
		log.Fatalf("Failed to provide model registry: %v", err)
	}

	// Register the default model (invoked for side effects). A failure
	// here is not fatal: the registry stays empty and requests surface
	// the error until a provider comes back.
	if err := container.Invoke(func(
		reg domain.ModelRegistry,
		routingCfg *config.RoutingConfig,
		logger *zap.Logger,
	) {
		ctx := context.Background()
		_, err := reg.AddModel(ctx, routingCfg.DefaultProvider, routingCfg.DefaultModel, "", true)
		if err != nil {
			logger.Warn("failed to register default model",
				zap.String("provider", routingCfg.DefaultProvider),
				zap.Error(err),
			)
		}
	}); err != nil {
		log.Fatalf("Failed to register default model: %v", err)
	}

	// Token estimator
	if err := container.Provide(func(estimatorCfg *config.EstimatorConfig) domain.TokenEstimator {
		return domain.NewWordCountEstimator(estimatorCfg.TokenMultiplier)
	}); err != nil {
		log.Fatalf("Failed to provide token estimator: %v", err)
	}

	// Domain Services
	if err := container.Provide(domain.NewAnalysisService); err != nil {
		log.Fatalf("Failed to provide analysis service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}
