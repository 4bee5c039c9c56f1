package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/provider/anthropic"
	"github.com/davidbz/howl/internal/provider/gigachat"
	"github.com/davidbz/howl/internal/provider/ollama"
	"github.com/davidbz/howl/internal/provider/openai"
)

// Config represents the gateway configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Balance   BalanceConfig
	Redis     RedisConfig
	Health    HealthConfig
	Estimator EstimatorConfig
	Routing   RoutingConfig
	GigaChat  gigachat.Config
	OpenAI    openai.Config
	Ollama    ollama.Config
	Anthropic anthropic.Config
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"120"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// BalanceConfig contains token ledger settings. DefaultTokens is the
// balance a user receives on first touch.
type BalanceConfig struct {
	DefaultTokens int64 `env:"BALANCE_DEFAULT_TOKENS" envDefault:"1000"`
}

// RedisConfig contains ledger store connection settings. An empty Addr
// selects the in-memory store.
type RedisConfig struct {
	Addr      string `env:"REDIS_ADDR"`
	Password  string `env:"REDIS_PASSWORD"`
	DB        int    `env:"REDIS_DB"         envDefault:"0"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"howl"`
}

// HealthConfig contains provider health monitor settings (seconds).
type HealthConfig struct {
	RefreshInterval int `env:"HEALTH_REFRESH_INTERVAL" envDefault:"60"`
	ProbeTimeout    int `env:"HEALTH_PROBE_TIMEOUT"    envDefault:"5"`
}

// EstimatorConfig contains token estimation settings. The multiplier is
// configuration on purpose: the word-count proxy has no accuracy target
// and operators tune it per deployment.
type EstimatorConfig struct {
	TokenMultiplier float64 `env:"TOKEN_ESTIMATE_MULTIPLIER" envDefault:"2.0"`
}

// RoutingConfig contains provider selection settings. FallbackChain is a
// comma-separated list of from=to pairs.
type RoutingConfig struct {
	DefaultProvider string `env:"DEFAULT_PROVIDER" envDefault:"gigachat"`
	DefaultModel    string `env:"DEFAULT_MODEL"`
	FallbackChain   string `env:"FALLBACK_CHAIN"   envDefault:"gigachat=openai,openai=ollama,anthropic=openai"`
}

// ParseFallbackChain parses the configured from=to pairs into a validated
// fallback chain.
func (c RoutingConfig) ParseFallbackChain() (domain.FallbackChain, error) {
	successors := make(map[domain.ProviderType]domain.ProviderType)

	for _, pair := range strings.Split(c.FallbackChain, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		from, to, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid fallback pair %q, expected from=to", pair)
		}

		fromType, err := domain.ParseProviderType(from)
		if err != nil {
			return nil, fmt.Errorf("invalid fallback source in %q: %w", pair, err)
		}

		toType, err := domain.ParseProviderType(to)
		if err != nil {
			return nil, fmt.Errorf("invalid fallback target in %q: %w", pair, err)
		}

		successors[fromType] = toType
	}

	return domain.NewFallbackChain(successors)
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*BalanceConfig
	*RedisConfig
	*HealthConfig
	*EstimatorConfig
	*RoutingConfig
	GigaChat  *gigachat.Config
	OpenAI    *openai.Config
	Ollama    *ollama.Config
	Anthropic *anthropic.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Balance,
		&cfg.Redis,
		&cfg.Health,
		&cfg.Estimator,
		&cfg.Routing,
		&cfg.GigaChat,
		&cfg.OpenAI,
		&cfg.Ollama,
		&cfg.Anthropic,
	}
}
