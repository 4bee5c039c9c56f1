package domain

import "context"

// ProviderClient generates completions against one concrete LLM backend.
// Any session or auth-token state a backend needs is owned by its client
// and never shared across implementations.
type ProviderClient interface {
	// Generate sends a role-tagged message sequence and returns the
	// generated text plus a token-usage count.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Type returns the resolved provider type of this client. After a
	// fallback it may differ from the type originally requested.
	Type() ProviderType

	// Model returns the model name the client is bound to.
	Model() string
}

// HealthMonitor tracks cached per-provider liveness.
type HealthMonitor interface {
	// IsAvailable returns the cached availability flag, probing the
	// provider only when the cached record is stale.
	IsAvailable(ctx context.Context, provider ProviderType) bool
}

// ClientFactory constructs provider clients, substituting a healthy
// fallback provider when the requested one is unavailable.
type ClientFactory interface {
	// Create resolves a loosely-typed provider identifier and constructs
	// a client for it, walking the fallback chain as needed.
	Create(ctx context.Context, provider string, model string) (ProviderClient, error)
}

// ModelRegistry holds aliased provider clients and the default alias.
type ModelRegistry interface {
	// AddModel constructs a client via the factory and stores it under
	// alias. The first entry added becomes the default.
	AddModel(ctx context.Context, provider string, model string, alias string, makeDefault bool) (ProviderClient, error)

	// GetModel resolves alias (or the default when alias is empty),
	// transparently re-resolving to a fallback client when the bound
	// provider has gone unavailable.
	GetModel(ctx context.Context, alias string) (ProviderClient, error)
}

// LedgerStore is a durable user id -> token balance mapping. Users absent
// from the store are initialized to the configured default on first touch.
type LedgerStore interface {
	// Balance returns the current balance for userID.
	Balance(ctx context.Context, userID int64) (int64, error)

	// Credit atomically adds amount and returns the new balance.
	Credit(ctx context.Context, userID int64, amount int64) (int64, error)

	// Debit atomically subtracts amount if the balance covers it.
	// When it does not, ok is false, the returned balance is the current
	// (unchanged) one, and no mutation is performed.
	Debit(ctx context.Context, userID int64, amount int64) (balance int64, ok bool, err error)
}

// BalanceService meters token usage against per-user budgets.
type BalanceService interface {
	// GetBalance returns the current balance for userID.
	GetBalance(ctx context.Context, userID int64) (int64, error)

	// AddTokens credits amount and returns the new balance.
	AddTokens(ctx context.Context, userID int64, amount int64) (int64, error)

	// UseTokens debits amount and returns the new balance. The balance
	// never goes negative: an uncovered debit fails with
	// InsufficientBalanceError and performs no mutation.
	UseTokens(ctx context.Context, userID int64, amount int64) (int64, error)
}

// TokenEstimator predicts the token cost of a text before any provider
// call is made. Estimates are deliberately overestimate-biased so that
// admission control errs toward rejecting rather than under-charging.
type TokenEstimator interface {
	Estimate(text string) int64
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}
