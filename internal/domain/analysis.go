package domain

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/davidbz/howl/internal/observability"
)

// AnalysisService is the external-facing request pipeline. It meters a
// request against the user's token budget, resolves a provider client and
// invokes it, then debits actual usage.
type AnalysisService struct {
	registry  ModelRegistry
	balance   BalanceService
	estimator TokenEstimator
	events    EventPublisher
}

// NewAnalysisService creates a new analysis pipeline (DI constructor).
func NewAnalysisService(
	registry ModelRegistry,
	balance BalanceService,
	estimator TokenEstimator,
	events EventPublisher,
) *AnalysisService {
	return &AnalysisService{
		registry:  registry,
		balance:   balance,
		estimator: estimator,
		events:    events,
	}
}

// Analyze runs one analysis request for userID. preference, when set, is a
// registry alias naming the model to use; the resolved provider may still
// differ when a fallback fires.
//
// Admission control happens before any provider call: a request the
// estimated cost of which exceeds the current balance is rejected without
// contacting a provider. The debit after generation uses the provider's
// reported usage when present, the estimate otherwise.
func (s *AnalysisService) Analyze(
	ctx context.Context,
	userID int64,
	text string,
	preference string,
) (*AnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	logger := observability.FromContext(ctx)

	estimated := s.estimator.Estimate(text)

	balance, err := s.balance.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	if estimated > balance {
		logger.Info("analysis rejected by admission control",
			zap.Int64("user_id", userID),
			zap.Int64("estimated_tokens", estimated),
			zap.Int64("balance", balance),
		)
		s.publish(ctx, "analysis.rejected", map[string]interface{}{
			"user_id":          userID,
			"estimated_tokens": estimated,
			"balance":          balance,
		})
		return nil, &InsufficientBalanceError{
			UserID:    userID,
			Required:  estimated,
			Available: balance,
		}
	}

	client, err := s.registry.GetModel(ctx, preference)
	if err != nil {
		return nil, err
	}

	ctx = observability.WithProvider(ctx, client.Type().String())
	ctx = observability.WithModel(ctx, client.Model())

	response, err := client.Generate(ctx, &GenerateRequest{
		Messages: []Message{{Role: "user", Content: text}},
	})
	if err != nil {
		var execErr *ProviderExecutionError
		if errors.As(err, &execErr) {
			return nil, err
		}
		return nil, &ProviderExecutionError{Provider: client.Type(), Err: err}
	}

	// Prefer the provider's reported usage over the estimate.
	tokensUsed := int64(response.Usage.TotalTokens)
	if tokensUsed <= 0 {
		tokensUsed = estimated
	}

	newBalance, err := s.balance.UseTokens(ctx, userID, tokensUsed)
	if err != nil {
		// Actual usage outran the balance after admission had passed
		// (for example a concurrent spend raced ahead). The produced
		// output is discarded.
		var insufficient *InsufficientBalanceError
		if errors.As(err, &insufficient) {
			logger.Warn("debit failed after generation, discarding output",
				zap.Int64("user_id", userID),
				zap.Int64("tokens_used", tokensUsed),
				zap.Int64("balance", insufficient.Available),
			)
			return nil, &PostHocInsufficientBalanceError{
				UserID:    userID,
				Required:  insufficient.Required,
				Available: insufficient.Available,
			}
		}
		return nil, err
	}

	logger.Info("analysis completed",
		zap.Int64("user_id", userID),
		zap.Int64("estimated_tokens", estimated),
		zap.Int64("tokens_used", tokensUsed),
		zap.Int64("new_balance", newBalance),
		zap.String("resolved_provider", client.Type().String()),
	)
	s.publish(ctx, "analysis.completed", map[string]interface{}{
		"user_id":           userID,
		"tokens_used":       tokensUsed,
		"new_balance":       newBalance,
		"resolved_provider": client.Type().String(),
	})

	return &AnalysisResult{
		OutputText:       response.Content,
		TokensUsed:       tokensUsed,
		NewBalance:       newBalance,
		ResolvedProvider: client.Type(),
	}, nil
}

func (s *AnalysisService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, eventType, data)
}
