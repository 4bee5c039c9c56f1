package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/howl/internal/domain"
)

func TestNewFallbackChain(t *testing.T) {
	t.Run("should accept a valid chain", func(t *testing.T) {
		chain, err := domain.NewFallbackChain(map[domain.ProviderType]domain.ProviderType{
			domain.ProviderGigaChat: domain.ProviderOpenAI,
			domain.ProviderOpenAI:   domain.ProviderOllama,
		})
		require.NoError(t, err)
		require.NotNil(t, chain)

		next, ok := chain.Next(domain.ProviderGigaChat)
		require.True(t, ok)
		require.Equal(t, domain.ProviderOpenAI, next)

		next, ok = chain.Next(domain.ProviderOpenAI)
		require.True(t, ok)
		require.Equal(t, domain.ProviderOllama, next)

		_, ok = chain.Next(domain.ProviderOllama)
		require.False(t, ok)
	})

	t.Run("should accept an empty chain", func(t *testing.T) {
		chain, err := domain.NewFallbackChain(nil)
		require.NoError(t, err)

		_, ok := chain.Next(domain.ProviderOpenAI)
		require.False(t, ok)
	})

	t.Run("should reject a self-fallback", func(t *testing.T) {
		_, err := domain.NewFallbackChain(map[domain.ProviderType]domain.ProviderType{
			domain.ProviderOpenAI: domain.ProviderOpenAI,
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "falls back to itself")
	})

	t.Run("should reject a two-node cycle", func(t *testing.T) {
		_, err := domain.NewFallbackChain(map[domain.ProviderType]domain.ProviderType{
			domain.ProviderOpenAI: domain.ProviderOllama,
			domain.ProviderOllama: domain.ProviderOpenAI,
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "cycle detected")
	})

	t.Run("should reject a longer cycle", func(t *testing.T) {
		_, err := domain.NewFallbackChain(map[domain.ProviderType]domain.ProviderType{
			domain.ProviderGigaChat:  domain.ProviderOpenAI,
			domain.ProviderOpenAI:    domain.ProviderAnthropic,
			domain.ProviderAnthropic: domain.ProviderGigaChat,
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "cycle detected")
	})

	t.Run("should reject an unknown provider type", func(t *testing.T) {
		_, err := domain.NewFallbackChain(map[domain.ProviderType]domain.ProviderType{
			domain.ProviderType("mistral"): domain.ProviderOpenAI,
		})
		require.Error(t, err)

		var unsupported *domain.UnsupportedProviderError
		require.ErrorAs(t, err, &unsupported)
		require.Equal(t, "mistral", unsupported.Name)
	})
}

func TestParseProviderType(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  domain.ProviderType
		expectErr bool
	}{
		{name: "gigachat", input: "gigachat", expected: domain.ProviderGigaChat},
		{name: "openai", input: "openai", expected: domain.ProviderOpenAI},
		{name: "ollama", input: "ollama", expected: domain.ProviderOllama},
		{name: "anthropic", input: "anthropic", expected: domain.ProviderAnthropic},
		{name: "mixed case", input: "OpenAI", expected: domain.ProviderOpenAI},
		{name: "surrounding whitespace", input: "  ollama \n", expected: domain.ProviderOllama},
		{name: "unknown provider", input: "mistral", expectErr: true},
		{name: "empty string", input: "", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := domain.ParseProviderType(tt.input)
			if tt.expectErr {
				require.Error(t, err)

				var unsupported *domain.UnsupportedProviderError
				require.ErrorAs(t, err, &unsupported)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, result)
		})
	}
}
