package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/howl/internal/domain"
)

func TestWordCountEstimator_Estimate(t *testing.T) {
	tests := []struct {
		name       string
		multiplier float64
		text       string
		expected   int64
	}{
		{
			name:       "empty text costs nothing",
			multiplier: 2.0,
			text:       "",
			expected:   0,
		},
		{
			name:       "whitespace-only text costs nothing",
			multiplier: 2.0,
			text:       "   \t\n  ",
			expected:   0,
		},
		{
			name:       "single word",
			multiplier: 2.0,
			text:       "hello",
			expected:   2,
		},
		{
			name:       "five words with default multiplier",
			multiplier: 2.0,
			text:       "the quick brown fox jumps",
			expected:   10,
		},
		{
			name:       "fractional result rounds up",
			multiplier: 1.5,
			text:       "one two three",
			expected:   5, // ceil(3 * 1.5) = 5
		},
		{
			name:       "tiny multiplier still charges at least one token",
			multiplier: 0.1,
			text:       "word",
			expected:   1,
		},
		{
			name:       "collapses repeated whitespace",
			multiplier: 1.0,
			text:       "a   b \t c\nd",
			expected:   4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			estimator := domain.NewWordCountEstimator(tt.multiplier)
			require.Equal(t, tt.expected, estimator.Estimate(tt.text))
		})
	}
}

func TestNewWordCountEstimator_InvalidMultiplier(t *testing.T) {
	// Non-positive multipliers fall back to the default.
	estimator := domain.NewWordCountEstimator(0)
	require.Equal(t, int64(domain.DefaultTokenMultiplier), estimator.Estimate("word"))
}
