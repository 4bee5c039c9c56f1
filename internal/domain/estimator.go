package domain

import (
	"math"
	"strings"
)

// DefaultTokenMultiplier is the default word-to-token multiplier.
// Deliberately generous: roughly double the typical tokens-per-word rate,
// so the estimate stays above what providers actually bill.
const DefaultTokenMultiplier = 2.0

// WordCountEstimator estimates token cost as whitespace-delimited word
// count times a fixed multiplier, rounded up. It is a cheap, deterministic
// proxy, not a tokenizer.
type WordCountEstimator struct {
	multiplier float64
}

// NewWordCountEstimator creates an estimator with the given multiplier.
// Non-positive multipliers fall back to the default.
func NewWordCountEstimator(multiplier float64) *WordCountEstimator {
	if multiplier <= 0 {
		multiplier = DefaultTokenMultiplier
	}
	return &WordCountEstimator{multiplier: multiplier}
}

// Estimate returns the estimated token cost of text. Non-blank text
// always costs at least one token.
func (e *WordCountEstimator) Estimate(text string) int64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}

	estimate := int64(math.Ceil(float64(words) * e.multiplier))
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}
