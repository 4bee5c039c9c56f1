package domain

import "fmt"

// FallbackChain maps each provider type to its fallback successor.
// Types absent from the map have no fallback. A valid chain is a simple
// forest: following successors from any type terminates in finitely many
// hops.
type FallbackChain map[ProviderType]ProviderType

// NewFallbackChain validates the successor mapping and returns it as a
// chain. Unknown provider types and cycles are rejected.
func NewFallbackChain(successors map[ProviderType]ProviderType) (FallbackChain, error) {
	for from, to := range successors {
		if !from.IsValid() {
			return nil, &UnsupportedProviderError{Name: from.String()}
		}
		if !to.IsValid() {
			return nil, &UnsupportedProviderError{Name: to.String()}
		}
		if from == to {
			return nil, fmt.Errorf("fallback chain: %s falls back to itself", from)
		}
	}

	chain := FallbackChain(successors)
	for from := range successors {
		if err := chain.checkTermination(from); err != nil {
			return nil, err
		}
	}

	return chain, nil
}

// Next returns the fallback successor of p. ok is false when p has no
// fallback and the chain terminates there.
func (c FallbackChain) Next(p ProviderType) (ProviderType, bool) {
	next, ok := c[p]
	return next, ok
}

// checkTermination walks the chain from start and fails on a cycle.
// The walk is bounded by the map size, so a misconfigured chain can never
// loop forever.
func (c FallbackChain) checkTermination(start ProviderType) error {
	current := start
	for i := 0; i < len(c)+1; i++ {
		next, ok := c[current]
		if !ok {
			return nil
		}
		current = next
	}
	return fmt.Errorf("fallback chain: cycle detected starting from %s", start)
}
