package domain

import "strings"

// ProviderType identifies an LLM provider backend. The set is closed:
// every type has exactly one client implementation and one entry in the
// factory dispatch table.
type ProviderType string

const (
	ProviderGigaChat  ProviderType = "gigachat"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
	ProviderAnthropic ProviderType = "anthropic"
)

// AllProviderTypes lists every known provider type.
func AllProviderTypes() []ProviderType {
	return []ProviderType{ProviderGigaChat, ProviderOpenAI, ProviderOllama, ProviderAnthropic}
}

// String returns the provider identifier.
func (p ProviderType) String() string {
	return string(p)
}

// IsValid reports whether the provider type is a member of the closed set.
func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderGigaChat, ProviderOpenAI, ProviderOllama, ProviderAnthropic:
		return true
	default:
		return false
	}
}

// ParseProviderType resolves a loosely-typed provider identifier.
// Input is case-insensitive and may carry surrounding whitespace.
func ParseProviderType(name string) (ProviderType, error) {
	p := ProviderType(strings.ToLower(strings.TrimSpace(name)))
	if !p.IsValid() {
		return "", &UnsupportedProviderError{Name: name}
	}
	return p, nil
}
