package domain

import (
	"errors"
	"fmt"
)

// Caller-input validation failures. These fail fast with no side effects.
var (
	// ErrEmptyInput indicates an empty or whitespace-only analysis text.
	ErrEmptyInput = errors.New("input text cannot be empty")

	// ErrInvalidAmount indicates a non-positive token amount.
	ErrInvalidAmount = errors.New("token amount must be positive")

	// ErrNoDefaultModel indicates a registry lookup with no alias and no default set.
	ErrNoDefaultModel = errors.New("no default model configured")
)

// UnsupportedProviderError indicates an unknown provider identifier.
type UnsupportedProviderError struct {
	Name string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider: %q", e.Name)
}

// ProviderUnavailableError indicates that no live provider was reachable
// after exhausting the fallback chain starting from Requested.
type ProviderUnavailableError struct {
	Requested ProviderType
	Attempted []ProviderType
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("no available provider for %s (attempted %v)", e.Requested, e.Attempted)
}

// ProviderExecutionError indicates that a live provider accepted a request
// but failed mid-call. The underlying cause is preserved for logging.
type ProviderExecutionError struct {
	Provider ProviderType
	Err      error
}

func (e *ProviderExecutionError) Error() string {
	return fmt.Sprintf("provider %s execution failed: %v", e.Provider, e.Err)
}

func (e *ProviderExecutionError) Unwrap() error {
	return e.Err
}

// InsufficientBalanceError indicates a debit or admission check that the
// user's token balance cannot cover. The ledger is left unchanged.
type InsufficientBalanceError struct {
	UserID    int64
	Required  int64
	Available int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for user %d: required %d, available %d",
		e.UserID, e.Required, e.Available)
}

// PostHocInsufficientBalanceError indicates that actual usage reported by a
// provider exceeded the balance remaining at debit time, after admission
// control had already passed. The produced output is discarded.
type PostHocInsufficientBalanceError struct {
	UserID    int64
	Required  int64
	Available int64
}

func (e *PostHocInsufficientBalanceError) Error() string {
	return fmt.Sprintf("balance exhausted after generation for user %d: required %d, available %d",
		e.UserID, e.Required, e.Available)
}
