package domain

import "time"

// GenerateRequest represents a unified provider request.
type GenerateRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// GenerateResponse represents a unified provider response.
type GenerateResponse struct {
	Content    string       `json:"content"`
	Model      string       `json:"model"`
	Provider   ProviderType `json:"provider"`
	Usage      Usage        `json:"usage"`
	FinishTime time.Time    `json:"finish_time"`
}

// Usage tracks token consumption as reported by a provider.
// TotalTokens is zero when the provider reports no usage at all.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// AnalysisResult is the record returned to collaborators for one
// successful analysis request.
type AnalysisResult struct {
	OutputText       string       `json:"output_text"`
	TokensUsed       int64        `json:"tokens_used"`
	NewBalance       int64        `json:"new_balance"`
	ResolvedProvider ProviderType `json:"resolved_provider"`
}

// HealthRecord is the cached liveness state for one provider type.
// Owned exclusively by the health monitor.
type HealthRecord struct {
	ProviderType  ProviderType
	LastCheckedAt time.Time
	Available     bool
}
