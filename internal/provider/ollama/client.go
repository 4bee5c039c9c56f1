// Package ollama provides a provider client for a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
)

// Client implements the domain.ProviderClient interface for Ollama.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a new Ollama client bound to model. An empty model
// falls back to the configured default model.
func NewClient(config Config, model string) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("Ollama base URL is required")
	}

	if model == "" {
		model = config.Model
	}

	return &Client{
		baseURL: config.BaseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}, nil
}

// Probe returns a liveness probe for the health monitor: reachability of
// the local tags endpoint. The context carries the monitor's timeout.
func Probe(config Config) func(context.Context) error {
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.BaseURL+"/api/tags", nil)
		if err != nil {
			return fmt.Errorf("failed to create probe request: %w", err)
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("Ollama endpoint unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("Ollama endpoint returned status %d", resp.StatusCode)
		}

		return nil
	}
}

// Ollama API request/response structures.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	PromptEvalCount int `json:"prompt_eval_count"`
	EvalCount       int `json:"eval_count"`
}

// Generate sends a completion request and returns the generated text with
// its token-usage count. Usage comes from Ollama's eval counters.
func (c *Client) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling Ollama API")

	model := req.Model
	if model == "" {
		model = c.model
	}

	messages := make([]chatMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}

	var options *chatOptions
	if req.Temperature > 0 || req.MaxTokens > 0 {
		options = &chatOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		}
	}

	body, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options:  options,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/api/chat",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Error("Ollama API call failed", observability.Error(err))
		return nil, &domain.ProviderExecutionError{Provider: domain.ProviderOllama, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &domain.ProviderExecutionError{
			Provider: domain.ProviderOllama,
			Err:      fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var chatResp chatResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&chatResp); decodeErr != nil {
		return nil, &domain.ProviderExecutionError{
			Provider: domain.ProviderOllama,
			Err:      fmt.Errorf("failed to decode response: %w", decodeErr),
		}
	}

	logger.Debug("Ollama API call succeeded",
		observability.Int("prompt_eval_count", chatResp.PromptEvalCount),
		observability.Int("eval_count", chatResp.EvalCount),
	)

	return &domain.GenerateResponse{
		Content:  chatResp.Message.Content,
		Model:    chatResp.Model,
		Provider: domain.ProviderOllama,
		Usage: domain.Usage{
			PromptTokens:     chatResp.PromptEvalCount,
			CompletionTokens: chatResp.EvalCount,
			TotalTokens:      chatResp.PromptEvalCount + chatResp.EvalCount,
		},
		FinishTime: time.Now(),
	}, nil
}

// Type returns the provider type.
func (c *Client) Type() domain.ProviderType {
	return domain.ProviderOllama
}

// Model returns the bound model name.
func (c *Client) Model() string {
	return c.model
}

var _ domain.ProviderClient = (*Client)(nil)
