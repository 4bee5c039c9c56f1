// Package anthropic provides a provider client for the Anthropic Messages
// API. System messages are lifted into the API's top-level system field.
package anthropic

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

// Client implements the domain.ProviderClient interface for Anthropic.
type Client struct {
	apiKey           string
	baseURL          string
	version          string
	model            string
	defaultMaxTokens int
	httpClient       *http.Client
}

// NewClient creates a new Anthropic client bound to model. An empty model
// falls back to the configured default model.
func NewClient(config Config, model string) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}

	if model == "" {
		model = config.Model
	}

	return &Client{
		apiKey:           config.APIKey,
		baseURL:          config.BaseURL,
		version:          config.Version,
		model:            model,
		defaultMaxTokens: config.MaxTokens,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}, nil
}

// Probe returns a liveness probe for the health monitor. Anthropic is a
// remote provider, so liveness reduces to credential presence.
func Probe(config Config) func(context.Context) error {
	return func(_ context.Context) error {
		if config.APIKey == "" {
			return errors.New("Anthropic API key is not configured")
		}
		return nil
	}
}

// Anthropic Messages API request/response structures.
type messagesRequest struct {
	Model       string        `json:"model"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Generate sends a completion request and returns the generated text with
// its token-usage count.
func (c *Client) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling Anthropic API")

	model := req.Model
	if model == "" {
		model = c.model
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.defaultMaxTokens
	}

	system := ""
	messages := make([]chatMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Role == "system" {
			system = msg.Content
			continue
		}
		messages = append(messages, chatMessage{Role: msg.Role, Content: msg.Content})
	}

	body, err := json.Marshal(messagesRequest{
		Model:       model,
		System:      system,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/v1/messages",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", c.version)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Error("Anthropic API call failed", observability.Error(err))
		return nil, &domain.ProviderExecutionError{Provider: domain.ProviderAnthropic, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &domain.ProviderExecutionError{
			Provider: domain.ProviderAnthropic,
			Err:      fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var msgResp messagesResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&msgResp); decodeErr != nil {
		return nil, &domain.ProviderExecutionError{
			Provider: domain.ProviderAnthropic,
			Err:      fmt.Errorf("failed to decode response: %w", decodeErr),
		}
	}

	content := ""
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	logger.Debug("Anthropic API call succeeded",
		observability.Int("input_tokens", msgResp.Usage.InputTokens),
		observability.Int("output_tokens", msgResp.Usage.OutputTokens),
	)

	return &domain.GenerateResponse{
		Content:  content,
		Model:    msgResp.Model,
		Provider: domain.ProviderAnthropic,
		Usage: domain.Usage{
			PromptTokens:     msgResp.Usage.InputTokens,
			CompletionTokens: msgResp.Usage.OutputTokens,
			TotalTokens:      msgResp.Usage.InputTokens + msgResp.Usage.OutputTokens,
		},
		FinishTime: time.Now(),
	}, nil
}

// Type returns the provider type.
func (c *Client) Type() domain.ProviderType {
	return domain.ProviderAnthropic
}

// Model returns the bound model name.
func (c *Client) Model() string {
	return c.model
}

var _ domain.ProviderClient = (*Client)(nil)
