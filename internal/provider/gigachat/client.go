// Package gigachat provides a provider client for the Sber GigaChat API.
// The API is OpenAI-shaped but sits behind an OAuth token exchange with
// short-lived bearer tokens, which the client refreshes transparently.
package gigachat

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
)

// Client implements the domain.ProviderClient interface for GigaChat.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	tokens     *tokenSource
}

// NewClient creates a new GigaChat client bound to model. An empty model
// falls back to the configured default model.
func NewClient(config Config, model string) (*Client, error) {
	if config.AuthKey == "" {
		return nil, errors.New("GigaChat auth key is required")
	}

	if model == "" {
		model = config.Model
	}

	transport := http.DefaultTransport
	if config.InsecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // opt-in via config
		}
	}

	httpClient := &http.Client{
		Timeout:   time.Duration(config.Timeout) * time.Second,
		Transport: transport,
	}

	return &Client{
		baseURL:    config.BaseURL,
		model:      model,
		httpClient: httpClient,
		tokens:     newTokenSource(config, httpClient),
	}, nil
}

// Probe returns a liveness probe for the health monitor. GigaChat is a
// remote provider, so liveness reduces to credential presence.
func Probe(config Config) func(context.Context) error {
	return func(_ context.Context) error {
		if config.AuthKey == "" {
			return errors.New("GigaChat auth key is not configured")
		}
		return nil
	}
}

// GigaChat API request/response structures.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate sends a completion request and returns the generated text with
// its token-usage count.
func (c *Client) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling GigaChat API")

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, &domain.ProviderExecutionError{Provider: domain.ProviderGigaChat, Err: err}
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	messages := make([]chatMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Error("GigaChat API call failed", observability.Error(err))
		return nil, &domain.ProviderExecutionError{Provider: domain.ProviderGigaChat, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &domain.ProviderExecutionError{
			Provider: domain.ProviderGigaChat,
			Err:      fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var chatResp chatResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&chatResp); decodeErr != nil {
		return nil, &domain.ProviderExecutionError{
			Provider: domain.ProviderGigaChat,
			Err:      fmt.Errorf("failed to decode response: %w", decodeErr),
		}
	}

	content := ""
	if len(chatResp.Choices) > 0 {
		content = chatResp.Choices[0].Message.Content
	}

	logger.Debug("GigaChat API call succeeded",
		observability.Int("prompt_tokens", chatResp.Usage.PromptTokens),
		observability.Int("completion_tokens", chatResp.Usage.CompletionTokens),
	)

	return &domain.GenerateResponse{
		Content:  content,
		Model:    chatResp.Model,
		Provider: domain.ProviderGigaChat,
		Usage: domain.Usage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		},
		FinishTime: time.Now(),
	}, nil
}

// Type returns the provider type.
func (c *Client) Type() domain.ProviderType {
	return domain.ProviderGigaChat
}

// Model returns the bound model name.
func (c *Client) Model() string {
	return c.model
}

var _ domain.ProviderClient = (*Client)(nil)
