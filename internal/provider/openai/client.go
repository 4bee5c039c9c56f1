// Package openai provides a provider client for the OpenAI API using the
// official SDK. It implements the domain.ProviderClient interface and
// handles conversion between domain types and SDK types.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
)

// Client implements the domain.ProviderClient interface for OpenAI.
type Client struct {
	client openai.Client
	model  string
}

// NewClient creates a new OpenAI client bound to model. An empty model
// falls back to the configured default model.
func NewClient(config Config, model string) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	if model == "" {
		model = config.Model
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	if config.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(config.MaxRetries))
	}

	return &Client{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Probe returns a liveness probe for the health monitor. OpenAI is a
// remote provider, so liveness reduces to credential presence.
func Probe(config Config) func(context.Context) error {
	return func(_ context.Context) error {
		if config.APIKey == "" {
			return errors.New("OpenAI API key is not configured")
		}
		return nil
	}
}

// Generate sends a completion request and returns the generated text with
// its token-usage count.
func (c *Client) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling OpenAI API")

	resp, err := c.client.Chat.Completions.New(ctx, c.toSDKParams(req))
	if err != nil {
		logger.Error("OpenAI API call failed", observability.Error(err))
		return nil, &domain.ProviderExecutionError{Provider: domain.ProviderOpenAI, Err: err}
	}

	logger.Debug("OpenAI API call succeeded",
		observability.Int("prompt_tokens", int(resp.Usage.PromptTokens)),
		observability.Int("completion_tokens", int(resp.Usage.CompletionTokens)),
	)

	return c.toDomainResponse(resp), nil
}

// Type returns the provider type.
func (c *Client) Type() domain.ProviderType {
	return domain.ProviderOpenAI
}

// Model returns the bound model name.
func (c *Client) Model() string {
	return c.model
}

// toSDKParams converts a domain request to SDK ChatCompletionNewParams.
func (c *Client) toSDKParams(req *domain.GenerateRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, len(req.Messages))
	for i, msg := range req.Messages {
		switch msg.Role {
		case "user":
			messages[i] = openai.UserMessage(msg.Content)
		case "assistant":
			messages[i] = openai.AssistantMessage(msg.Content)
		case "system":
			messages[i] = openai.SystemMessage(msg.Content)
		default:
			// Fallback to user message if role is unknown
			messages[i] = openai.UserMessage(msg.Content)
		}
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}

	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	return params
}

// toDomainResponse converts an SDK response to a domain response.
func (c *Client) toDomainResponse(resp *openai.ChatCompletion) *domain.GenerateResponse {
	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &domain.GenerateResponse{
		Content:  content,
		Model:    string(resp.Model),
		Provider: domain.ProviderOpenAI,
		Usage: domain.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		FinishTime: time.Now(),
	}
}

var _ domain.ProviderClient = (*Client)(nil)

// String implements fmt.Stringer for log output.
func (c *Client) String() string {
	return fmt.Sprintf("openai(%s)", c.model)
}
