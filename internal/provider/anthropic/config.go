package anthropic

// Config contains Anthropic provider configuration. MaxTokens is the
// default output cap; the Messages API requires one on every request.
type Config struct {
	APIKey    string `env:"ANTHROPIC_API_KEY"`
	BaseURL   string `env:"ANTHROPIC_BASE_URL"   envDefault:"https://api.anthropic.com"`
	Version   string `env:"ANTHROPIC_VERSION"    envDefault:"2023-06-01"`
	Model     string `env:"ANTHROPIC_MODEL"      envDefault:"claude-3-5-haiku-latest"`
	MaxTokens int    `env:"ANTHROPIC_MAX_TOKENS" envDefault:"1024"`
	Timeout   int    `env:"ANTHROPIC_TIMEOUT"    envDefault:"60"`
}
