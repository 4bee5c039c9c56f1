package ollama

// Config contains Ollama provider configuration. Ollama runs as a local
// inference server, so there are no credentials; liveness is endpoint
// reachability.
type Config struct {
	BaseURL string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	Model   string `env:"OLLAMA_MODEL"    envDefault:"llama3"`
	Timeout int    `env:"OLLAMA_TIMEOUT"  envDefault:"120"`
}
