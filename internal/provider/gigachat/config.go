package gigachat

// Config contains GigaChat provider configuration.
// AuthKey is the base64-encoded client credentials pair used for the
// OAuth token exchange. InsecureSkipVerify disables TLS verification for
// deployments behind the Sber ministry certificate chain.
type Config struct {
	AuthKey            string `env:"GIGACHAT_AUTH_KEY"`
	BaseURL            string `env:"GIGACHAT_BASE_URL" envDefault:"https://gigachat.devices.sberbank.ru/api/v1"`
	AuthURL            string `env:"GIGACHAT_AUTH_URL" envDefault:"https://ngw.devices.sberbank.ru:9443/api/v2/oauth"`
	Scope              string `env:"GIGACHAT_SCOPE"    envDefault:"GIGACHAT_API_PERS"`
	Model              string `env:"GIGACHAT_MODEL"    envDefault:"GigaChat"`
	Timeout            int    `env:"GIGACHAT_TIMEOUT"  envDefault:"60"`
	InsecureSkipVerify bool   `env:"GIGACHAT_INSECURE_SKIP_VERIFY" envDefault:"false"`
}
