package config

const (
	ConfigFileEnvVar  = "DECLARM_CONFIG_FILE"
	DefaultConfigPath = "~/.declarm/config.yaml"

	DefaultBaseURL      = "https://management.azure.com"
	DefaultAuthorityURL = "https://login.microsoftonline.com"

	SubscriptionIDEnvVar = "AZURE_SUBSCRIPTION_ID"
	TenantEnvVar         = "AZURE_TENANT"
	ClientIDEnvVar       = "AZURE_CLIENT_ID"
	ClientSecretEnvVar   = "AZURE_SECRET"
)

type Config struct {
	Cloud Cloud `yaml:"cloud"`
}

type Cloud struct {
	SubscriptionID string `yaml:"subscription-id"`
	BaseURL        string `yaml:"base-url,omitempty"`
	Auth           *Auth  `yaml:"auth,omitempty"`
	TimeoutSeconds int    `yaml:"timeout-seconds,omitempty"`
}

type Auth struct {
	ClientCredentials *ClientCredentials `yaml:"client-credentials,omitempty"`
	BearerToken       *BearerTokenAuth   `yaml:"bearer-token,omitempty"`
}

type ClientCredentials struct {
	TenantID     string `yaml:"tenant-id"`
	ClientID     string `yaml:"client-id"`
	ClientSecret string `yaml:"client-secret,omitempty"`
	// TokenURL overrides the token endpoint derived from the authority and
	// tenant; Resource overrides the audience, which defaults to the cloud
	// base URL.
	TokenURL string `yaml:"token-url,omitempty"`
	Resource string `yaml:"resource,omitempty"`
}

type BearerTokenAuth struct {
	Token string `yaml:"token"`
}
