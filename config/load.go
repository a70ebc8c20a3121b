package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/crmarques/declarm/faults"
	"github.com/crmarques/declarm/yamlutil"
)

// Load reads the configuration file and applies environment overrides. An
// explicit path wins over the DECLARM_CONFIG_FILE environment variable,
// which wins over the default location. A missing file at the default
// location yields an environment-only configuration; an explicitly named
// file must exist.
func Load(path string) (Config, error) {
	explicit := strings.TrimSpace(path) != "" || strings.TrimSpace(os.Getenv(ConfigFileEnvVar)) != ""

	resolvedPath, err := resolveConfigPath(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	data, err := os.ReadFile(resolvedPath)
	switch {
	case err == nil:
		if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
			return Config{}, faults.NewTypedError(
				faults.ValidationError,
				"config file "+resolvedPath+" is not valid",
				err,
			)
		}
	case os.IsNotExist(err) && !explicit:
		// Environment-only operation is fine.
	default:
		return Config{}, faults.NewTypedError(faults.ValidationError, "failed to read config file "+resolvedPath, err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func (c Cloud) Validate() error {
	if strings.TrimSpace(c.SubscriptionID) == "" {
		return faults.NewTypedError(faults.ValidationError, "cloud.subscription-id is required", nil)
	}
	if c.Auth == nil {
		return faults.NewTypedError(faults.ValidationError, "cloud.auth is required", nil)
	}

	setCount := 0
	if c.Auth.ClientCredentials != nil {
		setCount++
	}
	if c.Auth.BearerToken != nil {
		setCount++
	}
	if setCount != 1 {
		return faults.NewTypedError(faults.ValidationError, "cloud.auth must define exactly one auth mode", nil)
	}

	if creds := c.Auth.ClientCredentials; creds != nil {
		if strings.TrimSpace(creds.TenantID) == "" ||
			strings.TrimSpace(creds.ClientID) == "" ||
			strings.TrimSpace(creds.ClientSecret) == "" {
			return faults.NewTypedError(
				faults.ValidationError,
				"cloud.auth.client-credentials requires tenant-id, client-id, client-secret",
				nil,
			)
		}
	}
	if bearer := c.Auth.BearerToken; bearer != nil && strings.TrimSpace(bearer.Token) == "" {
		return faults.NewTypedError(faults.ValidationError, "cloud.auth.bearer-token.token is required", nil)
	}

	return nil
}

func resolveConfigPath(path string) (string, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = strings.TrimSpace(os.Getenv(ConfigFileEnvVar))
	}
	if resolved == "" {
		resolved = DefaultConfigPath
	}

	if resolved == "~" || strings.HasPrefix(resolved, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", faults.NewTypedError(faults.ValidationError, "failed to resolve home directory", err)
		}
		resolved = filepath.Join(home, strings.TrimPrefix(resolved, "~"))
	}

	return resolved, nil
}

func applyEnvOverrides(cfg *Config) {
	if value := strings.TrimSpace(os.Getenv(SubscriptionIDEnvVar)); value != "" {
		cfg.Cloud.SubscriptionID = value
	}

	tenant := strings.TrimSpace(os.Getenv(TenantEnvVar))
	clientID := strings.TrimSpace(os.Getenv(ClientIDEnvVar))
	secret := strings.TrimSpace(os.Getenv(ClientSecretEnvVar))
	if tenant == "" && clientID == "" && secret == "" {
		return
	}

	if cfg.Cloud.Auth == nil {
		cfg.Cloud.Auth = &Auth{}
	}
	if cfg.Cloud.Auth.ClientCredentials == nil {
		if cfg.Cloud.Auth.BearerToken != nil {
			return
		}
		cfg.Cloud.Auth.ClientCredentials = &ClientCredentials{}
	}

	creds := cfg.Cloud.Auth.ClientCredentials
	if tenant != "" {
		creds.TenantID = tenant
	}
	if clientID != "" {
		creds.ClientID = clientID
	}
	if secret != "" {
		creds.ClientSecret = secret
	}
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Cloud.BaseURL) == "" {
		cfg.Cloud.BaseURL = DefaultBaseURL
	}
}
