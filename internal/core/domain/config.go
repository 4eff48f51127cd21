package domain

import "time"

// AuthMethod selects how access tokens are acquired.
type AuthMethod string

const (
	// AuthMethodToken uses a pre-acquired bearer token.
	AuthMethodToken AuthMethod = "token"
	// AuthMethodClientCredentials uses an app registration secret.
	AuthMethodClientCredentials AuthMethod = "client_credentials"
	// AuthMethodRefreshToken redeems a refresh token for the requested resource.
	AuthMethodRefreshToken AuthMethod = "refresh_token"
	// AuthMethodAzure uses the Azure default credential chain (environment, managed identity, Azure CLI).
	AuthMethodAzure AuthMethod = "azure"
)

// DefaultGraphBaseURL is the Microsoft Graph endpoint used when none is configured.
const DefaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

// Config is the CLI configuration.
type Config struct {
	Auth  AuthConfig  `toml:"auth"`
	SPO   SPOConfig   `toml:"spo"`
	Graph GraphConfig `toml:"graph"`
	HTTP  HTTPConfig  `toml:"http"`
}

// AuthConfig holds credential settings.
type AuthConfig struct {
	Method       AuthMethod `toml:"method"`
	TenantID     string     `toml:"tenant_id"`
	ClientID     string     `toml:"client_id"`
	ClientSecret string     `toml:"client_secret"`
	RefreshToken string     `toml:"refresh_token"`
	AccessToken  string     `toml:"access_token"`
}

// SPOConfig holds SharePoint Online settings.
type SPOConfig struct {
	// AdminURL is the tenant admin site. Derived from the target site when empty.
	AdminURL string `toml:"admin_url"`
}

// GraphConfig holds Microsoft Graph settings.
type GraphConfig struct {
	BaseURL string `toml:"base_url"`
}

// HTTPConfig holds HTTP client settings.
type HTTPConfig struct {
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// Timeout returns the HTTP timeout, defaulting to 30 seconds.
func (c HTTPConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Redacted returns a copy of c with secrets masked.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Auth.ClientSecret = mask(c.Auth.ClientSecret)
	c.Auth.RefreshToken = mask(c.Auth.RefreshToken)
	c.Auth.AccessToken = mask(c.Auth.AccessToken)
	return c
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Auth:  AuthConfig{Method: AuthMethodToken, TenantID: "common"},
		Graph: GraphConfig{BaseURL: DefaultGraphBaseURL},
		HTTP:  HTTPConfig{TimeoutSeconds: 30},
	}
}
