package file

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/brokerdesk/connect/internal/core/domain"
)

// Config is the process configuration, loaded from a TOML file with
// environment variable overrides applied on top.
type Config struct {
	Server    ServerConfig              `toml:"server"`
	Storage   StorageConfig             `toml:"storage"`
	Providers map[string]ProviderConfig `toml:"providers"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// Host to bind. Defaults to 127.0.0.1.
	Host string `toml:"host"`
	// Port to listen on. Defaults to 8080.
	Port int `toml:"port"`
	// JWTSecret signs and verifies the API bearer tokens. Required to
	// serve the HTTP API.
	JWTSecret string `toml:"jwt_secret"`
	// Verbose enables debug logging.
	Verbose bool `toml:"verbose"`
}

// StorageConfig selects the token/connection store backend.
type StorageConfig struct {
	// Backend is "memory" or "sqlite". Defaults to memory.
	Backend string `toml:"backend"`
	// DataDir holds the SQLite database when the sqlite backend is used.
	DataDir string `toml:"data_dir"`
}

// ProviderConfig is one provider's OAuth application credential plus its
// provider-specific options.
type ProviderConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`

	// Tenant applies to outlook only.
	Tenant string `toml:"tenant"`
	// LoginURL and APIBase apply to salesforce only (sandbox/instance).
	LoginURL string `toml:"login_url"`
	APIBase  string `toml:"api_base"`
}

// Load reads the configuration file at path. A missing file is not an
// error: everything can be supplied through the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
		Providers: make(map[string]ProviderConfig),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Fine; environment-only configuration.
		default:
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values from CONNECT_* environment variables:
// CONNECT_JWT_SECRET, CONNECT_STORAGE_BACKEND, CONNECT_DATA_DIR, and
// CONNECT_<PROVIDER>_CLIENT_ID / _CLIENT_SECRET / _REDIRECT_URI / _SCOPES
// (scopes space-separated).
func (c *Config) applyEnv() {
	if v := os.Getenv("CONNECT_JWT_SECRET"); v != "" {
		c.Server.JWTSecret = v
	}
	if v := os.Getenv("CONNECT_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("CONNECT_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}

	for _, provider := range domain.Providers {
		prefix := "CONNECT_" + strings.ToUpper(string(provider)) + "_"
		pc := c.Providers[string(provider)]
		if v := os.Getenv(prefix + "CLIENT_ID"); v != "" {
			pc.ClientID = v
		}
		if v := os.Getenv(prefix + "CLIENT_SECRET"); v != "" {
			pc.ClientSecret = v
		}
		if v := os.Getenv(prefix + "REDIRECT_URI"); v != "" {
			pc.RedirectURI = v
		}
		if v := os.Getenv(prefix + "SCOPES"); v != "" {
			pc.Scopes = strings.Fields(v)
		}
		if pc.ClientID != "" || pc.ClientSecret != "" || pc.RedirectURI != "" || len(pc.Scopes) > 0 {
			c.Providers[string(provider)] = pc
		}
	}
}

// validate rejects configurations that cannot work at all. Individual
// providers are allowed to be absent; they just report as unconfigured.
func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown storage backend %q (want memory or sqlite)", c.Storage.Backend)
	}

	for name := range c.Providers {
		if _, err := domain.ParseProviderID(name); err != nil {
			return fmt.Errorf("unknown provider %q in [providers]", name)
		}
	}
	return nil
}

// Credentials converts the provider sections into domain credentials.
func (c *Config) Credentials() map[domain.ProviderID]domain.ProviderCredential {
	creds := make(map[domain.ProviderID]domain.ProviderCredential, len(c.Providers))
	for name, pc := range c.Providers {
		provider, err := domain.ParseProviderID(name)
		if err != nil {
			continue
		}
		creds[provider] = domain.ProviderCredential{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURI:  pc.RedirectURI,
			Scopes:       pc.Scopes,
		}
	}
	return creds
}

// Provider returns the raw provider section, zero when absent.
func (c *Config) Provider(provider domain.ProviderID) ProviderConfig {
	return c.Providers[string(provider)]
}

// Addr returns the server bind address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
