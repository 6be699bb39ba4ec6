package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Zoho   ZohoConfig   `toml:"zoho"`
	Server ServerConfig `toml:"server"`
	Sync   SyncConfig   `toml:"sync"`
}

// ZohoConfig contains Zoho Projects API credentials and endpoints.
type ZohoConfig struct {
	ClientID     string  `toml:"client_id"`
	ClientSecret string  `toml:"client_secret"`
	RefreshToken string  `toml:"refresh_token"`
	RedirectURI  string  `toml:"redirect_uri"`
	TokenURL     string  `toml:"token_url"`
	Portal       string  `toml:"portal"`
	BaseURL      string  `toml:"base_url"`
	RateLimit    float64 `toml:"rate_limit"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// SyncConfig contains sync run settings.
type SyncConfig struct {
	CallTimeoutSeconds int `toml:"call_timeout_seconds"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Credential fields may be overridden by the environment afterwards via [Config.ApplyEnv].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: config file already exists at %s", ErrInvalidConfig, path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides credential and endpoint fields from the environment.
//
// A .env file in the working directory is loaded first when present.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	setEnvString(&c.Zoho.ClientID, "ZOHO_CLIENT_ID")
	setEnvString(&c.Zoho.ClientSecret, "ZOHO_CLIENT_SECRET")
	setEnvString(&c.Zoho.RefreshToken, "ZOHO_REFRESH_TOKEN")
	setEnvString(&c.Zoho.RedirectURI, "ZOHO_REDIRECT_URI")
	setEnvString(&c.Zoho.TokenURL, "ZOHO_TOKEN_URL")
	setEnvString(&c.Zoho.Portal, "ZOHO_PORTAL")
	setEnvString(&c.Zoho.BaseURL, "ZOHO_BASE_URL")

	if v, ok := os.LookupEnv("SCHEDSYNC_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks that the credential fields required for a sync run are present.
func (c *Config) Validate() error {
	switch {
	case c.Zoho.ClientID == "":
		return fmt.Errorf("%w: zoho client_id", ErrMissingCredentials)
	case c.Zoho.ClientSecret == "":
		return fmt.Errorf("%w: zoho client_secret", ErrMissingCredentials)
	case c.Zoho.RefreshToken == "":
		return fmt.Errorf("%w: zoho refresh_token", ErrMissingCredentials)
	case c.Zoho.Portal == "":
		return fmt.Errorf("%w: zoho portal", ErrInvalidConfig)
	}
	return nil
}

func setEnvString(target *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*target = v
	}
}
