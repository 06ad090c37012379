package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProviderConfig points at an OpenAI-compatible completion endpoint.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// ModelsConfig names the model per routing tier. Empty tiers fall back to
// the default model.
type ModelsConfig struct {
	Small   string `yaml:"small,omitempty"`
	Default string `yaml:"default,omitempty"`
	Strong  string `yaml:"strong,omitempty"`
}

// Config is the user-level configuration file.
type Config struct {
	DataDir               string         `yaml:"data_dir,omitempty"`
	Provider              ProviderConfig `yaml:"provider"`
	Models                ModelsConfig   `yaml:"models"`
	RejectAbandonedWrites bool           `yaml:"reject_abandoned_writes,omitempty"`
}

// DefaultDataDir returns the default location for the database and cache.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".specsmith"
	}
	return filepath.Join(home, ".specsmith")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// LoadConfig reads the YAML config at path. A missing file is not an error:
// defaults apply, with the API key taken from SPECSMITH_API_KEY. An explicit
// path that cannot be parsed is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.applyDefaults()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = os.Getenv("SPECSMITH_API_KEY")
	}
	if c.Models.Default == "" {
		c.Models.Default = "gpt-4o-mini"
	}
}

// DatabasePath returns the SQLite file location under the data dir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "specsmith.db")
}

// CacheDir returns the client-cache location under the data dir.
func (c *Config) CacheDir() string {
	return filepath.Join(c.DataDir, "cache")
}
