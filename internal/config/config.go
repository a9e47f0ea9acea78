// Package config loads the MusicVault application configuration.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Fallback FallbackConfig `toml:"fallback"`
	Auth     AuthConfig     `toml:"auth"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `toml:"url"`
}

// StorageConfig contains object storage settings for the songs bucket.
type StorageConfig struct {
	Endpoint      string `toml:"endpoint"`
	AccessKey     string `toml:"access_key"`
	SecretKey     string `toml:"secret_key"`
	Bucket        string `toml:"bucket"`
	UseSSL        bool   `toml:"use_ssl"`
	PublicBaseURL string `toml:"public_base_url"`
}

// FallbackConfig contains settings for the local fallback store.
type FallbackConfig struct {
	Path string `toml:"path"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	RequireEmailConfirmation bool   `toml:"require_email_confirmation"`
	SessionTTLHours          int    `toml:"session_ttl_hours"`
	SessionStore             string `toml:"session_store"` // "memory" or "database"
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Load reads and parses a TOML configuration file from the specified path.
// Secrets may be overridden through environment variables.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	config.applyEnv()
	return config, nil
}

// Default returns a Config populated from the embedded example config.
func Default() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("parsing embedded default config: %v", err))
	}
	return &config
}

// WriteExample writes the embedded example config to the given path.
// It refuses to overwrite an existing file.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// applyEnv overrides secret-bearing fields from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("MUSICVAULT_DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("MUSICVAULT_STORAGE_ACCESS_KEY"); v != "" {
		c.Storage.AccessKey = v
	}
	if v := os.Getenv("MUSICVAULT_STORAGE_SECRET_KEY"); v != "" {
		c.Storage.SecretKey = v
	}
}
