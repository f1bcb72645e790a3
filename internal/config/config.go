// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	GithubToken     string        `mapstructure:"GITHUB_TOKEN"`
	GithubOwner     string        `mapstructure:"GITHUB_OWNER"`
	GithubRepo      string        `mapstructure:"GITHUB_REPO"`
	WebhookSecret   string        `mapstructure:"WEBHOOK_SECRET"`
	Port            int           `mapstructure:"PORT"`
	UpstreamTimeout time.Duration `mapstructure:"UPSTREAM_TIMEOUT"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("PORT", 8000)
	viper.SetDefault("UPSTREAM_TIMEOUT", "30s")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.GithubToken == "" {
		return nil, errors.New("GITHUB_TOKEN is a required configuration field")
	}
	if cfg.GithubOwner == "" {
		return nil, errors.New("GITHUB_OWNER is a required configuration field")
	}
	if cfg.GithubRepo == "" {
		return nil, errors.New("GITHUB_REPO is a required configuration field")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("WEBHOOK_SECRET is a required configuration field")
	}

	return &cfg, nil
}
