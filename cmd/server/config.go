// Package main provides the SiteOps server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Verbose  bool           `yaml:"-"` // set via CLI flag
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address        string `yaml:"address" env:"SITEOPS_ADDRESS"`                 // API listen address (default: :8080)
	MetricsAddress string `yaml:"metrics_address" env:"SITEOPS_METRICS_ADDRESS"` // Prometheus listen address (default: :9090)
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"SITEOPS_DB_PATH"` // SQLite database file
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	TokenTTL         time.Duration `yaml:"token_ttl" env:"SITEOPS_TOKEN_TTL"`                 // access token lifetime
	LockoutThreshold int           `yaml:"lockout_threshold" env:"SITEOPS_LOCKOUT_THRESHOLD"` // failed logins before lockout
	LockoutDuration  time.Duration `yaml:"lockout_duration" env:"SITEOPS_LOCKOUT_DURATION"`   // lockout length
	RateLimitPerIP   int           `yaml:"rate_limit_per_ip" env:"SITEOPS_RATE_LIMIT_IP"`     // login attempts per minute per IP
	RateLimitPerUser int           `yaml:"rate_limit_per_user" env:"SITEOPS_RATE_LIMIT_USER"` // requests per minute per user
}

// LoadConfig loads configuration from an optional YAML file, then applies
// environment overrides. A .env file in the working directory is honored.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.MetricsAddress == "" {
		c.Server.MetricsAddress = ":9090"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/siteops.db"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 8 * time.Hour
	}
	if c.Auth.LockoutThreshold == 0 {
		c.Auth.LockoutThreshold = 5
	}
	if c.Auth.LockoutDuration == 0 {
		c.Auth.LockoutDuration = 30 * time.Minute
	}
	if c.Auth.RateLimitPerIP == 0 {
		c.Auth.RateLimitPerIP = 10
	}
	if c.Auth.RateLimitPerUser == 0 {
		c.Auth.RateLimitPerUser = 120
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Auth.TokenTTL < time.Minute {
		return fmt.Errorf("auth.token_ttl must be at least one minute")
	}
	if c.Auth.LockoutThreshold < 0 {
		return fmt.Errorf("auth.lockout_threshold must not be negative")
	}
	if c.Auth.RateLimitPerIP < 0 || c.Auth.RateLimitPerUser < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	return nil
}
