// Package config loads service configuration from an optional YAML file with
// environment-variable overrides. Every value has a compiled-in default, so
// the service starts with no file at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime-tunable parameters of the admin API.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	PostgresDSN string `yaml:"postgres_dsn"`

	Auth struct {
		TokenSecret string        `yaml:"token_secret"`
		TokenIssuer string        `yaml:"token_issuer"`
		TokenTTL    time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`

	TwoFactor struct {
		Issuer          string        `yaml:"issuer"`
		WarningDuration time.Duration `yaml:"warning_duration"`
	} `yaml:"twofactor"`

	Audit struct {
		Cap int `yaml:"cap"`
	} `yaml:"audit"`

	Session struct {
		ChannelName string `yaml:"channel_name"`
	} `yaml:"session"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		ListenAddr: ":8080",
	}
	cfg.Auth.TokenIssuer = "vehix-admin"
	cfg.Auth.TokenTTL = 12 * time.Hour
	cfg.TwoFactor.Issuer = "Vehix Admin"
	cfg.TwoFactor.WarningDuration = 10 * time.Second
	cfg.Audit.Cap = 1000
	cfg.Session.ChannelName = "vehix-admin-session"
	return cfg
}

// Load reads the YAML file at path when it exists, then applies environment
// overrides. An empty path skips the file step; a missing file is not an
// error, invalid YAML is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("VEHIX_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("VEHIX_PG_DSN"); v != "" {
		c.PostgresDSN = v
	}
	if v := os.Getenv("VEHIX_AUTH_SECRET"); v != "" {
		c.Auth.TokenSecret = v
	}
	if v := os.Getenv("VEHIX_OTP_ISSUER"); v != "" {
		c.TwoFactor.Issuer = v
	}
	if v := os.Getenv("VEHIX_AUDIT_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Audit.Cap = n
		}
	}
	if v := os.Getenv("VEHIX_SESSION_CHANNEL"); v != "" {
		c.Session.ChannelName = v
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen_addr is required")
	}
	if c.Audit.Cap <= 0 {
		return fmt.Errorf("config: audit cap must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("config: token ttl must be positive")
	}
	if c.TwoFactor.WarningDuration <= 0 {
		return fmt.Errorf("config: warning duration must be positive")
	}
	if c.Session.ChannelName == "" {
		return fmt.Errorf("config: session channel name is required")
	}
	return nil
}
