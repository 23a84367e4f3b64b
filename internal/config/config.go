// Package config loads merchantdesk settings from an optional config file,
// a .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the complete service configuration.
type Config struct {
	Port     string         `mapstructure:"port"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Token    TokenConfig    `mapstructure:"token"`
	Log      LogConfig      `mapstructure:"log"`
	Otel     OtelConfig     `mapstructure:"otel"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SessionConfig selects where login sessions are kept: "sqlite" or "redis".
type SessionConfig struct {
	Store string `mapstructure:"store"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// BackendConfig selects the onboarding backend. Mode "local" serves it from
// the SQLite database; "remote" calls URL.
type BackendConfig struct {
	Mode      string        `mapstructure:"mode"`
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"` // requests per second
	Burst     int           `mapstructure:"burst"`
}

type TokenConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

type OtelConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	Environment    string `mapstructure:"environment"`
	Exporter       string `mapstructure:"exporter"` // "stdout", "otlp", "prometheus" or "none"
	Insecure       bool   `mapstructure:"insecure"` // plain HTTP to the OTLP collector
}

type SeedConfig struct {
	Demo bool `mapstructure:"demo"`
}

const devTokenSecret = "merchantdesk-dev-secret"

var defaults = map[string]any{
	"port":                 "8080",
	"database.path":        "merchantdesk.db",
	"session.store":        "sqlite",
	"redis.addr":           "localhost:6379",
	"redis.password":       "",
	"redis.db":             0,
	"backend.mode":         "local",
	"backend.url":          "",
	"backend.timeout":      "15s",
	"backend.rate_limit":   10.0,
	"backend.burst":        5,
	"token.secret":         devTokenSecret,
	"token.ttl":            "12h",
	"log.level":            "info",
	"log.format":           "console",
	"otel.service_name":    "merchantdesk",
	"otel.service_version": "0.1.0",
	"otel.environment":     "development",
	"otel.exporter":        "stdout",
	"otel.insecure":        false,
	"seed.demo":            true,
}

// Load reads configuration. path may name a YAML/TOML/JSON file; when empty,
// "merchantdesk.*" in the working directory is used if present. Environment
// variables use upper-case keys with "_" for ".", e.g. BACKEND_URL.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("merchantdesk")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	if !slices.Contains([]string{"sqlite", "redis"}, c.Session.Store) {
		return fmt.Errorf("session.store must be sqlite or redis, got %q", c.Session.Store)
	}
	switch c.Backend.Mode {
	case "local":
	case "remote":
		if c.Backend.URL == "" {
			return errors.New("backend.url is required when backend.mode is remote")
		}
	default:
		return fmt.Errorf("backend.mode must be local or remote, got %q", c.Backend.Mode)
	}
	if c.Backend.RateLimit <= 0 || c.Backend.Burst <= 0 {
		return errors.New("backend.rate_limit and backend.burst must be positive")
	}
	if c.Token.TTL <= 0 {
		return errors.New("token.ttl must be positive")
	}
	if c.Otel.Environment == "production" && c.Token.Secret == devTokenSecret {
		return errors.New("token.secret must be set in production")
	}
	return nil
}
