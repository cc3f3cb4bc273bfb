// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// PublicBaseURL is the externally reachable base of this service, used to
	// build the processor's success/cancel callback URLs.
	PublicBaseURL string `yaml:"public_base_url"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type StripeConfig struct {
	APIKey    string `yaml:"api_key"`    // publishable key
	SecretKey string `yaml:"secret_key"` // server-side key
	Sandbox   bool   `yaml:"sandbox"`
}

type SecurityConfig struct {
	// AllowedRedirectHosts is the open-redirect allow-list. Empty means no
	// redirect URL is ever accepted (fail-safe default).
	AllowedRedirectHosts []string `yaml:"allowed_redirect_hosts"`
	// AllowedWebhookHosts optionally restricts webhook targets beyond the
	// SSRF checks. Empty means any public host.
	AllowedWebhookHosts []string `yaml:"allowed_webhook_hosts"`
}

type RateLimitConfig struct {
	AuthLimit   int           `yaml:"auth_limit"`
	AuthWindow  time.Duration `yaml:"auth_window"`
	TokenLimit  int           `yaml:"token_limit"`
	TokenWindow time.Duration `yaml:"token_window"`
}

type RetryConfig struct {
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Stripe    StripeConfig    `yaml:"stripe"`
	Security  SecurityConfig  `yaml:"security"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Retry     RetryConfig     `yaml:"retry"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = 5 * time.Minute
	}
	// Rate limits mirror the abuse profile of each surface: tight on auth,
	// looser on token creation.
	if cfg.RateLimit.AuthLimit <= 0 {
		cfg.RateLimit.AuthLimit = 10
	}
	if cfg.RateLimit.AuthWindow <= 0 {
		cfg.RateLimit.AuthWindow = time.Minute
	}
	if cfg.RateLimit.TokenLimit <= 0 {
		cfg.RateLimit.TokenLimit = 100
	}
	if cfg.RateLimit.TokenWindow <= 0 {
		cfg.RateLimit.TokenWindow = time.Hour
	}
	if cfg.Retry.Interval <= 0 {
		cfg.Retry.Interval = 15 * time.Minute
	}
	if cfg.Retry.BatchSize <= 0 {
		cfg.Retry.BatchSize = 50
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Stripe.SecretKey == "" && !dev {
		return nil, errors.New("stripe.secret_key is required")
	}
	if cfg.Server.PublicBaseURL == "" {
		return nil, errors.New("server.public_base_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
