package jsonrpc

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Finality levels accepted by the query endpoint.
const (
	FinalityFinal      = "final"
	FinalityOptimistic = "optimistic"
)

// Config holds connection settings for a Client.
type Config struct {
	// Endpoint is the JSON-RPC URL.
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `yaml:"max_retries"`

	// RateLimit is the maximum requests per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`

	// Burst is the rate limiter bucket size.
	Burst int `yaml:"burst"`

	// Finality is the block finality views are evaluated at.
	Finality string `yaml:"finality"`
}

// DefaultConfig returns a Config with every field but Endpoint set.
func DefaultConfig() Config {
	return Config{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		Burst:      1,
		Finality:   FinalityFinal,
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("jsonrpc: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("jsonrpc: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the config is usable.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: endpoint %q is not an http(s) URL", ErrInvalidConfig, c.Endpoint)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must not be negative", ErrInvalidConfig)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.RateLimit > 0 && c.Burst < 1 {
		return fmt.Errorf("%w: burst must be at least 1 when rate_limit is set", ErrInvalidConfig)
	}
	switch c.Finality {
	case FinalityFinal, FinalityOptimistic:
	default:
		return fmt.Errorf("%w: unknown finality %q", ErrInvalidConfig, c.Finality)
	}
	return nil
}
