// Package config loads client configuration from YAML with defaults and
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config controls the client's connection and call behavior.
type Config struct {
	// Endpoint is the node WebSocket URL used by Connect.
	Endpoint string
	// Endpoints is an optional failover set for reconnects; ignored unless a
	// balancer is configured on the client.
	Endpoints []string
	// CallTimeout bounds each Call unless the caller's context carries an
	// earlier deadline.
	CallTimeout time.Duration
	// HandshakeTimeout bounds the WebSocket dial + upgrade.
	HandshakeTimeout time.Duration
	// AutoReconnect enables retry scheduling after a connection failure.
	AutoReconnect bool
	// MaxReconnectAttempts caps consecutive failed attempts; 0 disables all
	// retries after the first failure.
	MaxReconnectAttempts int
	// ReconnectInitialDelay and ReconnectMaxDelay bound the exponential
	// backoff between attempts.
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	// RateLimit throttles outgoing calls when RPS > 0. The limiter is the
	// outermost layer of the call path, ahead of any middleware given to
	// the client.
	RateLimit RateLimit
}

// RateLimit is a token-bucket limit on outgoing calls.
type RateLimit struct {
	RPS   float64
	Burst int
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		CallTimeout:           30 * time.Second,
		HandshakeTimeout:      10 * time.Second,
		AutoReconnect:         true,
		MaxReconnectAttempts:  5,
		ReconnectInitialDelay: time.Second,
		ReconnectMaxDelay:     16 * time.Second,
	}
}

// fileConfig is the YAML shape. Pointer fields distinguish "absent" from
// meaningful zero values (maxReconnectAttempts: 0 disables retries).
type fileConfig struct {
	Endpoint              string         `yaml:"endpoint"`
	Endpoints             []string       `yaml:"endpoints"`
	CallTimeout           time.Duration  `yaml:"callTimeout"`
	HandshakeTimeout      time.Duration  `yaml:"handshakeTimeout"`
	AutoReconnect         *bool          `yaml:"autoReconnect"`
	MaxReconnectAttempts  *int           `yaml:"maxReconnectAttempts"`
	ReconnectInitialDelay time.Duration  `yaml:"reconnectInitialDelay"`
	ReconnectMaxDelay     time.Duration  `yaml:"reconnectMaxDelay"`
	RateLimit             *rateLimitYAML `yaml:"rateLimit"`
}

type rateLimitYAML struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Load reads a YAML config file, merges it over the defaults, and applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var parsed fileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	merge(&cfg, parsed)
	ApplyEnvOverrides(&cfg)
	return cfg, nil
}

func merge(dst *Config, src fileConfig) {
	if src.Endpoint != "" {
		dst.Endpoint = src.Endpoint
	}
	if src.Endpoints != nil {
		dst.Endpoints = src.Endpoints
	}
	if src.CallTimeout != 0 {
		dst.CallTimeout = src.CallTimeout
	}
	if src.HandshakeTimeout != 0 {
		dst.HandshakeTimeout = src.HandshakeTimeout
	}
	if src.AutoReconnect != nil {
		dst.AutoReconnect = *src.AutoReconnect
	}
	if src.MaxReconnectAttempts != nil {
		dst.MaxReconnectAttempts = *src.MaxReconnectAttempts
	}
	if src.ReconnectInitialDelay != 0 {
		dst.ReconnectInitialDelay = src.ReconnectInitialDelay
	}
	if src.ReconnectMaxDelay != 0 {
		dst.ReconnectMaxDelay = src.ReconnectMaxDelay
	}
	if src.RateLimit != nil {
		dst.RateLimit = RateLimit{RPS: src.RateLimit.RPS, Burst: src.RateLimit.Burst}
	}
}

// ApplyEnvOverrides lets deployment environments point an existing config at
// a different node without editing files.
func ApplyEnvOverrides(cfg *Config) {
	if endpoint := strings.TrimSpace(os.Getenv("SUBRPC_ENDPOINT")); endpoint != "" {
		cfg.Endpoint = endpoint
	}
}
