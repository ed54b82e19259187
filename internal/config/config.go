// Package config loads process configuration by layering defaults, an
// optional YAML file, and RANKFEED_-prefixed environment variables.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config contains all process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CORSOrigin is the allowed origin; "*" allows any.
	CORSOrigin string `koanf:"cors_origin"`

	// RedisURL is the backing-store connection URL (redis:// or rediss://).
	RedisURL string `koanf:"redis_url"`

	// DefaultTopN is the limit used when a top query omits one.
	DefaultTopN int `koanf:"default_top_n"`

	// MaxTopN caps the limit of any top query or subscription.
	MaxTopN int `koanf:"max_top_n"`

	// TopCacheTTLSeconds is the lifetime of cached top-N snapshots.
	TopCacheTTLSeconds int `koanf:"top_cache_ttl_seconds"`

	// PushTopN is the snapshot size used for coalesced room refreshes.
	PushTopN int `koanf:"push_top_n"`

	// CoalesceMS is the per-room debounce window for full refreshes.
	CoalesceMS int `koanf:"coalesce_ms"`

	// TimeZone fixes the daily partition boundary, e.g. "Asia/Kolkata".
	TimeZone string `koanf:"time_zone"`

	// KafkaBrokers is a comma-separated broker list; empty disables the relay.
	KafkaBrokers string `koanf:"kafka_brokers"`

	// KafkaTopic carries cross-instance broadcast envelopes.
	KafkaTopic string `koanf:"kafka_topic"`
}

// Defaults returns a Config populated with built-in defaults.
func Defaults() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":8080",
		CORSOrigin:         "*",
		RedisURL:           "redis://localhost:6379",
		DefaultTopN:        10,
		MaxTopN:            100,
		TopCacheTTLSeconds: 5,
		PushTopN:           10,
		CoalesceMS:         150,
		TimeZone:           "Asia/Kolkata",
		KafkaBrokers:       "",
		KafkaTopic:         "leaderboard-broadcast",
	}
}

// Load builds a Config by layering, in increasing precedence:
//  1. Defaults()
//  2. YAML file named by RANKFEED_CONFIG, if set
//  3. environment variables with the RANKFEED_ prefix
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv("RANKFEED_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// RANKFEED_REDIS_URL -> redis_url, matching the koanf struct tags.
	envProvider := env.Provider("RANKFEED_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "rankfeed_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.RedisURL == "" {
		return errors.New("redis_url must not be empty")
	}
	if c.DefaultTopN < 1 || c.MaxTopN < 1 || c.DefaultTopN > c.MaxTopN {
		return errors.New("default_top_n and max_top_n must satisfy 1 <= default <= max")
	}
	if c.TopCacheTTLSeconds < 1 {
		return errors.New("top_cache_ttl_seconds must be at least 1")
	}
	if c.CoalesceMS < 1 {
		return errors.New("coalesce_ms must be at least 1")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return errors.New("time_zone is not a valid IANA zone name")
	}
	return nil
}

// TopCacheTTL returns the snapshot cache lifetime as a duration.
func (c *Config) TopCacheTTL() time.Duration {
	return time.Duration(c.TopCacheTTLSeconds) * time.Second
}

// CoalesceWindow returns the per-room debounce window as a duration.
func (c *Config) CoalesceWindow() time.Duration {
	return time.Duration(c.CoalesceMS) * time.Millisecond
}

// BrokerList splits KafkaBrokers into individual addresses.
func (c *Config) BrokerList() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
