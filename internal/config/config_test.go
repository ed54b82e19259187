package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 10, cfg.DefaultTopN)
	assert.Equal(t, 100, cfg.MaxTopN)
	assert.Equal(t, "Asia/Kolkata", cfg.TimeZone)
	assert.Equal(t, 5*time.Second, cfg.TopCacheTTL())
	assert.Equal(t, 150*time.Millisecond, cfg.CoalesceWindow())
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("RANKFEED_ADDR", ":9090")
	t.Setenv("RANKFEED_REDIS_URL", "redis://example:6379/1")
	t.Setenv("RANKFEED_MAX_TOP_N", "50")
	t.Setenv("RANKFEED_KAFKA_BROKERS", "kafka1:9092, kafka2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "redis://example:6379/1", cfg.RedisURL)
	assert.Equal(t, 50, cfg.MaxTopN)
	assert.Equal(t, []string{"kafka1:9092", "kafka2:9092"}, cfg.BrokerList())

	// Untouched fields keep their defaults.
	assert.Equal(t, 10, cfg.DefaultTopN)
}

func TestLoadLayersFileUnderEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rankfeed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":7000\"\ndefault_top_n: 20\n"), 0o600))

	t.Setenv("RANKFEED_CONFIG", path)
	t.Setenv("RANKFEED_ADDR", ":7001")

	cfg, err := Load()
	require.NoError(t, err)

	// Env wins over file; file wins over defaults.
	assert.Equal(t, ":7001", cfg.Addr)
	assert.Equal(t, 20, cfg.DefaultTopN)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Addr = "" },
		func(c *Config) { c.RedisURL = "" },
		func(c *Config) { c.DefaultTopN = 0 },
		func(c *Config) { c.DefaultTopN = 200 }, // above MaxTopN
		func(c *Config) { c.TopCacheTTLSeconds = 0 },
		func(c *Config) { c.CoalesceMS = 0 },
		func(c *Config) { c.TimeZone = "Not/AZone" },
	}
	for _, mutate := range cases {
		cfg := Defaults()
		mutate(cfg)
		assert.Error(t, cfg.Validate())
	}
}

func TestBrokerListEmpty(t *testing.T) {
	cfg := Defaults()
	assert.Nil(t, cfg.BrokerList())
}
