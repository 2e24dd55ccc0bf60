package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAdapterConfigDefaults(t *testing.T) {
	cfg := NewAdapterConfig("BILLS")

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "BILLS", cfg.Collection)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.Reliability.RetryAttempts)
	assert.False(t, cfg.Reliability.CacheResponses)
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := NewAdapterConfig("BILLS")
	require.Error(t, cfg.Validate())

	cfg.APIKey = "key"
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*AdapterConfig)
	}{
		{"empty collection", func(c *AdapterConfig) { c.Collection = "  " }},
		{"empty base url", func(c *AdapterConfig) { c.BaseURL = "" }},
		{"zero page size", func(c *AdapterConfig) { c.PageSize = 0 }},
		{"zero timeout", func(c *AdapterConfig) { c.RequestTimeout = 0 }},
		{"zero retries", func(c *AdapterConfig) { c.Reliability.RetryAttempts = 0 }},
		{"negative rate limit", func(c *AdapterConfig) { c.Reliability.RateLimitPerSec = -1 }},
		{"caching without ttl", func(c *AdapterConfig) {
			c.Reliability.CacheResponses = true
			c.Reliability.CacheTTL = 0
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewAdapterConfig("BILLS")
			cfg.APIKey = "key"
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadSubstitutesEnvVars(t *testing.T) {
	t.Setenv("GOVTABLE_TEST_KEY", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api_key: ${GOVTABLE_TEST_KEY}
collection: CREC
page_size: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := NewAdapterConfig("BILLS")
	require.NoError(t, Load(path, cfg))

	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, "CREC", cfg.Collection)
	assert.Equal(t, 50, cfg.PageSize)
	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
}

func TestLoadMissingFile(t *testing.T) {
	cfg := NewAdapterConfig("BILLS")
	assert.Error(t, Load("/does/not/exist.yaml", cfg))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")

	cfg := NewAdapterConfig("FR")
	cfg.APIKey = "key"
	cfg.PageSize = 250
	require.NoError(t, Save(path, cfg))

	loaded := &AdapterConfig{}
	require.NoError(t, Load(path, loaded))
	assert.Equal(t, "FR", loaded.Collection)
	assert.Equal(t, 250, loaded.PageSize)
}
