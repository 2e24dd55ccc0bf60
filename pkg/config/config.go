// Package config provides the unified configuration for govtable adapters.
// It defines a single AdapterConfig structure covering credentials, endpoint
// selection, paging, and reliability settings, so every adapter construction
// goes through the same validated shape.
//
// Example usage:
//
//	cfg := config.NewAdapterConfig("BILLS")
//	cfg.APIKey = os.Getenv("GOVINFO_API_KEY")
//	cfg.PageSize = 500
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"strings"
	"time"

	"github.com/civicdata/govtable/pkg/errors"
)

// DefaultBaseURL is the production GovInfo endpoint.
const DefaultBaseURL = "https://api.govinfo.gov"

// AdapterConfig is the construction contract for an adapter instance.
// The API key is the only required secret; everything else has working
// defaults. All options are explicit construction arguments, never
// environment-only (the YAML loader supports ${VAR} substitution for
// deployments that want it).
type AdapterConfig struct {
	// APIKey authenticates every request (required, secret).
	APIKey string `yaml:"api_key" json:"api_key"`
	// BaseURL overrides the remote endpoint, mainly for tests.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Collection selects the GovInfo collection backing the table
	// (e.g. "BILLS").
	Collection string `yaml:"collection" json:"collection"`
	// PageSize is the page-size hint sent to the API. The scan still
	// enforces limits client-side; this is never trusted as an exact cap.
	PageSize int `yaml:"page_size" json:"page_size"`
	// RequestTimeout bounds each individual HTTP request. Without it a hung
	// remote call would block the scan indefinitely.
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`

	// Reliability settings for retry, rate limiting and caching
	Reliability ReliabilityConfig `yaml:"reliability" json:"reliability"`

	// Observability settings for logging and metrics
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// ReliabilityConfig contains retry and rate limiting settings.
type ReliabilityConfig struct {
	// RetryAttempts sets the total attempt ceiling for transient failures
	RetryAttempts int `yaml:"retry_attempts" json:"retry_attempts"`
	// RetryDelay is the initial delay between retries
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
	// RetryMultiplier increases delay exponentially
	RetryMultiplier float64 `yaml:"retry_multiplier" json:"retry_multiplier"`
	// MaxRetryDelay caps the maximum retry delay
	MaxRetryDelay time.Duration `yaml:"max_retry_delay" json:"max_retry_delay"`
	// RateLimitPerSec limits requests per second (0 = unlimited)
	RateLimitPerSec int `yaml:"rate_limit_per_sec" json:"rate_limit_per_sec"`
	// CacheResponses enables the in-memory TTL response cache
	CacheResponses bool `yaml:"cache_responses" json:"cache_responses"`
	// CacheTTL sets how long cached responses stay valid
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

// ObservabilityConfig contains logging and metrics settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// EnableMetrics activates prometheus scan counters
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
}

// NewAdapterConfig creates an AdapterConfig with production defaults for the
// given collection. The API key must still be set by the caller.
func NewAdapterConfig(collection string) *AdapterConfig {
	return &AdapterConfig{
		BaseURL:        DefaultBaseURL,
		Collection:     collection,
		PageSize:       100,
		RequestTimeout: 30 * time.Second,
		Reliability: ReliabilityConfig{
			RetryAttempts:   3,
			RetryDelay:      time.Second,
			RetryMultiplier: 2.0,
			MaxRetryDelay:   30 * time.Second,
			RateLimitPerSec: 0,
			CacheResponses:  false,
			CacheTTL:        3 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:      "info",
			EnableMetrics: true,
		},
	}
}

// Validate checks required fields and value ranges. Adapters call this before
// touching the network so misconfiguration fails at construction time.
func (c *AdapterConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New(errors.ErrorTypeConfig, "api_key is required")
	}
	if strings.TrimSpace(c.Collection) == "" {
		return errors.New(errors.ErrorTypeConfig, "collection is required")
	}
	if c.BaseURL == "" {
		return errors.New(errors.ErrorTypeConfig, "base_url must not be empty")
	}
	if c.PageSize <= 0 {
		return errors.New(errors.ErrorTypeConfig, "page_size must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New(errors.ErrorTypeConfig, "request_timeout must be positive")
	}
	if c.Reliability.RetryAttempts < 1 {
		return errors.New(errors.ErrorTypeConfig, "retry_attempts must be at least 1")
	}
	if c.Reliability.RateLimitPerSec < 0 {
		return errors.New(errors.ErrorTypeConfig, "rate_limit_per_sec cannot be negative")
	}
	if c.Reliability.CacheResponses && c.Reliability.CacheTTL <= 0 {
		return errors.New(errors.ErrorTypeConfig, "cache_ttl must be positive when caching is enabled")
	}
	return nil
}

// IsRateLimited returns true if rate limiting is enabled
func (r *ReliabilityConfig) IsRateLimited() bool {
	return r.RateLimitPerSec > 0
}
