// Package config provides configuration management for tiercache.
package config

import (
	"fmt"
	"time"

	"github.com/tradedesk/tiercache/internal/types"
)

// SecretString is a string type that redacts its value when marshaled to JSON.
type SecretString = types.SecretString

// NewSecretString creates a new SecretString with the provided value.
func NewSecretString(value string) SecretString {
	return types.NewSecretString(value)
}

// Config contains all configuration for the tiercache facade.
type Config struct {
	// KeyPrefix is the process-wide namespace every fully-qualified key is
	// composed under ("<prefix>:<logical-key>").
	KeyPrefix string `json:"keyPrefix"`

	Local          LocalConfig          `json:"local"`
	Remote         RemoteConfig         `json:"remote"`
	Lock           LockConfig           `json:"lock"`
	Defaults       DefaultsConfig       `json:"defaults"`
	CircuitBreaker CircuitBreakerConfig `json:"circuitBreaker"`
	Retry          RetryConfig          `json:"retry"`
	Metrics        MetricsConfig        `json:"metrics"`
	KeyValidation  KeyValidationConfig  `json:"keyValidation"`
}

// LocalConfig contains configuration for the in-process tier.
type LocalConfig struct {
	DefaultTTL time.Duration `json:"defaultTTL"`
	// PromotionTTL is applied to entries copied in from the remote tier on a
	// hit. It is biased short so a local copy never outlives the remote
	// value by much.
	PromotionTTL    time.Duration `json:"promotionTTL"`
	CleanupInterval time.Duration `json:"cleanupInterval"`
	MaxSizeMB       int           `json:"maxSizeMB"`
	Shards          int           `json:"shards"`
	MaxEntrySize    int           `json:"maxEntrySize"`
	Enabled         bool          `json:"enabled"`
}

// RemoteConfig contains configuration for the shared tier.
type RemoteConfig struct {
	DefaultTTL          time.Duration `json:"defaultTTL"`
	DialTimeout         time.Duration `json:"dialTimeout"`
	ReadTimeout         time.Duration `json:"readTimeout"`
	WriteTimeout        time.Duration `json:"writeTimeout"`
	PoolTimeout         time.Duration `json:"poolTimeout"`
	HealthCheckInterval time.Duration `json:"healthCheckInterval"`
	Password            SecretString  `json:"password"`
	Address             string        `json:"address"`
	DB                  int           `json:"db"`
	PoolSize            int           `json:"poolSize"`
	MinIdleConns        int           `json:"minIdleConns"`
	Enabled             bool          `json:"enabled"`
	EnableTLS           bool          `json:"enableTLS"`
	TLSSkipVerify       bool          `json:"tlsSkipVerify"`
}

// LockConfig tunes the stampede guard. The retry backoff and give-up policy
// are deliberate trade-offs: a short bounded wait and then an uncached
// computation, instead of unbounded blocking on the lock holder.
type LockConfig struct {
	// TTL bounds how long a stranded lock (crashed holder) can block other
	// computations. Choose generously relative to expected fallback duration.
	TTL time.Duration `json:"ttl"`
	// RetryBackoff is how long a non-holder waits before re-checking the
	// cache for the holder's result.
	RetryBackoff time.Duration `json:"retryBackoff"`
	// RetryAttempts is how many backoff-and-recheck rounds a non-holder
	// performs before giving up and computing uncached.
	RetryAttempts int `json:"retryAttempts"`
}

// DefaultsConfig contains default values for cache operations.
type DefaultsConfig struct {
	TTL time.Duration `json:"ttl"`
}

// CircuitBreakerConfig contains configuration for the circuit breaker guarding
// remote tier calls.
type CircuitBreakerConfig struct {
	Enabled             bool          `json:"enabled"`
	FailureThreshold    int           `json:"failureThreshold"`
	SuccessThreshold    int           `json:"successThreshold"`
	OpenDuration        time.Duration `json:"openDuration"`
	HalfOpenMaxRequests int           `json:"halfOpenMaxRequests"`
}

// RetryConfig contains configuration for the retry pattern.
type RetryConfig struct {
	InitialBackoff time.Duration `json:"initialBackoff"`
	MaxBackoff     time.Duration `json:"maxBackoff"`
	Multiplier     float64       `json:"multiplier"`
	MaxAttempts    int           `json:"maxAttempts"`
	Enabled        bool          `json:"enabled"`
	Jitter         bool          `json:"jitter"`
}

// MetricsConfig contains configuration for metrics publishing.
type MetricsConfig struct {
	PublishInterval time.Duration `json:"publishInterval"`
	DataDog         DataDogConfig `json:"datadog"`
	Enabled         bool          `json:"enabled"`
}

// DataDogConfig contains configuration for DataDog metrics publishing.
type DataDogConfig struct {
	Tags      []string `json:"tags"`
	AgentHost string   `json:"agentHost"`
	Prefix    string   `json:"prefix"`
	Port      int      `json:"port"`
	Enabled   bool     `json:"enabled"`
}

// KeyValidationConfig contains configuration for cache key validation.
type KeyValidationConfig struct {
	ReservedPrefixes []string `json:"reservedPrefixes"`
	MaxKeyLength     int      `json:"maxKeyLength"`
	Enabled          bool     `json:"enabled"`
	AllowEmpty       bool     `json:"allowEmpty"`
	AllowWhitespace  bool     `json:"allowWhitespace"`
}

// ToTypesConfig converts this config to a types.KeyValidationConfig.
func (c KeyValidationConfig) ToTypesConfig() types.KeyValidationConfig {
	return types.KeyValidationConfig{
		MaxKeyLength:     c.MaxKeyLength,
		AllowEmpty:       c.AllowEmpty,
		AllowWhitespace:  c.AllowWhitespace,
		ReservedPrefixes: c.ReservedPrefixes,
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if !c.Local.Enabled && !c.Remote.Enabled {
		return fmt.Errorf("config: at least one tier must be enabled")
	}
	if c.Local.Enabled {
		if c.Local.MaxSizeMB <= 0 {
			return fmt.Errorf("config: local.maxSizeMB must be positive, got %d", c.Local.MaxSizeMB)
		}
		if c.Local.Shards <= 0 || (c.Local.Shards&(c.Local.Shards-1)) != 0 {
			return fmt.Errorf("config: local.shards must be a positive power of 2, got %d", c.Local.Shards)
		}
	}
	if c.Local.PromotionTTL > c.Remote.DefaultTTL && c.Remote.Enabled {
		return fmt.Errorf("config: local.promotionTTL %s exceeds remote.defaultTTL %s",
			c.Local.PromotionTTL, c.Remote.DefaultTTL)
	}
	// local.defaultTTL is the hard lifetime cap on the local tier, so a
	// longer default entry TTL would be silently cut short
	if c.Local.Enabled && c.Defaults.TTL > c.Local.DefaultTTL {
		return fmt.Errorf("config: defaults.ttl %s exceeds local.defaultTTL %s, local entries would expire early",
			c.Defaults.TTL, c.Local.DefaultTTL)
	}
	if c.Lock.TTL <= 0 {
		return fmt.Errorf("config: lock.ttl must be positive, got %s", c.Lock.TTL)
	}
	if c.Lock.RetryBackoff <= 0 {
		return fmt.Errorf("config: lock.retryBackoff must be positive, got %s", c.Lock.RetryBackoff)
	}
	if c.Remote.Enabled && c.Remote.Address == "" {
		return fmt.Errorf("config: remote.address is required when the remote tier is enabled")
	}
	return nil
}
