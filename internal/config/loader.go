package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Load loads configuration from a JSON file.
// If the file doesn't exist, returns default configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, use defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithEnv loads configuration from a JSON file and applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

//nolint:gocyclo // Environment variable parsing requires many conditional checks
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TIERCACHE_KEY_PREFIX"); v != "" {
		cfg.KeyPrefix = v
	}

	if v := os.Getenv("TIERCACHE_LOCAL_ENABLED"); v != "" {
		cfg.Local.Enabled = parseBool(v)
	}
	if v := os.Getenv("TIERCACHE_LOCAL_MAX_SIZE_MB"); v != "" {
		cfg.Local.MaxSizeMB = parseInt(v, cfg.Local.MaxSizeMB)
	}
	if v := os.Getenv("TIERCACHE_LOCAL_DEFAULT_TTL"); v != "" {
		cfg.Local.DefaultTTL = parseDuration(v, cfg.Local.DefaultTTL)
	}
	if v := os.Getenv("TIERCACHE_LOCAL_PROMOTION_TTL"); v != "" {
		cfg.Local.PromotionTTL = parseDuration(v, cfg.Local.PromotionTTL)
	}

	if v := os.Getenv("TIERCACHE_REMOTE_ENABLED"); v != "" {
		cfg.Remote.Enabled = parseBool(v)
	}
	if v := os.Getenv("TIERCACHE_REMOTE_ADDRESS"); v != "" {
		cfg.Remote.Address = v
	}
	if v := os.Getenv("TIERCACHE_REMOTE_PASSWORD"); v != "" {
		cfg.Remote.Password = NewSecretString(v)
	}
	if v := os.Getenv("TIERCACHE_REMOTE_DB"); v != "" {
		cfg.Remote.DB = parseInt(v, cfg.Remote.DB)
	}
	if v := os.Getenv("TIERCACHE_REMOTE_DEFAULT_TTL"); v != "" {
		cfg.Remote.DefaultTTL = parseDuration(v, cfg.Remote.DefaultTTL)
	}
	if v := os.Getenv("TIERCACHE_REMOTE_POOL_SIZE"); v != "" {
		cfg.Remote.PoolSize = parseInt(v, cfg.Remote.PoolSize)
	}
	if v := os.Getenv("TIERCACHE_REMOTE_ENABLE_TLS"); v != "" {
		cfg.Remote.EnableTLS = parseBool(v)
	}
	if v := os.Getenv("TIERCACHE_REMOTE_TLS_SKIP_VERIFY"); v != "" {
		cfg.Remote.TLSSkipVerify = parseBool(v)
	}

	if v := os.Getenv("TIERCACHE_LOCK_TTL"); v != "" {
		cfg.Lock.TTL = parseDuration(v, cfg.Lock.TTL)
	}
	if v := os.Getenv("TIERCACHE_LOCK_RETRY_BACKOFF"); v != "" {
		cfg.Lock.RetryBackoff = parseDuration(v, cfg.Lock.RetryBackoff)
	}
	if v := os.Getenv("TIERCACHE_LOCK_RETRY_ATTEMPTS"); v != "" {
		cfg.Lock.RetryAttempts = parseInt(v, cfg.Lock.RetryAttempts)
	}

	if v := os.Getenv("TIERCACHE_DEFAULTS_TTL"); v != "" {
		cfg.Defaults.TTL = parseDuration(v, cfg.Defaults.TTL)
	}

	if v := os.Getenv("TIERCACHE_CIRCUIT_BREAKER_ENABLED"); v != "" {
		cfg.CircuitBreaker.Enabled = parseBool(v)
	}
	if v := os.Getenv("TIERCACHE_CIRCUIT_BREAKER_FAILURE_THRESHOLD"); v != "" {
		cfg.CircuitBreaker.FailureThreshold = parseInt(v, cfg.CircuitBreaker.FailureThreshold)
	}
	if v := os.Getenv("TIERCACHE_CIRCUIT_BREAKER_OPEN_DURATION"); v != "" {
		cfg.CircuitBreaker.OpenDuration = parseDuration(v, cfg.CircuitBreaker.OpenDuration)
	}

	if v := os.Getenv("TIERCACHE_RETRY_ENABLED"); v != "" {
		cfg.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("TIERCACHE_RETRY_MAX_ATTEMPTS"); v != "" {
		cfg.Retry.MaxAttempts = parseInt(v, cfg.Retry.MaxAttempts)
	}

	if v := os.Getenv("TIERCACHE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}

	if v := os.Getenv("DD_AGENT_HOST"); v != "" {
		cfg.Metrics.DataDog.AgentHost = v
		cfg.Metrics.DataDog.Enabled = true
	}
	if v := os.Getenv("DD_DOGSTATSD_PORT"); v != "" {
		cfg.Metrics.DataDog.Port = parseInt(v, cfg.Metrics.DataDog.Port)
	}
	if v := os.Getenv("DD_SERVICE"); v != "" {
		cfg.Metrics.DataDog.Prefix = v
	}
	if v := os.Getenv("DD_ENV"); v != "" {
		cfg.Metrics.DataDog.Tags = append(cfg.Metrics.DataDog.Tags, "env:"+v)
	}
	if v := os.Getenv("DD_VERSION"); v != "" {
		cfg.Metrics.DataDog.Tags = append(cfg.Metrics.DataDog.Tags, "version:"+v)
	}

	if v := os.Getenv("TIERCACHE_DATADOG_ENABLED"); v != "" {
		if os.Getenv("DD_AGENT_HOST") == "" {
			cfg.Metrics.DataDog.Enabled = parseBool(v)
		}
	}
	if v := os.Getenv("TIERCACHE_DATADOG_PREFIX"); v != "" {
		if os.Getenv("DD_SERVICE") == "" {
			cfg.Metrics.DataDog.Prefix = v
		}
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func parseInt(s string, defaultVal int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return v
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
