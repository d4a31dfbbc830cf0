package config

import "time"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		KeyPrefix: "tiercache",
		Local: LocalConfig{
			Enabled:         true,
			MaxSizeMB:       256,
			DefaultTTL:      5 * time.Minute,
			PromotionTTL:    1 * time.Minute,
			CleanupInterval: 10 * time.Second,
			Shards:          1024,
			MaxEntrySize:    10 * 1024 * 1024, // 10MB
		},
		Remote: RemoteConfig{
			Enabled:             false,
			Address:             "localhost:6379",
			Password:            SecretString{},
			DB:                  0,
			DefaultTTL:          15 * time.Minute,
			PoolSize:            100,
			MinIdleConns:        10,
			DialTimeout:         5 * time.Second,
			ReadTimeout:         3 * time.Second,
			WriteTimeout:        3 * time.Second,
			PoolTimeout:         4 * time.Second,
			HealthCheckInterval: 5 * time.Second,
		},
		Lock: LockConfig{
			TTL:           30 * time.Second,
			RetryBackoff:  100 * time.Millisecond,
			RetryAttempts: 1,
		},
		Defaults: DefaultsConfig{
			TTL: 5 * time.Minute,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:             true,
			FailureThreshold:    5,
			SuccessThreshold:    2,
			OpenDuration:        30 * time.Second,
			HalfOpenMaxRequests: 3,
		},
		Retry: RetryConfig{
			Enabled:        true,
			MaxAttempts:    3,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			Multiplier:     2.0,
			Jitter:         true,
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			PublishInterval: 10 * time.Second,
			DataDog: DataDogConfig{
				Enabled:   false,
				AgentHost: "127.0.0.1",
				Port:      8125,
				Prefix:    "tiercache",
				Tags:      []string{},
			},
		},
		KeyValidation: KeyValidationConfig{
			Enabled:          true,
			MaxKeyLength:     1024,
			AllowEmpty:       false,
			AllowWhitespace:  false,
			ReservedPrefixes: []string{"lock:"},
		},
	}
}

// ForTesting returns a minimal configuration suitable for unit tests.
func ForTesting() *Config {
	return &Config{
		KeyPrefix: "test",
		Local: LocalConfig{
			Enabled:         true,
			MaxSizeMB:       16,
			DefaultTTL:      1 * time.Minute,
			PromotionTTL:    10 * time.Second,
			CleanupInterval: 1 * time.Second,
			Shards:          64,
			MaxEntrySize:    1024 * 1024, // 1MB
		},
		Remote: RemoteConfig{
			Enabled:             false, // Disabled for unit tests
			Address:             "localhost:6379",
			DefaultTTL:          1 * time.Minute,
			PoolSize:            10,
			MinIdleConns:        1,
			DialTimeout:         1 * time.Second,
			ReadTimeout:         1 * time.Second,
			WriteTimeout:        1 * time.Second,
			PoolTimeout:         1 * time.Second,
			HealthCheckInterval: 0,
		},
		Lock: LockConfig{
			TTL:           2 * time.Second,
			RetryBackoff:  20 * time.Millisecond,
			RetryAttempts: 1,
		},
		Defaults: DefaultsConfig{
			TTL: 1 * time.Minute,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:             false,
			FailureThreshold:    3,
			SuccessThreshold:    1,
			OpenDuration:        1 * time.Second,
			HalfOpenMaxRequests: 1,
		},
		Retry: RetryConfig{
			Enabled:        false,
			MaxAttempts:    1,
			InitialBackoff: 10 * time.Millisecond,
			MaxBackoff:     100 * time.Millisecond,
			Multiplier:     2.0,
			Jitter:         false,
		},
		Metrics: MetricsConfig{
			Enabled:         false,
			PublishInterval: 1 * time.Second,
		},
		KeyValidation: KeyValidationConfig{
			Enabled:          true,
			MaxKeyLength:     1024,
			AllowEmpty:       false,
			AllowWhitespace:  false,
			ReservedPrefixes: []string{"lock:"},
		},
	}
}

// ForTestingWithRemote returns a test config with the remote tier enabled.
func ForTestingWithRemote(addr string) *Config {
	cfg := ForTesting()
	cfg.Remote.Enabled = true
	cfg.Remote.Address = addr
	return cfg
}
