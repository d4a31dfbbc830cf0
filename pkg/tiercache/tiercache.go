package tiercache

import (
	"github.com/tradedesk/tiercache/internal/cache"
	"github.com/tradedesk/tiercache/internal/config"
)

// New creates a new cache with default configuration.
func New(opts ...CacheOption) (Cache, error) {
	cfg := config.DefaultConfig()
	return NewFromConfig(cfg, opts...)
}

// NewFromConfig creates a new cache from configuration.
func NewFromConfig(cfg *config.Config, opts ...CacheOption) (Cache, error) {
	facadeOpts := &FacadeOptions{}
	for _, opt := range opts {
		opt(facadeOpts)
	}
	return cache.NewFacade(cfg, facadeOpts)
}

// NewFromFile creates a new cache from a JSON config file with environment
// variable overrides applied.
func NewFromFile(path string, opts ...CacheOption) (Cache, error) {
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, opts...)
}

// NewLocalOnly creates a cache using only the in-process tier.
func NewLocalOnly(opts ...CacheOption) (Cache, error) {
	cfg := config.DefaultConfig()
	cfg.Remote.Enabled = false
	return NewFromConfig(cfg, opts...)
}

// Config returns a default configuration that can be modified before creating a cache.
func Config() *config.Config {
	return config.DefaultConfig()
}

// TestConfig returns a configuration suitable for unit tests.
func TestConfig() *config.Config {
	return config.ForTesting()
}
