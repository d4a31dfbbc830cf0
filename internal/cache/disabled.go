package cache

import (
	"context"
	"time"

	"github.com/tradedesk/tiercache/internal/types"
)

// DisabledLocalCache is a no-op local tier implementation.
type DisabledLocalCache struct{}

// NewDisabledLocalCache creates a new disabled local cache.
func NewDisabledLocalCache() *DisabledLocalCache {
	return &DisabledLocalCache{}
}

func (c *DisabledLocalCache) Name() string { return "local-disabled" }

func (c *DisabledLocalCache) IsAvailable() bool { return false }

func (c *DisabledLocalCache) Close() error { return nil }

func (c *DisabledLocalCache) EntryCount() int { return 0 }

func (c *DisabledLocalCache) Size() int64 { return 0 }

func (c *DisabledLocalCache) MaxSize() int64 { return 0 }

func (c *DisabledLocalCache) UsagePercentage() float64 { return 0 }

func (c *DisabledLocalCache) Stats() types.LocalCacheStats { return types.LocalCacheStats{} }

func (c *DisabledLocalCache) Clear(ctx context.Context) error { return nil }

func (c *DisabledLocalCache) ClearByPattern(ctx context.Context, pattern string) error { return nil }

func (c *DisabledLocalCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, types.ErrCacheMiss
}

func (c *DisabledLocalCache) Set(ctx context.Context, key string, value []byte, opts *types.CacheOptions) error {
	return nil
}

func (c *DisabledLocalCache) Delete(ctx context.Context, key string) error {
	return nil
}

func (c *DisabledLocalCache) Contains(ctx context.Context, key string) (bool, error) {
	return false, nil
}

// DisabledRemoteCache is a no-op remote tier implementation used when the
// remote tier is turned off in configuration. The facade checks IsAvailable
// before touching the remote tier, so normal operation never reaches these
// methods; they exist so the null object satisfies the full interface.
type DisabledRemoteCache struct{}

// NewDisabledRemoteCache creates a new disabled remote cache.
func NewDisabledRemoteCache() *DisabledRemoteCache {
	return &DisabledRemoteCache{}
}

func (c *DisabledRemoteCache) Name() string { return "remote-disabled" }

func (c *DisabledRemoteCache) IsAvailable() bool { return false }

func (c *DisabledRemoteCache) Close() error { return nil }

func (c *DisabledRemoteCache) Clear(ctx context.Context) error { return nil }

func (c *DisabledRemoteCache) ClearByPattern(ctx context.Context, pattern string) error { return nil }

func (c *DisabledRemoteCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, types.ErrRemoteUnavailable
}

func (c *DisabledRemoteCache) Set(ctx context.Context, key string, value []byte, opts *types.CacheOptions) error {
	return nil
}

func (c *DisabledRemoteCache) Delete(ctx context.Context, key string) error {
	return nil
}

func (c *DisabledRemoteCache) Contains(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func (c *DisabledRemoteCache) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	return make(map[string][]byte), nil
}

func (c *DisabledRemoteCache) SetMany(ctx context.Context, items map[string][]byte, opts *types.CacheOptions) error {
	return nil
}

func (c *DisabledRemoteCache) SetIfAbsent(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return false, types.ErrRemoteUnavailable
}

func (c *DisabledRemoteCache) CompareAndDelete(ctx context.Context, key, token string) (bool, error) {
	return false, types.ErrRemoteUnavailable
}

func (c *DisabledRemoteCache) Ping(ctx context.Context) error {
	return types.ErrRemoteUnavailable
}

var _ types.LocalTier = (*DisabledLocalCache)(nil)
var _ types.RemoteTier = (*DisabledRemoteCache)(nil)
