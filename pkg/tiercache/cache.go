package tiercache

import (
	"context"
	"time"

	"github.com/tradedesk/tiercache/internal/cache"
)

// FallbackFunc computes the real value on a full cache miss.
type FallbackFunc = cache.FallbackFunc

// PreheatLoader produces the entries for a named preheat group.
type PreheatLoader = cache.PreheatLoader

// Cache is the full two-tier cache surface.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, opts ...Option) error
	GetWithFallback(ctx context.Context, key string, dest any, fallback FallbackFunc, opts ...Option) error
	Remove(ctx context.Context, key string) error
	RemoveMany(ctx context.Context, keys []string) error
	RemoveByPattern(ctx context.Context, pattern string) error
	Contains(ctx context.Context, key string) (bool, error)
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
	SetMany(ctx context.Context, items map[string]any, opts ...Option) error
	GetFromTier(ctx context.Context, tier Tier, key string, dest any) error
	SetToTier(ctx context.Context, tier Tier, key string, value any, opts ...Option) error
	Synchronize(ctx context.Context, key string) error
	InvalidateDistributed(ctx context.Context, key string) error
	Warmup(ctx context.Context, req WarmupRequest) error
	RegisterPreheatGroup(group string, loader PreheatLoader)
	Preheat(ctx context.Context, group string) error
	Clear(ctx context.Context, tier Tier) error
	Statistics() *CacheStatistics
	Health(ctx context.Context) (*HealthReport, error)
	IsLocalAvailable() bool
	IsRemoteAvailable() bool
	Close() error
	CloseWithTimeout(timeout time.Duration) error
}

var _ Cache = (*cache.Facade)(nil)
