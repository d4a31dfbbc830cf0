package types

import (
	"context"
	"time"
)

type CacheInfo interface {
	Name() string
	IsAvailable() bool
}

type TierReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Contains(ctx context.Context, key string) (bool, error)
}

type TierWriter interface {
	Set(ctx context.Context, key string, value []byte, opts *CacheOptions) error
	Delete(ctx context.Context, key string) error
}

type TierClearer interface {
	Clear(ctx context.Context) error
	ClearByPattern(ctx context.Context, pattern string) error
}

type TierCloser interface {
	Close() error
}

type BatchReader interface {
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
}

type BatchWriter interface {
	SetMany(ctx context.Context, items map[string][]byte, opts *CacheOptions) error
}

type LocalStatsProvider interface {
	Stats() LocalCacheStats
	EntryCount() int
	Size() int64
	MaxSize() int64
	UsagePercentage() float64
}

// LockPrimitives are the atomic conditional operations the stampede guard is
// built on. SetIfAbsent creates the lock record only when absent.
// CompareAndDelete removes it only while it still holds the caller's token,
// as a single atomic operation.
type LockPrimitives interface {
	SetIfAbsent(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, token string) (bool, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// LocalTier is the in-process storage tier.
type LocalTier interface {
	CacheInfo
	TierReader
	TierWriter
	TierClearer
	TierCloser
	LocalStatsProvider
}

// RemoteTier is the shared storage tier reachable over the network.
type RemoteTier interface {
	CacheInfo
	TierReader
	TierWriter
	TierClearer
	TierCloser
	BatchReader
	BatchWriter
	LockPrimitives
	Pinger
}

type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

type MetricsRecorder interface {
	RecordHit(tier string, key string, latency time.Duration)
	RecordMiss(tier string, key string, latency time.Duration)
	RecordSet(tier string, key string, size int, latency time.Duration)
	RecordDelete(tier string, key string, latency time.Duration)
	RecordError(tier string, operation string, err error)
	RecordLockContention(key string)
	RecordCircuitBreakerStateChange(from, to string)
	Snapshot() MetricsSnapshot
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
