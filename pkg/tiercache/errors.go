package tiercache

import (
	"github.com/tradedesk/tiercache/internal/types"
)

// CacheError represents a cache operation error.
type CacheError = types.CacheError

var (
	// ErrCacheMiss indicates that a requested key was not found in the cache.
	ErrCacheMiss = types.ErrCacheMiss
	// ErrRemoteUnavailable indicates that the remote tier is not reachable.
	ErrRemoteUnavailable = types.ErrRemoteUnavailable
	// ErrCircuitOpen indicates that the circuit breaker is open.
	ErrCircuitOpen = types.ErrCircuitOpen
	// ErrClosed indicates that the cache has been closed.
	ErrClosed = types.ErrClosed
	// ErrSerializationFailed indicates that serialization failed.
	ErrSerializationFailed = types.ErrSerializationFailed
	// ErrInvalidKey indicates that a cache key is invalid.
	ErrInvalidKey = types.ErrInvalidKey
	// ErrLockNotAcquired indicates that the stampede lock was held elsewhere.
	ErrLockNotAcquired = types.ErrLockNotAcquired
	// ErrShutdownTimeout indicates that background work outlived Close.
	ErrShutdownTimeout = types.ErrShutdownTimeout
)

// NewCacheError creates a new cache error with operation, key, tier, and underlying error.
func NewCacheError(op, key, tier string, err error) *CacheError {
	return types.NewCacheError(op, key, tier, err)
}

// IsCacheMiss returns true if the error is a cache miss.
func IsCacheMiss(err error) bool {
	return types.IsCacheMiss(err)
}

// IsRemoteUnavailable returns true if the error indicates the remote tier is unavailable.
func IsRemoteUnavailable(err error) bool {
	return types.IsRemoteUnavailable(err)
}

// IsCircuitOpen returns true if the error indicates the circuit breaker is open.
func IsCircuitOpen(err error) bool {
	return types.IsCircuitOpen(err)
}

// IsRetryable returns true if the error can be retried.
func IsRetryable(err error) bool {
	return types.IsRetryable(err)
}
