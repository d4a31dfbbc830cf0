package types

import (
	"errors"
	"fmt"
)

var (
	ErrCacheMiss           = errors.New("tiercache: key not found")
	ErrRemoteUnavailable   = errors.New("tiercache: remote tier unavailable")
	ErrCircuitOpen         = errors.New("tiercache: circuit breaker open")
	ErrClosed              = errors.New("tiercache: cache closed")
	ErrSerializationFailed = errors.New("tiercache: serialization failed")
	ErrInvalidKey          = errors.New("tiercache: invalid key")
	ErrLockNotAcquired     = errors.New("tiercache: stampede lock not acquired")
	ErrShutdownTimeout     = errors.New("tiercache: shutdown timeout waiting for background operations")
)

// CacheError wraps a tier-level failure with the operation, key, and tier it
// occurred on.
type CacheError struct {
	Op   string
	Key  string
	Tier string
	Err  error
}

func (e *CacheError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache %s on %s [%s]: %v", e.Op, e.Tier, e.Key, e.Err)
	}
	return fmt.Sprintf("cache %s on %s: %v", e.Op, e.Tier, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

func NewCacheError(op, key, tier string, err error) *CacheError {
	return &CacheError{
		Op:   op,
		Key:  key,
		Tier: tier,
		Err:  err,
	}
}

func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

func IsRemoteUnavailable(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable)
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Cache misses are not retryable - the key doesn't exist
	if IsCacheMiss(err) {
		return false
	}

	// Circuit open is not retryable - need to wait for recovery
	if IsCircuitOpen(err) {
		return false
	}

	// Closed cache is not retryable
	if errors.Is(err, ErrClosed) {
		return false
	}

	// Invalid key is not retryable
	if errors.Is(err, ErrInvalidKey) {
		return false
	}

	// Most other errors (network, timeout) are retryable
	return true
}
