package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tradedesk/tiercache/internal/config"
	"github.com/tradedesk/tiercache/internal/types"
)

// StampedeGuard is a distributed mutex over the remote tier's conditional
// write primitives. At most one holder per cache key exists cluster-wide at
// a time; the lock TTL is the backstop against locks stranded by a crashed
// holder.
type StampedeGuard struct {
	remote types.RemoteTier
	ttl    time.Duration
	logger *slog.Logger
}

// NewStampedeGuard creates a guard over the given remote tier.
func NewStampedeGuard(remote types.RemoteTier, cfg config.LockConfig, logger *slog.Logger) *StampedeGuard {
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StampedeGuard{
		remote: remote,
		ttl:    ttl,
		logger: logger.With("component", "stampede-guard"),
	}
}

// Lock is a held stampede lock. The owner token is unique per acquisition
// attempt so only the acquirer can release its own record.
type Lock struct {
	guard *StampedeGuard
	key   string
	token string
}

// Acquire attempts to take the lock for a fully-qualified cache key.
//
// When the remote tier is unavailable the guard reports the lock as acquired
// with a nil Lock: the cache is running local-only and the in-process
// singleflight above already serializes callers, so there is no cluster-wide
// mutex left to take.
func (g *StampedeGuard) Acquire(ctx context.Context, cacheKey string) (*Lock, bool, error) {
	if !g.remote.IsAvailable() {
		return nil, true, nil
	}

	lockKey := lockKeyPrefix + cacheKey
	token := uuid.NewString()

	acquired, err := g.remote.SetIfAbsent(ctx, lockKey, token, g.ttl)
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		return nil, false, nil
	}

	return &Lock{guard: g, key: lockKey, token: token}, true, nil
}

// Release removes the lock record if this holder still owns it. Safe to call
// on a nil Lock. A record that expired and was re-acquired by another owner
// is left untouched by the compare-and-delete.
func (l *Lock) Release(ctx context.Context) {
	if l == nil {
		return
	}

	released, err := l.guard.remote.CompareAndDelete(ctx, l.key, l.token)
	if err != nil {
		// The TTL will reap the record; contention for its remaining
		// lifetime is the only cost.
		l.guard.logger.Debug("Lock release failed", "key", l.key, "error", err)
		return
	}
	if !released {
		l.guard.logger.Debug("Lock expired before release", "key", l.key)
	}
}
