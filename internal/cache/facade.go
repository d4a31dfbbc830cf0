package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tradedesk/tiercache/internal/config"
	"github.com/tradedesk/tiercache/internal/metrics"
	"github.com/tradedesk/tiercache/internal/metrics/datadog"
	"github.com/tradedesk/tiercache/internal/resilience"
	"github.com/tradedesk/tiercache/internal/types"
)

// DefaultShutdownTimeout is the default timeout for shutting down the facade.
const DefaultShutdownTimeout = 30 * time.Second

// DefaultBackgroundOpTimeout is the default timeout for background operations.
const DefaultBackgroundOpTimeout = 5 * time.Second

// lockReleaseTimeout bounds the detached context used to release a stampede
// lock after the caller's context is already cancelled.
const lockReleaseTimeout = 2 * time.Second

// batchConcurrency limits the fan-out of bulk operations.
const batchConcurrency = 16

// FallbackFunc computes the real value on a full cache miss. It is supplied
// by the caller and may perform arbitrarily expensive downstream work; its
// error is the only error class the facade propagates verbatim.
type FallbackFunc func(ctx context.Context) (any, error)

// PreheatLoader produces the entries for a named preheat group.
type PreheatLoader func(ctx context.Context) ([]types.WarmupEntry, error)

// Facade coordinates the local and remote tiers into the layered cache
// contract: reads cascade local-then-remote with promotion, writes go to the
// local tier synchronously and to the remote tier best-effort, and full
// misses can be computed under stampede protection.
type Facade struct {
	local        types.LocalTier
	remote       types.RemoteTier
	guard        *StampedeGuard
	codec        *KeyCodec
	serializer   types.Serializer
	stats        *Collector
	health       *HealthMonitor
	policy       *resilience.Policy
	metrics      types.MetricsRecorder
	publisher    types.Publisher
	bgPublisher  *metrics.BackgroundPublisher
	config       *config.Config
	logger       *slog.Logger
	keyValidator *types.KeyValidator

	flight singleflight.Group

	preheatMu sync.RWMutex
	preheat   map[string]PreheatLoader

	shutdownCancel context.CancelFunc
	shutdownCtx    context.Context
	bgWg           sync.WaitGroup
	bgMu           sync.Mutex
	closed         atomic.Bool
}

// NewFacade creates a new cache facade with the given configuration and options.
//
//nolint:gocyclo // Configuration initialization requires multiple conditional checks
func NewFacade(cfg *config.Config, opts *types.FacadeOptions) (*Facade, error) {
	logger := slog.Default()
	if opts != nil && opts.Logger != nil {
		logger = slog.New(slogAdapter{logger: opts.Logger})
	}
	logger = logger.With("component", "cache-facade")

	if opts != nil {
		if opts.RemoteAddress != "" {
			cfg.Remote.Address = opts.RemoteAddress
		}
		if !opts.RemotePassword.IsEmpty() {
			cfg.Remote.Password = opts.RemotePassword
		}
		if opts.RemoteDB != 0 {
			cfg.Remote.DB = opts.RemoteDB
		}
		if opts.DisableRemote {
			cfg.Remote.Enabled = false
		}
		if opts.DisableResilience {
			cfg.CircuitBreaker.Enabled = false
			cfg.Retry.Enabled = false
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	f := &Facade{
		codec:          NewKeyCodec(cfg.KeyPrefix),
		serializer:     NewJSONSerializer(),
		stats:          NewCollector(),
		config:         cfg,
		logger:         logger,
		preheat:        make(map[string]PreheatLoader),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}

	if opts != nil {
		if opts.Serializer != nil {
			f.serializer = opts.Serializer
		}
		if opts.Metrics != nil {
			f.metrics = opts.Metrics
		}
	}

	if f.metrics == nil {
		f.metrics = metrics.NewTracker()
	}

	if cfg.KeyValidation.Enabled {
		f.keyValidator = types.NewKeyValidator(cfg.KeyValidation.ToTypesConfig())
	}

	if cfg.Local.Enabled {
		localCache, err := NewLocalCache(cfg.Local, logger)
		if err != nil {
			shutdownCancel()
			return nil, err
		}
		f.local = localCache
	} else {
		f.local = NewDisabledLocalCache()
	}

	if cfg.Remote.Enabled {
		remoteCache, err := NewRemoteCache(&cfg.Remote, logger)
		if err != nil {
			logger.Warn("Failed to create remote tier, using local-only mode", "error", err)
			f.remote = NewDisabledRemoteCache()
		} else {
			f.remote = remoteCache
		}
	} else {
		f.remote = NewDisabledRemoteCache()
	}

	f.guard = NewStampedeGuard(f.remote, cfg.Lock, logger)
	f.health = NewHealthMonitor(f.local, f.remote, cfg.Remote.Enabled)
	f.policy = resilience.NewPolicy(cfg)

	f.policy.SetOnCircuitStateChange(func(from, to resilience.State) {
		logger.Info("Circuit breaker state changed",
			"from", from.String(),
			"to", to.String(),
		)
		if f.metrics != nil {
			f.metrics.RecordCircuitBreakerStateChange(from.String(), to.String())
		}
	})

	if cfg.Metrics.Enabled {
		if cfg.Metrics.DataDog.Enabled {
			publisher, err := datadog.NewPublisher(&cfg.Metrics.DataDog, logger)
			if err != nil {
				logger.Warn("Failed to create DataDog publisher, falling back to log output", "error", err)
				f.publisher = metrics.NewLoggingPublisher(logger, cfg.Metrics.DataDog.Tags...)
			} else {
				f.publisher = publisher
			}
		} else {
			f.publisher = metrics.NewLoggingPublisher(logger)
		}

		f.bgPublisher = metrics.NewBackgroundPublisher(
			f.publisher, cfg.Metrics.PublishInterval, f.publisherHealthMetrics, logger)
		f.bgPublisher.Start(shutdownCtx)
	}

	return f, nil
}

// publisherHealthMetrics condenses tier state into the gauge set shipped to
// the metrics backend on every publish interval.
func (f *Facade) publisherHealthMetrics() *types.PublisherHealthMetrics {
	snap := f.metrics.Snapshot()
	stats := f.stats.Snapshot()

	return &types.PublisherHealthMetrics{
		LocalUsedBytes:       f.local.Size(),
		LocalLimitBytes:      f.local.MaxSize(),
		LocalUsagePercentage: f.local.UsagePercentage(),
		TotalEntries:         int64(f.local.EntryCount()),
		HitRatio:             stats.Overall.HitRatio(),
		AverageLatencyMs:     snap.AvgLatencyMs,
		RemoteConnected:      f.remote.IsAvailable(),
	}
}

// Get retrieves a value through the tier cascade. Internal faults (remote
// unreachable, corrupt payload) are recorded and reported as a miss; the only
// errors returned besides ErrCacheMiss are ErrClosed and ErrInvalidKey.
func (f *Facade) Get(ctx context.Context, key string, dest any) error {
	if f.closed.Load() {
		return types.ErrClosed
	}

	if err := f.validateKey(key); err != nil {
		return err
	}

	start := time.Now()
	fullKey := f.codec.FullKey(key)

	data, tier, err := f.getBytes(ctx, fullKey)
	latency := time.Since(start)

	if err != nil {
		if f.metrics != nil {
			f.metrics.RecordMiss(tier.String(), fullKey, latency)
		}
		return types.ErrCacheMiss
	}

	if err := f.serializer.Unmarshal(data, dest); err != nil {
		// a payload we cannot decode reads as a miss
		f.stats.Error(tier)
		f.recordError(tier, "Get", err)
		f.logger.Debug("Deserialization failed", "key", fullKey, "error", err)
		return types.ErrCacheMiss
	}

	if f.metrics != nil {
		f.metrics.RecordHit(tier.String(), fullKey, latency)
	}

	return nil
}

// getBytes runs the read cascade over fully-qualified keys: local first, then
// remote with promotion back into the local tier.
func (f *Facade) getBytes(ctx context.Context, fullKey string) ([]byte, types.Tier, error) {
	data, err := f.local.Get(ctx, fullKey)
	if err == nil {
		f.stats.Hit(types.TierLocal)
		return data, types.TierLocal, nil
	}

	if types.IsCacheMiss(err) {
		f.stats.Miss(types.TierLocal)
	} else if !errors.Is(err, types.ErrClosed) {
		f.stats.Error(types.TierLocal)
		f.logger.Debug("Local tier error", "key", fullKey, "error", err)
	}

	if !f.remote.IsAvailable() {
		return nil, types.TierLocal, types.ErrCacheMiss
	}

	data, err = f.remoteGet(ctx, fullKey)
	if err == nil {
		f.stats.Hit(types.TierRemote)
		f.promote(fullKey, data)
		return data, types.TierRemote, nil
	}

	if types.IsCacheMiss(err) {
		f.stats.Miss(types.TierRemote)
	} else {
		f.stats.Error(types.TierRemote)
		f.recordError(types.TierRemote, "Get", err)
		f.logger.Debug("Remote tier error", "key", fullKey, "error", err)
	}

	return nil, types.TierRemote, types.ErrCacheMiss
}

// promote copies a remote hit into the local tier in the background. The
// promotion TTL is deliberately shorter than the original TTL so a local copy
// never outlives the remote value by much.
func (f *Facade) promote(fullKey string, data []byte) {
	opts := &types.CacheOptions{
		TTL:      f.config.Local.PromotionTTL,
		Priority: PriorityForKey(fullKey),
	}
	f.runBackground(func(ctx context.Context) {
		if err := f.local.Set(ctx, fullKey, data, opts); err != nil {
			f.logger.Debug("Failed to promote remote hit into local tier", "key", fullKey, "error", err)
		}
	})
}

// remoteGet reads from the remote tier through the resilience policy.
func (f *Facade) remoteGet(ctx context.Context, key string) ([]byte, error) {
	result, err := f.policy.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return f.remote.Get(ctx, key)
	})
	if err != nil {
		return nil, err
	}

	data, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", result)
	}

	return data, nil
}

func (f *Facade) remoteSet(ctx context.Context, key string, data []byte, opts *types.CacheOptions) error {
	return f.policy.Execute(ctx, func(ctx context.Context) error {
		return f.remote.Set(ctx, key, data, opts)
	})
}

// Set stores a value in the local tier synchronously and the remote tier
// best-effort. Tier failures are recorded but never fail the call; the local
// write alone satisfies the cache-aside contract.
func (f *Facade) Set(ctx context.Context, key string, value any, opts ...types.Option) error {
	if f.closed.Load() {
		return types.ErrClosed
	}

	if err := f.validateKey(key); err != nil {
		return err
	}

	start := time.Now()
	options := f.applyDefaults(key, opts...)
	fullKey := f.codec.FullKey(key)

	data, err := f.serializer.Marshal(value)
	if err != nil {
		// unserializable values are dropped; the cache is advisory
		f.stats.Error(types.TierLocal)
		f.recordError(types.TierLocal, "Set", err)
		f.logger.Warn("Dropping cache write, serialization failed", "key", fullKey, "error", err)
		return nil
	}

	f.setBytes(ctx, fullKey, data, options)

	if f.metrics != nil {
		f.metrics.RecordSet(types.TierAll.String(), fullKey, len(data), time.Since(start))
	}

	return nil
}

func (f *Facade) setBytes(ctx context.Context, fullKey string, data []byte, options *types.CacheOptions) {
	if err := f.local.Set(ctx, fullKey, data, options); err != nil {
		f.stats.Error(types.TierLocal)
		f.logger.Warn("Local SET failed", "key", fullKey, "error", err)
	} else {
		f.stats.Set(types.TierLocal)
	}

	if !f.remote.IsAvailable() {
		return
	}

	if err := f.remoteSet(ctx, fullKey, data, options); err != nil {
		f.stats.Error(types.TierRemote)
		f.recordError(types.TierRemote, "Set", err)
		f.logger.Warn("Remote SET failed, wrote to local tier only", "key", fullKey, "error", err)
	} else {
		f.stats.Set(types.TierRemote)
	}
}

// Remove deletes a key from both tiers.
func (f *Facade) Remove(ctx context.Context, key string) error {
	if f.closed.Load() {
		return types.ErrClosed
	}

	if err := f.validateKey(key); err != nil {
		return err
	}

	start := time.Now()
	fullKey := f.codec.FullKey(key)

	var errs []error
	if err := f.local.Delete(ctx, fullKey); err != nil {
		errs = append(errs, err)
	}
	if f.remote.IsAvailable() {
		if err := f.remote.Delete(ctx, fullKey); err != nil {
			errs = append(errs, err)
		}
	}

	if f.metrics != nil {
		f.metrics.RecordDelete(types.TierAll.String(), fullKey, time.Since(start))
	}

	return errors.Join(errs...)
}

// RemoveMany attempts to delete all keys and returns a combined error if any
// deletions fail.
func (f *Facade) RemoveMany(ctx context.Context, keys []string) error {
	if f.closed.Load() {
		return types.ErrClosed
	}

	if err := f.validateKeys(keys); err != nil {
		return err
	}

	var errs []error
	for _, key := range keys {
		if err := f.Remove(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// RemoveByPattern removes every key matching the glob-lite pattern from both
// tiers. The local tier walks its iterator; the remote tier runs a true
// scan-and-delete.
func (f *Facade) RemoveByPattern(ctx context.Context, pattern string) error {
	if f.closed.Load() {
		return types.ErrClosed
	}

	fullPattern := f.codec.FullKey(pattern)

	var errs []error
	if err := f.local.ClearByPattern(ctx, fullPattern); err != nil {
		errs = append(errs, err)
	}
	if f.remote.IsAvailable() {
		if err := f.remote.ClearByPattern(ctx, fullPattern); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Contains checks if a key exists in either tier.
func (f *Facade) Contains(ctx context.Context, key string) (bool, error) {
	if f.closed.Load() {
		return false, types.ErrClosed
	}

	if err := f.validateKey(key); err != nil {
		return false, err
	}

	fullKey := f.codec.FullKey(key)

	exists, err := f.local.Contains(ctx, fullKey)
	if err != nil {
		f.logger.Debug("Local contains check failed", "key", fullKey, "error", err)
	} else if exists {
		return true, nil
	}

	if !f.remote.IsAvailable() {
		return false, nil
	}

	return f.remote.Contains(ctx, fullKey)
}

// GetFromTier reads a key from one specific tier, bypassing the promotion
// cascade. Intended for diagnostics and targeted reads.
func (f *Facade) GetFromTier(ctx context.Context, tier types.Tier, key string, dest any) error {
	if f.closed.Load() {
		return types.ErrClosed
	}

	if err := f.validateKey(key); err != nil {
		return err
	}

	fullKey := f.codec.FullKey(key)

	var data []byte
	var err error

	switch tier {
	case types.TierLocal:
		data, err = f.local.Get(ctx, fullKey)
	case types.TierRemote:
		if !f.remote.IsAvailable() {
			return types.ErrRemoteUnavailable
		}
		data, err = f.remoteGet(ctx, fullKey)
	default:
		return fmt.Errorf("tiercache: cannot read from tier %q", tier)
	}

	if err != nil {
		if types.IsCacheMiss(err) {
			f.stats.Miss(tier)
			return types.ErrCacheMiss
		}
		f.stats.Error(tier)
		return err
	}

	f.stats.Hit(tier)
	return f.serializer.Unmarshal(data, dest)
}

// SetToTier writes a key to one specific tier, bypassing the write-through.
func (f *Facade) SetToTier(ctx context.Context, tier types.Tier, key string, value any, opts ...types.Option) error {
	if f.closed.Load() {
		return types.ErrClosed
	}

	if err := f.validateKey(key); err != nil {
		return err
	}

	options := f.applyDefaults(key, opts...)
	fullKey := f.codec.FullKey(key)

	data, err := f.serializer.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrSerializationFailed, err)
	}

	switch tier {
	case types.TierLocal:
		err = f.local.Set(ctx, fullKey, data, options)
	case types.TierRemote:
		if !f.remote.IsAvailable() {
			return types.ErrRemoteUnavailable
		}
		err = f.remoteSet(ctx, fullKey, data, options)
	default:
		return fmt.Errorf("tiercache: cannot write to tier %q", tier)
	}

	if err != nil {
		f.stats.Error(tier)
		return err
	}

	f.stats.Set(tier)
	return nil
}

// GetWithFallback is the stampede-protected cache-aside primitive. On a full
// miss, same-process callers for a key are collapsed by singleflight and the
// surviving caller competes for the cluster-wide lock before invoking the
// fallback. A fallback error is propagated verbatim after the lock has been
// released.
func (f *Facade) GetWithFallback(ctx context.Context, key string, dest any, fallback FallbackFunc, opts ...types.Option) error {
	if f.closed.Load() {
		return types.ErrClosed
	}

	if err := f.validateKey(key); err != nil {
		return err
	}

	options := f.applyDefaults(key, opts...)
	fullKey := f.codec.FullKey(key)

	// fast path, no locking
	if data, _, err := f.getBytes(ctx, fullKey); err == nil {
		if err := f.serializer.Unmarshal(data, dest); err == nil {
			return nil
		}
	}

	result, err, _ := f.flight.Do(fullKey, func() (any, error) {
		return f.computeProtected(ctx, fullKey, fallback, options)
	})
	if err != nil {
		return err
	}

	data, ok := result.([]byte)
	if !ok {
		return fmt.Errorf("unexpected result type: %T", result)
	}

	return f.serializer.Unmarshal(data, dest)
}

// computeProtected runs the distributed side of the fallback state machine
// for one in-process winner.
func (f *Facade) computeProtected(ctx context.Context, fullKey string, fallback FallbackFunc, options *types.CacheOptions) ([]byte, error) {
	lock, acquired, err := f.guard.Acquire(ctx, fullKey)
	if err != nil {
		// a remote fault while acquiring degrades to an uncached computation
		f.stats.Error(types.TierRemote)
		f.recordError(types.TierRemote, "AcquireLock", err)
		f.logger.Debug("Stampede lock acquisition failed, computing uncached", "key", fullKey, "error", err)
		return f.computeUncached(ctx, fallback)
	}

	if !acquired {
		return f.awaitHolder(ctx, fullKey, fallback)
	}

	defer f.releaseLock(ctx, lock)

	// another holder may have finished and written the value just before
	// this acquisition
	if data, _, err := f.getBytes(ctx, fullKey); err == nil {
		return data, nil
	}

	value, err := fallback(ctx)
	if err != nil {
		return nil, err
	}

	data, err := f.serializer.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSerializationFailed, err)
	}

	f.setBytes(ctx, fullKey, data, options)

	return data, nil
}

// awaitHolder is the contention branch: another caller holds the lock and is
// computing. Wait a bounded number of backoff rounds for its result, then
// give up and compute uncached. The possible duplicate computation is the
// accepted price for bounded latency and no deadlock risk.
func (f *Facade) awaitHolder(ctx context.Context, fullKey string, fallback FallbackFunc) ([]byte, error) {
	if f.metrics != nil {
		f.metrics.RecordLockContention(fullKey)
	}

	attempts := f.config.Lock.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.config.Lock.RetryBackoff):
		}

		if data, _, err := f.getBytes(ctx, fullKey); err == nil {
			return data, nil
		}
	}

	return f.computeUncached(ctx, fallback)
}

// computeUncached invokes the fallback without writing the result back. Not
// caching here avoids a second writer racing the lock holder.
func (f *Facade) computeUncached(ctx context.Context, fallback FallbackFunc) ([]byte, error) {
	value, err := fallback(ctx)
	if err != nil {
		return nil, err
	}

	data, err := f.serializer.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSerializationFailed, err)
	}

	return data, nil
}

// releaseLock releases a stampede lock on a context detached from the
// caller's, so cancellation of the caller cannot strand the lock for its
// full TTL.
func (f *Facade) releaseLock(ctx context.Context, lock *Lock) {
	if lock == nil {
		return
	}

	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
	defer cancel()

	lock.Release(releaseCtx)
}

// GetMany retrieves multiple keys concurrently. Absent keys and per-key
// faults are omitted from the result; the batch itself never fails.
func (f *Facade) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	if f.closed.Load() {
		return nil, types.ErrClosed
	}

	if len(keys) == 0 {
		return make(map[string][]byte), nil
	}

	if err := f.validateKeys(keys); err != nil {
		return nil, err
	}

	results := make(map[string][]byte, len(keys))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for _, key := range keys {
		key := key
		g.Go(func() error {
			data, _, err := f.getBytes(gctx, f.codec.FullKey(key))
			if err != nil {
				return nil
			}
			mu.Lock()
			results[key] = data
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results, nil
}

// SetMany stores multiple values concurrently. Per-key failures are recorded
// but do not fail the batch.
func (f *Facade) SetMany(ctx context.Context, items map[string]any, opts ...types.Option) error {
	if f.closed.Load() {
		return types.ErrClosed
	}

	if len(items) == 0 {
		return nil
	}

	if f.keyValidator != nil {
		for key := range items {
			if err := f.keyValidator.Validate(key); err != nil {
				return err
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for key, value := range items {
		key, value := key, value
		g.Go(func() error {
			options := f.applyDefaults(key, opts...)
			fullKey := f.codec.FullKey(key)

			data, err := f.serializer.Marshal(value)
			if err != nil {
				f.stats.Error(types.TierLocal)
				f.logger.Warn("Skipping batch entry, serialization failed", "key", fullKey, "error", err)
				return nil
			}

			f.setBytes(gctx, fullKey, data, options)
			return nil
		})
	}

	_ = g.Wait()
	return nil
}

// Synchronize pulls the remote value for a key into the local tier
// unconditionally. Used after out-of-band invalidation events; a remote miss
// drops the local copy instead.
func (f *Facade) Synchronize(ctx context.Context, key string) error {
	if f.closed.Load() {
		return types.ErrClosed
	}

	if err := f.validateKey(key); err != nil {
		return err
	}

	if !f.remote.IsAvailable() {
		return nil
	}

	fullKey := f.codec.FullKey(key)

	data, err := f.remoteGet(ctx, fullKey)
	if err != nil {
		if types.IsCacheMiss(err) {
			f.stats.Miss(types.TierRemote)
			_ = f.local.Delete(ctx, fullKey)
			return nil
		}
		f.stats.Error(types.TierRemote)
		f.recordError(types.TierRemote, "Synchronize", err)
		return nil
	}

	f.stats.Hit(types.TierRemote)

	options := &types.CacheOptions{
		TTL:      f.config.Local.PromotionTTL,
		Priority: PriorityForKey(fullKey),
	}
	if err := f.local.Set(ctx, fullKey, data, options); err != nil {
		f.stats.Error(types.TierLocal)
		f.logger.Debug("Synchronize local write failed", "key", fullKey, "error", err)
	}

	return nil
}

// InvalidateDistributed removes a key everywhere. Deleting the shared tier is
// the cross-process propagation mechanism: peer processes read through it and
// their promoted local copies age out within the promotion TTL.
func (f *Facade) InvalidateDistributed(ctx context.Context, key string) error {
	return f.Remove(ctx, key)
}

// Warmup pre-populates the supplied entries ahead of expected demand.
// Correctness never depends on warm data being present.
func (f *Facade) Warmup(ctx context.Context, req types.WarmupRequest) error {
	if f.closed.Load() {
		return types.ErrClosed
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for _, entry := range req.Entries {
		entry := entry
		g.Go(func() error {
			return f.Set(gctx, entry.Key, entry.Value, func(o *types.CacheOptions) {
				o.TTL = entry.TTL
			})
		})
	}

	err := g.Wait()
	f.logger.Info("Cache warmup complete", "entries", len(req.Entries))
	return err
}

// RegisterPreheatGroup registers a loader producing the entries for a named
// group of keys.
func (f *Facade) RegisterPreheatGroup(group string, loader PreheatLoader) {
	f.preheatMu.Lock()
	defer f.preheatMu.Unlock()
	f.preheat[group] = loader
}

// Preheat warms the named group using its registered loader. An unregistered
// group is a logged no-op.
func (f *Facade) Preheat(ctx context.Context, group string) error {
	if f.closed.Load() {
		return types.ErrClosed
	}

	f.preheatMu.RLock()
	loader := f.preheat[group]
	f.preheatMu.RUnlock()

	if loader == nil {
		f.logger.Info("No loader registered for preheat group, skipping", "group", group)
		return nil
	}

	entries, err := loader(ctx)
	if err != nil {
		return err
	}

	return f.Warmup(ctx, types.WarmupRequest{Entries: entries})
}

// Clear removes all entries from the specified tier.
func (f *Facade) Clear(ctx context.Context, tier types.Tier) error {
	if f.closed.Load() {
		return types.ErrClosed
	}

	var errs []error

	if tier == types.TierLocal || tier == types.TierAll {
		if err := f.local.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if (tier == types.TierRemote || tier == types.TierAll) && f.remote.IsAvailable() {
		if err := f.remote.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Statistics returns a point-in-time snapshot of per-tier and overall
// counters. Ratios are computed on read.
func (f *Facade) Statistics() *types.CacheStatistics {
	return f.stats.Snapshot()
}

// Health probes each tier and returns the aggregated report.
func (f *Facade) Health(ctx context.Context) (*types.HealthReport, error) {
	return f.health.Check(ctx), nil
}

// IsLocalAvailable returns true if the local tier is usable.
func (f *Facade) IsLocalAvailable() bool {
	return f.local.IsAvailable()
}

// IsRemoteAvailable returns true if the remote tier is connected and the
// circuit breaker allows traffic.
func (f *Facade) IsRemoteAvailable() bool {
	return f.remote.IsAvailable() && !f.policy.IsCircuitOpen()
}

// Close releases all resources using the default shutdown timeout.
func (f *Facade) Close() error {
	return f.CloseWithTimeout(DefaultShutdownTimeout)
}

// CloseWithTimeout releases all resources with a configurable timeout. If
// background promotions don't finish within the timeout, it returns
// ErrShutdownTimeout but still closes the tiers.
func (f *Facade) CloseWithTimeout(timeout time.Duration) error {
	// Hold bgMu while flipping closed so no background goroutine can be
	// added after Wait starts.
	f.bgMu.Lock()
	if f.closed.Swap(true) {
		f.bgMu.Unlock()
		return nil
	}
	f.shutdownCancel()
	f.bgMu.Unlock()

	if f.bgPublisher != nil {
		f.bgPublisher.Stop()
	}

	f.logger.Info("Closing cache facade, waiting for background operations", "timeout", timeout)

	done := make(chan struct{})
	go func() {
		f.bgWg.Wait()
		close(done)
	}()

	var timedOut bool
	select {
	case <-done:
	case <-time.After(timeout):
		f.logger.Warn("Shutdown timeout exceeded, proceeding with close", "timeout", timeout)
		timedOut = true
	}

	var errs []error

	if timedOut {
		errs = append(errs, types.ErrShutdownTimeout)
	}

	if err := f.local.Close(); err != nil {
		errs = append(errs, err)
	}

	if err := f.remote.Close(); err != nil {
		errs = append(errs, err)
	}

	if f.publisher != nil {
		if err := f.publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// runBackground executes fn in a goroutine tracked for graceful shutdown.
// The goroutine is not started if the facade is already closed.
func (f *Facade) runBackground(fn func(ctx context.Context)) {
	f.bgMu.Lock()
	if f.closed.Load() {
		f.bgMu.Unlock()
		return
	}
	f.bgWg.Add(1)
	f.bgMu.Unlock()

	go func() {
		defer f.bgWg.Done()
		ctx, cancel := context.WithTimeout(f.shutdownCtx, DefaultBackgroundOpTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (f *Facade) recordError(tier types.Tier, op string, err error) {
	if f.metrics != nil {
		f.metrics.RecordError(tier.String(), op, err)
	}
}

func (f *Facade) validateKey(key string) error {
	if f.keyValidator == nil {
		return nil
	}
	return f.keyValidator.Validate(key)
}

func (f *Facade) validateKeys(keys []string) error {
	if f.keyValidator == nil {
		return nil
	}
	for _, key := range keys {
		if err := f.keyValidator.Validate(key); err != nil {
			return err
		}
	}
	return nil
}

// applyDefaults fills unset per-operation options from configuration and the
// key-derived priority class.
func (f *Facade) applyDefaults(key string, opts ...types.Option) *types.CacheOptions {
	options := &types.CacheOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.TTL == 0 {
		options.TTL = f.config.Defaults.TTL
	}

	if options.Priority == 0 {
		options.Priority = PriorityForKey(key)
	}

	return options
}
